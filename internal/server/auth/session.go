// Package auth issues and verifies session tokens.
//
// A session is a signed JWT carrying the user id, a unique token id and the
// remember-me flag. Tokens are stateless; logout is enforced through an
// optional Revoker that remembers revoked token ids until they expire.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the JWT payload of a session token.
type Claims struct {
	jwt.RegisteredClaims
	Remember bool `json:"remember,omitempty"`
}

// Session is an issued token together with the data the transport needs to
// hand it to the client.
type Session struct {
	Token     string
	ID        string
	UserID    int64
	Remember  bool
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Options configures a SessionManager.
type Options struct {
	// KeyID names SigningKey in the token header.
	KeyID      string
	SigningKey []byte

	// VerifyKeys are retired keys by id. They verify existing tokens but
	// never sign new ones.
	VerifyKeys map[string][]byte

	TTL         time.Duration
	RememberTTL time.Duration

	// Revoker is optional; without it logout only clears the client cookie.
	Revoker Revoker
}

type SessionManager struct {
	keyID       string
	keys        map[string][]byte
	ttl         time.Duration
	rememberTTL time.Duration
	revoker     Revoker
	now         func() time.Time
}

func NewSessionManager(opts Options) (*SessionManager, error) {
	if len(opts.SigningKey) == 0 {
		return nil, errors.New("session signing key is empty")
	}
	if opts.KeyID == "" {
		return nil, errors.New("session key id is empty")
	}
	if opts.TTL <= 0 || opts.RememberTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive (ttl=%s remember=%s)", opts.TTL, opts.RememberTTL)
	}

	keys := make(map[string][]byte, len(opts.VerifyKeys)+1)
	for kid, k := range opts.VerifyKeys {
		if len(k) == 0 {
			return nil, fmt.Errorf("verify key %q is empty", kid)
		}
		keys[kid] = k
	}
	keys[opts.KeyID] = opts.SigningKey

	return &SessionManager{
		keyID:       opts.KeyID,
		keys:        keys,
		ttl:         opts.TTL,
		rememberTTL: opts.RememberTTL,
		revoker:     opts.Revoker,
		now:         time.Now,
	}, nil
}

// Issue signs a new session for userID.
func (m *SessionManager) Issue(userID int64, remember bool) (*Session, error) {
	now := m.now().Truncate(time.Second)
	ttl := m.ttl
	if remember {
		ttl = m.rememberTTL
	}

	s := &Session{
		ID:        uuid.NewString(),
		UserID:    userID,
		Remember:  remember,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        s.ID,
			Subject:   strconv.FormatInt(userID, 10),
			IssuedAt:  jwt.NewNumericDate(s.IssuedAt),
			ExpiresAt: jwt.NewNumericDate(s.ExpiresAt),
		},
		Remember: remember,
	})
	token.Header["kid"] = m.keyID

	signed, err := token.SignedString(m.keys[m.keyID])
	if err != nil {
		return nil, fmt.Errorf("sign session: %w", err)
	}
	s.Token = signed
	return s, nil
}

// Resolve verifies token and returns the user id it was issued for.
// Every failure wraps common.ErrInvalidSession.
func (m *SessionManager) Resolve(ctx context.Context, token string) (int64, error) {
	s, err := m.parse(token)
	if err != nil {
		return 0, err
	}

	if m.revoker != nil {
		revoked, err := m.revoker.IsRevoked(ctx, s.ID)
		if err != nil {
			return 0, fmt.Errorf("%w: revocation lookup: %v", common.ErrInvalidSession, err)
		}
		if revoked {
			return 0, fmt.Errorf("%w: revoked", common.ErrInvalidSession)
		}
	}

	return s.UserID, nil
}

// Revoke invalidates token for the rest of its lifetime. Invalid tokens and
// a missing Revoker make it a no-op.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if m.revoker == nil {
		return nil
	}
	s, err := m.parse(token)
	if err != nil {
		return nil
	}
	if err := m.revoker.Revoke(ctx, s.ID, s.ExpiresAt); err != nil {
		return fmt.Errorf("revoke session: %w", err)
	}
	return nil
}

func (m *SessionManager) parse(token string) (*Session, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: empty token", common.ErrInvalidSession)
	}

	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, m.keyFunc,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidSession, err)
	}
	if !parsed.Valid {
		return nil, fmt.Errorf("%w: token not valid", common.ErrInvalidSession)
	}

	userID, err := strconv.ParseInt(claims.Subject, 10, 64)
	if err != nil || userID <= 0 {
		return nil, fmt.Errorf("%w: bad subject %q", common.ErrInvalidSession, claims.Subject)
	}
	if claims.ID == "" {
		return nil, fmt.Errorf("%w: missing token id", common.ErrInvalidSession)
	}

	s := &Session{
		Token:     token,
		ID:        claims.ID,
		UserID:    userID,
		Remember:  claims.Remember,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		s.IssuedAt = claims.IssuedAt.Time
	}
	return s, nil
}

func (m *SessionManager) keyFunc(t *jwt.Token) (any, error) {
	kid, _ := t.Header["kid"].(string)
	key, ok := m.keys[kid]
	if !ok {
		return nil, fmt.Errorf("unknown key id %q", kid)
	}
	return key, nil
}
