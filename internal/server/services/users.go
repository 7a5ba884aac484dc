package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/cryptox"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

type RegisterInput struct {
	Email           string `json:"email" validate:"required,email,max=100"`
	Password        string `json:"password" validate:"required,min=6"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
	Remember bool   `json:"remember_me"`
}

type LoginResult struct {
	User    *models.User
	Session *auth.Session
}

// UserService registers accounts, checks credentials and ends sessions.
type UserService struct {
	db        DB
	repos     repomanager.RepositoryManager
	hasher    Hasher
	sessions  Sessions
	log       logging.Logger
	dummyHash string
}

func NewUserService(db DB, repos repomanager.RepositoryManager, hasher Hasher, sessions Sessions, log logging.Logger) (*UserService, error) {
	// Verified against when the email is unknown so both login failures cost
	// the same.
	secret, err := common.MakeRandHexString(16)
	if err != nil {
		return nil, err
	}
	dummy, err := hasher.Hash(secret)
	if err != nil {
		return nil, fmt.Errorf("dummy hash: %w", err)
	}

	return &UserService{
		db:        db,
		repos:     repos,
		hasher:    hasher,
		sessions:  sessions,
		log:       log.With("module", "users"),
		dummyHash: dummy,
	}, nil
}

// Register creates an account. It does not log the user in.
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if errors.Is(err, cryptox.ErrPasswordTooLong) {
		return nil, common.NewValidationError("password", fmt.Sprintf("Password must be at most %d bytes long.", cryptox.MaxBcryptPasswordLength))
	}
	if err != nil {
		s.log.Error(ctx, "password hashing failed", "error", err)
		return nil, common.ErrorInternal
	}

	u, err := s.repos.Users(s.db).Create(ctx, &models.User{Email: in.Email, PasswordHash: hash})
	if err != nil {
		if errors.Is(err, common.ErrDuplicateEmail) {
			return nil, common.ErrDuplicateEmail
		}
		s.log.Error(ctx, "create user failed", "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user registered", "user_id", u.ID)
	return u, nil
}

// Login checks the credentials and issues a session. Unknown email and wrong
// password produce the same error.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*LoginResult, error) {
	in.Email = normalizeEmail(in.Email)
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	u, err := s.repos.Users(s.db).GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			_, _ = s.hasher.Verify(in.Password, s.dummyHash)
			return nil, common.ErrInvalidCredentials
		}
		s.log.Error(ctx, "load user failed", "error", err)
		return nil, common.ErrorInternal
	}

	ok, err := s.hasher.Verify(in.Password, u.PasswordHash)
	if err != nil {
		s.log.Warn(ctx, "stored password hash unreadable", "user_id", u.ID, "error", err)
		return nil, common.ErrInvalidCredentials
	}
	if !ok {
		return nil, common.ErrInvalidCredentials
	}

	if s.hasher.NeedsRehash(u.PasswordHash) {
		s.upgradeHash(ctx, u, in.Password)
	}

	sess, err := s.sessions.Issue(u.ID, in.Remember)
	if err != nil {
		s.log.Error(ctx, "issue session failed", "user_id", u.ID, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Info(ctx, "user logged in", "user_id", u.ID, "remember", in.Remember)
	return &LoginResult{User: u, Session: sess}, nil
}

// upgradeHash re-hashes the password with the current parameters. Failure is
// logged and otherwise ignored; the old hash keeps working.
func (s *UserService) upgradeHash(ctx context.Context, u *models.User, password string) {
	hash, err := s.hasher.Hash(password)
	if err == nil {
		err = s.repos.Users(s.db).UpdatePasswordHash(ctx, u.ID, hash)
	}
	if err != nil {
		s.log.Warn(ctx, "password rehash failed", "user_id", u.ID, "error", err)
		return
	}
	u.PasswordHash = hash
	s.log.Info(ctx, "password hash upgraded", "user_id", u.ID)
}

// Logout revokes the session token. The transport clears the cookie either way.
func (s *UserService) Logout(ctx context.Context, token string) error {
	if err := s.sessions.Revoke(ctx, token); err != nil {
		s.log.Error(ctx, "revoke session failed", "error", err)
		return common.ErrorInternal
	}
	return nil
}

// FindByEmail looks an account up by its login email.
func (s *UserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := s.repos.Users(s.db).GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorNotFound
		}
		s.log.Error(ctx, "load user failed", "error", err)
		return nil, common.ErrorInternal
	}
	return u, nil
}

// DeleteAccount removes the user and every task they own in one transaction.
func (s *UserService) DeleteAccount(ctx context.Context, userID int64) error {
	var removed int64
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		n, err := s.repos.Tasks(tx).DeleteByOwner(ctx, userID)
		if err != nil {
			return err
		}
		removed = n
		return s.repos.Users(tx).Delete(ctx, userID)
	})
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrorNotFound
		}
		s.log.Error(ctx, "delete account failed", "user_id", userID, "error", err)
		return common.ErrorInternal
	}

	s.log.Info(ctx, "account deleted", "user_id", userID, "tasks_removed", removed)
	return nil
}
