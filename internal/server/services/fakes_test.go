package services

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/cryptox"
	"github.com/dmitrijs2005/gophtodo/internal/dbx"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/revokedsessions"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/users"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory stores ---

type memUsers struct {
	mu     sync.Mutex
	nextID int64
	byID   map[int64]*models.User
	getErr error
}

func newMemUsers() *memUsers { return &memUsers{byID: map[int64]*models.User{}} }

func (m *memUsers) Create(_ context.Context, u *models.User) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Email == u.Email {
			return nil, common.ErrDuplicateEmail
		}
	}
	m.nextID++
	cp := *u
	cp.ID = m.nextID
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memUsers) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	for _, u := range m.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrorNotFound
}

func (m *memUsers) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) UpdatePasswordHash(_ context.Context, id int64, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.byID[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.PasswordHash = hash
	return nil
}

func (m *memUsers) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memUsers) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type memTasks struct {
	mu        sync.Mutex
	nextID    int64
	byID      map[int64]*models.Task
	createErr error
	purgeErr  error
}

func newMemTasks() *memTasks { return &memTasks{byID: map[int64]*models.Task{}} }

func (m *memTasks) Create(_ context.Context, t *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.nextID++
	cp := *t
	cp.ID = m.nextID
	cp.Completed = false
	cp.CreatedAt = time.Now()
	m.byID[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (m *memTasks) GetByID(_ context.Context, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	cp := *t
	return &cp, nil
}

func (m *memTasks) ListByOwner(_ context.Context, userID int64) ([]*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*models.Task{}
	for id := int64(1); id <= m.nextID; id++ {
		if t, ok := m.byID[id]; ok && t.UserID == userID {
			cp := *t
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *memTasks) Toggle(_ context.Context, userID, id int64) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	t.Completed = !t.Completed
	cp := *t
	return &cp, nil
}

func (m *memTasks) Delete(_ context.Context, userID, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.byID[id]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(m.byID, id)
	return nil
}

func (m *memTasks) DeleteByOwner(_ context.Context, userID int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.purgeErr != nil {
		return 0, m.purgeErr
	}
	var n int64
	for id, t := range m.byID {
		if t.UserID == userID {
			delete(m.byID, id)
			n++
		}
	}
	return n, nil
}

type memRevoked struct {
	mu  sync.Mutex
	ids map[string]time.Time
}

func (m *memRevoked) Add(_ context.Context, id string, exp time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ids[id] = exp
	return nil
}

func (m *memRevoked) Exists(_ context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.ids[id]
	return ok, nil
}

func (m *memRevoked) DeleteExpired(context.Context) (int64, error) { return 0, nil }

type fakeRepoManager struct {
	u *memUsers
	t *memTasks
	r *memRevoked
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error        { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository                     { return m.u }
func (m *fakeRepoManager) Tasks(dbx.DBTX) tasks.Repository                     { return m.t }
func (m *fakeRepoManager) RevokedSessions(dbx.DBTX) revokedsessions.Repository { return m.r }

// --- fixture ---

type fixture struct {
	db       *sql.DB
	mock     sqlmock.Sqlmock
	repos    *fakeRepoManager
	hasher   *cryptox.PasswordHasher
	sessions *auth.SessionManager
	users    *UserService
	tasks    *TaskService
	guard    *Guard
}

func cheapParams() cryptox.Params {
	return cryptox.Params{Algorithm: cryptox.AlgorithmArgon2id, Memory: 1024, Iterations: 1, Threads: 1, BcryptCost: bcrypt.MinCost}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithParams(t, cheapParams())
}

func newFixtureWithParams(t *testing.T, p cryptox.Params) *fixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repos := &fakeRepoManager{u: newMemUsers(), t: newMemTasks(), r: &memRevoked{ids: map[string]time.Time{}}}

	hasher, err := cryptox.NewPasswordHasher(p)
	require.NoError(t, err)

	sessions, err := auth.NewSessionManager(auth.Options{
		KeyID:       "test",
		SigningKey:  []byte("0123456789abcdef0123456789abcdef"),
		TTL:         time.Hour,
		RememberTTL: 30 * 24 * time.Hour,
		Revoker:     auth.NewRepositoryRevoker(repos.r),
	})
	require.NoError(t, err)

	us, err := NewUserService(db, repos, hasher, sessions, logging.Nop())
	require.NoError(t, err)

	return &fixture{
		db:       db,
		mock:     mock,
		repos:    repos,
		hasher:   hasher,
		sessions: sessions,
		users:    us,
		tasks:    NewTaskService(db, repos, logging.Nop()),
		guard:    NewGuard(db, repos, sessions, logging.Nop()),
	}
}

func (f *fixture) register(t *testing.T, email, password string) *models.User {
	t.Helper()
	u, err := f.users.Register(context.Background(), RegisterInput{Email: email, Password: password, ConfirmPassword: password})
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, email, password string) *LoginResult {
	t.Helper()
	res, err := f.users.Login(context.Background(), LoginInput{Email: email, Password: password})
	require.NoError(t, err)
	return res
}
