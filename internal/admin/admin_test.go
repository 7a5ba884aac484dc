package admin

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccounts struct {
	registered []services.RegisterInput
	users      map[string]*models.User
	deleted    []int64
	err        error
}

func (f *fakeAccounts) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.registered = append(f.registered, in)
	return &models.User{ID: int64(len(f.registered)), Email: in.Email}, nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.User, error) {
	u, ok := f.users[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return u, nil
}

func (f *fakeAccounts) DeleteAccount(_ context.Context, userID int64) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = append(f.deleted, userID)
	return nil
}

type fakeTerm struct {
	tty       bool
	passwords []string
	err       error
}

func (f *fakeTerm) IsTerminal(int) bool { return f.tty }

func (f *fakeTerm) ReadPassword(int) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	pw := f.passwords[0]
	f.passwords = f.passwords[1:]
	return []byte(pw), nil
}

func newTestApp(acc Accounts, input string, term Terminal) (*App, *bytes.Buffer) {
	out := &bytes.Buffer{}
	a := NewApp(acc, func(context.Context) error { return nil }, strings.NewReader(input), out, 0)
	a.term = term
	return a, out
}

func TestRun_Usage(t *testing.T) {
	a, _ := newTestApp(&fakeAccounts{}, "", &fakeTerm{})

	assert.ErrorIs(t, a.Run(context.Background(), nil), ErrUsage)
	assert.ErrorIs(t, a.Run(context.Background(), []string{"frobnicate"}), ErrUsage)
	assert.ErrorIs(t, a.Run(context.Background(), []string{"useradd"}), ErrUsage)
	assert.ErrorIs(t, a.Run(context.Background(), []string{"userdel", "-d", "postgres://x"}), ErrUsage)
}

func TestRun_Migrate(t *testing.T) {
	calls := 0
	out := &bytes.Buffer{}
	a := NewApp(&fakeAccounts{}, func(context.Context) error { calls++; return nil }, strings.NewReader(""), out, 0)

	require.NoError(t, a.Run(context.Background(), []string{"migrate"}))
	assert.Equal(t, 1, calls)
	assert.Contains(t, out.String(), "Migrations applied")

	boom := errors.New("migrate: boom")
	a.migrate = func(context.Context) error { return boom }
	assert.ErrorIs(t, a.Run(context.Background(), []string{"migrate"}), boom)
}

func TestUserAdd_FromTerminal(t *testing.T) {
	acc := &fakeAccounts{}
	a, out := newTestApp(acc, "", &fakeTerm{tty: true, passwords: []string{"secret1", "secret1"}})

	err := a.Run(context.Background(), []string{"useradd", "-email", "a@x.io", "-d", "postgres://ignored"})
	require.NoError(t, err)
	require.Len(t, acc.registered, 1)
	assert.Equal(t, services.RegisterInput{Email: "a@x.io", Password: "secret1", ConfirmPassword: "secret1"}, acc.registered[0])
	assert.Contains(t, out.String(), "Created user 1 (a@x.io)")
	assert.NotContains(t, out.String(), "secret1")
}

func TestUserAdd_FromPipe(t *testing.T) {
	acc := &fakeAccounts{}
	a, _ := newTestApp(acc, "secret1\nsecret2", &fakeTerm{})

	require.NoError(t, a.Run(context.Background(), []string{"useradd", "-email=a@x.io"}))
	require.Len(t, acc.registered, 1)
	assert.Equal(t, "secret1", acc.registered[0].Password)
	assert.Equal(t, "secret2", acc.registered[0].ConfirmPassword)
}

func TestUserAdd_Errors(t *testing.T) {
	a, _ := newTestApp(&fakeAccounts{}, "", &fakeTerm{tty: true, err: errors.New("not a tty")})
	assert.ErrorContains(t, a.Run(context.Background(), []string{"useradd", "-email", "a@x.io"}), "read password")

	a, _ = newTestApp(&fakeAccounts{}, "only-one\n", &fakeTerm{})
	assert.ErrorContains(t, a.Run(context.Background(), []string{"useradd", "-email", "a@x.io"}), "read password")

	a, _ = newTestApp(&fakeAccounts{err: common.ErrDuplicateEmail}, "secret1\nsecret1\n", &fakeTerm{})
	assert.ErrorIs(t, a.Run(context.Background(), []string{"useradd", "-email", "a@x.io"}), common.ErrDuplicateEmail)
}

func TestUserDel(t *testing.T) {
	acc := &fakeAccounts{users: map[string]*models.User{"a@x.io": {ID: 7, Email: "a@x.io"}}}
	a, out := newTestApp(acc, "", &fakeTerm{})

	require.NoError(t, a.Run(context.Background(), []string{"userdel", "-email", "a@x.io"}))
	assert.Equal(t, []int64{7}, acc.deleted)
	assert.Contains(t, out.String(), "Deleted user 7")

	err := a.Run(context.Background(), []string{"userdel", "-email", "ghost@x.io"})
	assert.ErrorIs(t, err, common.ErrorNotFound)

	acc.err = common.ErrorInternal
	assert.ErrorIs(t, a.Run(context.Background(), []string{"userdel", "-email", "a@x.io"}), common.ErrorInternal)
}
