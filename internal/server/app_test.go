package server

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/gophtodo/internal/cryptox"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/config"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	c := &config.Config{}
	c.LoadDefaults()
	c.PasswordAlgorithm = cryptox.AlgorithmArgon2id
	c.Argon2Memory = 1024
	c.Argon2Iterations = 1
	c.Argon2Threads = 1
	return c
}

func TestNewStack(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	st, err := NewStack(testConfig(), db, repomanager.NewPostgresRepositoryManager(), logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, st.Users)
	assert.NotNil(t, st.Tasks)
	assert.NotNil(t, st.Guard)
	assert.NotNil(t, st.Revoked)
	assert.Nil(t, st.redis)
	assert.NoError(t, st.Close())
}

func TestNewStack_Redis(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := testConfig()
	c.RedisURL = "redis://localhost:6379/0"
	st, err := NewStack(c, db, repomanager.NewPostgresRepositoryManager(), logging.Nop())
	require.NoError(t, err)
	assert.NotNil(t, st.redis)
	assert.NoError(t, st.Close())

	c.RedisURL = "://bad"
	_, err = NewStack(c, db, repomanager.NewPostgresRepositoryManager(), logging.Nop())
	assert.Error(t, err)
}

func TestNewStack_BadSettings(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	c := testConfig()
	c.PasswordAlgorithm = "md5"
	_, err = NewStack(c, db, repomanager.NewPostgresRepositoryManager(), logging.Nop())
	assert.ErrorIs(t, err, cryptox.ErrUnknownAlgorithm)

	c = testConfig()
	c.SecretKey = ""
	_, err = NewStack(c, db, repomanager.NewPostgresRepositoryManager(), logging.Nop())
	assert.Error(t, err)
}
