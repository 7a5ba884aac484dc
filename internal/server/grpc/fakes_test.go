package grpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/server/auth"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/services"
)

// fakeBackend implements Accounts, Tasks and Authorizer in memory.
type fakeBackend struct {
	mu       sync.Mutex
	users    map[string]int64
	sessions map[string]int64
	tasks    map[int64]*models.Task
	nextID   int64
	nextTask int64
	nextSess int
	addErr   error
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{users: map[string]int64{}, sessions: map[string]int64{}, tasks: map[int64]*models.Task{}}
}

func (f *fakeBackend) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if in.Password != in.ConfirmPassword {
		return nil, common.NewValidationError("confirm_password", "Passwords must match")
	}
	if _, ok := f.users[in.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	f.nextID++
	f.users[in.Email] = f.nextID
	return &models.User{ID: f.nextID, Email: in.Email}, nil
}

func (f *fakeBackend) Login(_ context.Context, in services.LoginInput) (*services.LoginResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.users[in.Email]
	if !ok || in.Password != "secret1" {
		return nil, common.ErrInvalidCredentials
	}
	f.nextSess++
	token := fmt.Sprintf("tok-%d", f.nextSess)
	f.sessions[token] = uid
	return &services.LoginResult{
		User:    &models.User{ID: uid, Email: in.Email},
		Session: &auth.Session{Token: token, UserID: uid, Remember: in.Remember, ExpiresAt: time.Now().Add(time.Hour)},
	}, nil
}

func (f *fakeBackend) Logout(_ context.Context, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.sessions, token)
	return nil
}

func (f *fakeBackend) DeleteAccount(_ context.Context, userID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for email, id := range f.users {
		if id == userID {
			delete(f.users, email)
		}
	}
	return nil
}

func (f *fakeBackend) Authenticate(_ context.Context, token string) (services.Principal, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	uid, ok := f.sessions[token]
	if !ok {
		return services.Principal{}, common.ErrUnauthenticated
	}
	return services.Principal{UserID: uid}, nil
}

func (f *fakeBackend) AuthorizeTask(_ context.Context, p services.Principal, taskID int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if t.UserID != p.UserID {
		return nil, common.ErrForbidden
	}
	return t, nil
}

func (f *fakeBackend) List(_ context.Context, userID int64) ([]*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []*models.Task{}
	for id := int64(1); id <= f.nextTask; id++ {
		if t, ok := f.tasks[id]; ok && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeBackend) Add(_ context.Context, userID int64, content string) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.addErr != nil {
		return nil, f.addErr
	}
	f.nextTask++
	t := &models.Task{ID: f.nextTask, UserID: userID, Content: content, CreatedAt: time.Now()}
	f.tasks[t.ID] = t
	return t, nil
}

func (f *fakeBackend) Toggle(_ context.Context, userID, taskID int64) (*models.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	t.Completed = !t.Completed
	return t, nil
}

func (f *fakeBackend) Delete(_ context.Context, userID, taskID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[taskID]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(f.tasks, taskID)
	return nil
}
