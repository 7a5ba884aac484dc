package httpapi

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

// world is an in-memory stand-in for the three service interfaces.
type world struct {
	mu       sync.Mutex
	users    map[string]*fakeUser
	sessions map[string]int64
	tasks    map[int64]*models.Task
	nextID   int64
	nextTask int64
	nextSess int
	failList error
	deleted  []int64
}

type fakeUser struct {
	id       int64
	password string
}

func newWorld() *world {
	return &world{users: map[string]*fakeUser{}, sessions: map[string]int64{}, tasks: map[int64]*models.Task{}}
}

func (w *world) Register(_ context.Context, in services.RegisterInput) (*models.User, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(in.Password) < 6 {
		return nil, common.NewValidationError("password", "Field must be at least 6 characters long.")
	}
	if _, ok := w.users[in.Email]; ok {
		return nil, common.ErrDuplicateEmail
	}
	w.nextID++
	w.users[in.Email] = &fakeUser{id: w.nextID, password: in.Password}
	return &models.User{ID: w.nextID, Email: in.Email}, nil
}

func (w *world) Login(_ context.Context, in services.LoginInput) (*services.LoginResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	u, ok := w.users[in.Email]
	if !ok || u.password != in.Password {
		return nil, common.ErrInvalidCredentials
	}
	w.nextSess++
	token := fmt.Sprintf("tok-%d-%d", u.id, w.nextSess)
	w.sessions[token] = u.id
	ttl := time.Hour
	if in.Remember {
		ttl = 30 * 24 * time.Hour
	}
	now := time.Now()
	return &services.LoginResult{
		User:    &models.User{ID: u.id, Email: in.Email},
		Session: &auth.Session{Token: token, UserID: u.id, Remember: in.Remember, IssuedAt: now, ExpiresAt: now.Add(ttl)},
	}, nil
}

func (w *world) Logout(_ context.Context, token string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	delete(w.sessions, token)
	return nil
}

func (w *world) DeleteAccount(_ context.Context, userID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.deleted = append(w.deleted, userID)
	for id, t := range w.tasks {
		if t.UserID == userID {
			delete(w.tasks, id)
		}
	}
	return nil
}

func (w *world) Authenticate(_ context.Context, token string) (services.Principal, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	id, ok := w.sessions[token]
	if !ok {
		return services.Principal{}, common.ErrUnauthenticated
	}
	return services.Principal{UserID: id}, nil
}

func (w *world) AuthorizeTask(_ context.Context, p services.Principal, taskID int64) (*models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tasks[taskID]
	if !ok {
		return nil, common.ErrorNotFound
	}
	if t.UserID != p.UserID {
		return nil, common.ErrForbidden
	}
	return t, nil
}

func (w *world) List(_ context.Context, userID int64) ([]*models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failList != nil {
		return nil, w.failList
	}
	out := []*models.Task{}
	for id := int64(1); id <= w.nextTask; id++ {
		if t, ok := w.tasks[id]; ok && t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (w *world) Add(_ context.Context, userID int64, content string) (*models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if content == "" {
		return nil, common.NewValidationError("content", "This field is required.")
	}
	w.nextTask++
	t := &models.Task{ID: w.nextTask, UserID: userID, Content: content, CreatedAt: time.Now()}
	w.tasks[t.ID] = t
	return t, nil
}

func (w *world) Toggle(_ context.Context, userID, taskID int64) (*models.Task, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tasks[taskID]
	if !ok || t.UserID != userID {
		return nil, common.ErrorNotFound
	}
	t.Completed = !t.Completed
	return t, nil
}

func (w *world) Delete(_ context.Context, userID, taskID int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	t, ok := w.tasks[taskID]
	if !ok || t.UserID != userID {
		return common.ErrorNotFound
	}
	delete(w.tasks, taskID)
	return nil
}
