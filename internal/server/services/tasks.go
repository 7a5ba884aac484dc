package services

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/gophtodo/internal/common"
	"github.com/dmitrijs2005/gophtodo/internal/logging"
	"github.com/dmitrijs2005/gophtodo/internal/server/models"
	"github.com/dmitrijs2005/gophtodo/internal/server/repositories/repomanager"
)

type addTaskInput struct {
	Content string `json:"content" validate:"required,max=200"`
}

// TaskService manages one user's todo list. Every call is scoped to userID,
// which the caller has already authenticated.
type TaskService struct {
	db    DB
	repos repomanager.RepositoryManager
	log   logging.Logger
}

func NewTaskService(db DB, repos repomanager.RepositoryManager, log logging.Logger) *TaskService {
	return &TaskService{db: db, repos: repos, log: log.With("module", "tasks")}
}

// List returns the user's tasks in creation order.
func (s *TaskService) List(ctx context.Context, userID int64) ([]*models.Task, error) {
	list, err := s.repos.Tasks(s.db).ListByOwner(ctx, userID)
	if err != nil {
		s.log.Error(ctx, "list tasks failed", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}
	return list, nil
}

func (s *TaskService) Add(ctx context.Context, userID int64, content string) (*models.Task, error) {
	in := addTaskInput{Content: strings.TrimSpace(content)}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	t, err := s.repos.Tasks(s.db).Create(ctx, &models.Task{UserID: userID, Content: in.Content})
	if err != nil {
		s.log.Error(ctx, "add task failed", "user_id", userID, "error", err)
		return nil, common.ErrorInternal
	}

	s.log.Debug(ctx, "task added", "user_id", userID, "task_id", t.ID)
	return t, nil
}

// Toggle flips the completed flag of a task owned by userID.
func (s *TaskService) Toggle(ctx context.Context, userID, taskID int64) (*models.Task, error) {
	t, err := s.repos.Tasks(s.db).Toggle(ctx, userID, taskID)
	if err != nil {
		return nil, s.storeError(ctx, "toggle task failed", userID, taskID, err)
	}
	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, userID, taskID int64) error {
	if err := s.repos.Tasks(s.db).Delete(ctx, userID, taskID); err != nil {
		return s.storeError(ctx, "delete task failed", userID, taskID, err)
	}
	s.log.Debug(ctx, "task deleted", "user_id", userID, "task_id", taskID)
	return nil
}

func (s *TaskService) storeError(ctx context.Context, msg string, userID, taskID int64, err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	s.log.Error(ctx, msg, "user_id", userID, "task_id", taskID, "error", err)
	return common.ErrorInternal
}
