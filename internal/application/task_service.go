package application

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
	repo "github.com/oksasatya/taskhive/internal/domain/repository"
)

// TaskService is the CRUD surface over a user's tasks. Tab existence is not
// checked when adding.
type TaskService struct {
	Repo   repo.TaskRepository
	Clock  clockwork.Clock
	Logger *logrus.Logger
	Events ActivityPublisher
	NewID  func() string
}

func NewTaskService(r repo.TaskRepository, clock clockwork.Clock, logger *logrus.Logger, events ActivityPublisher) *TaskService {
	if events == nil {
		events = NopPublisher{}
	}
	return &TaskService{
		Repo:   r,
		Clock:  orRealClock(clock),
		Logger: orNopLogger(logger),
		Events: events,
		NewID:  uuid.NewString,
	}
}

func requireTabID(tabID string) error {
	if !validTabID(tabID) {
		return apperror.New(apperror.KindInvalidInput, "a valid tabId is required")
	}
	return nil
}

func requireKey(tabID, taskID string) error {
	if err := requireTabID(tabID); err != nil {
		return err
	}
	if taskID == "" {
		return apperror.New(apperror.KindInvalidInput, "taskId is required")
	}
	return nil
}

// Add creates an incomplete task with a fresh id in tabID.
func (s *TaskService) Add(ctx context.Context, userID, tabID, text, description string) (*entity.Task, error) {
	if err := requireTabID(tabID); err != nil {
		return nil, err
	}
	if strings.TrimSpace(text) == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "text is required")
	}
	now := utcNow(s.Clock)
	t := &entity.Task{
		UserID:      userID,
		TabID:       tabID,
		TaskID:      s.NewID(),
		Text:        text,
		Description: description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.Repo.Put(ctx, t); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID}).Error("put task failed")
		return nil, apperror.StoreUnavailable("add task", err)
	}
	s.Logger.WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID, "task_id": t.TaskID}).Info("task added")
	emit(ctx, s.Events, s.Logger, ActivityEvent{Type: TaskCreated, UserID: userID, TabID: tabID, TaskID: t.TaskID, Task: t, OccurredAt: now})
	return t, nil
}

func (s *TaskService) Get(ctx context.Context, userID, tabID, taskID string) (*entity.Task, error) {
	if err := requireKey(tabID, taskID); err != nil {
		return nil, err
	}
	t, err := s.Repo.Get(ctx, userID, entity.TaskKey{TabID: tabID, TaskID: taskID})
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.New(apperror.KindNotFound, "task not found")
	}
	if err != nil {
		return nil, apperror.StoreUnavailable("get task", err)
	}
	return t, nil
}

// ListByTab returns every task of tabID, all result pages included.
func (s *TaskService) ListByTab(ctx context.Context, userID, tabID string) ([]entity.Task, error) {
	if err := requireTabID(tabID); err != nil {
		return nil, err
	}
	tasks, err := s.Repo.ListByTab(ctx, userID, tabID)
	if err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID}).Error("list tasks failed")
		return nil, apperror.StoreUnavailable("list tasks", err)
	}
	if tasks == nil {
		tasks = []entity.Task{}
	}
	return tasks, nil
}

// Update applies patch to an existing task and bumps updatedAt. An empty
// patch still bumps the timestamp.
func (s *TaskService) Update(ctx context.Context, userID, tabID, taskID string, patch entity.TaskPatch) (*entity.Task, error) {
	if err := requireKey(tabID, taskID); err != nil {
		return nil, err
	}
	if patch.Text != nil && strings.TrimSpace(*patch.Text) == "" {
		return nil, apperror.New(apperror.KindInvalidInput, "text must not be blank")
	}
	log := s.Logger.WithFields(logrus.Fields{"user_id": userID, "tab_id": tabID, "task_id": taskID})
	if patch.Empty() {
		log.Warn("task update without content fields")
	}

	now := utcNow(s.Clock)
	t, err := s.Repo.Update(ctx, userID, entity.TaskKey{TabID: tabID, TaskID: taskID}, patch, now)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, apperror.New(apperror.KindNotFound, "task not found")
	}
	if err != nil {
		log.WithError(err).Error("update task failed")
		return nil, apperror.StoreUnavailable("update task", err)
	}
	log.Info("task updated")
	emit(ctx, s.Events, s.Logger, ActivityEvent{Type: TaskUpdated, UserID: userID, TabID: tabID, TaskID: taskID, Task: t, OccurredAt: now})
	return t, nil
}

// Delete removes a task. Deleting an absent task also reports true.
func (s *TaskService) Delete(ctx context.Context, userID, tabID, taskID string) (bool, error) {
	if err := requireKey(tabID, taskID); err != nil {
		return false, err
	}
	if err := s.Repo.Delete(ctx, userID, entity.TaskKey{TabID: tabID, TaskID: taskID}); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "task_id": taskID}).Error("delete task failed")
		return false, apperror.StoreUnavailable("delete task", err)
	}
	emit(ctx, s.Events, s.Logger, ActivityEvent{Type: TaskDeleted, UserID: userID, TabID: tabID, TaskID: taskID, OccurredAt: utcNow(s.Clock)})
	return true, nil
}

// DeleteBatch removes keys without emitting per-task events.
func (s *TaskService) DeleteBatch(ctx context.Context, userID string, keys []entity.TaskKey) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.Repo.DeleteMany(ctx, userID, keys); err != nil {
		s.Logger.WithError(err).WithFields(logrus.Fields{"user_id": userID, "count": len(keys)}).Error("batch delete failed")
		return apperror.StoreUnavailable("delete tasks", err)
	}
	return nil
}
