package repository

import (
	"context"
	"time"

	"github.com/oksasatya/taskhive/internal/domain/entity"
)

// TaskRepository owns TASK#{tabId}#{taskId} items.
type TaskRepository interface {
	Put(ctx context.Context, t *entity.Task) error
	Get(ctx context.Context, userID string, key entity.TaskKey) (*entity.Task, error)
	ListByTab(ctx context.Context, userID, tabID string) ([]entity.Task, error)
	// Update applies patch and bumps updatedAt; ErrNotFound if the task is absent.
	Update(ctx context.Context, userID string, key entity.TaskKey, patch entity.TaskPatch, now time.Time) (*entity.Task, error)
	// Delete succeeds whether or not the item existed.
	Delete(ctx context.Context, userID string, key entity.TaskKey) error
	// DeleteMany is a best-effort batch delete.
	DeleteMany(ctx context.Context, userID string, keys []entity.TaskKey) error
}
