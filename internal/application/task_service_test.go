package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
)

func strPtr(s string) *string { return &s }
func boolPtr(b bool) *bool    { return &b }

func TestTaskService_AddAndGet(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	task, err := f.tasks.Add(ctx, "u1", "work", "Write report", "")
	require.NoError(t, err)
	assert.NotEmpty(t, task.TaskID)
	assert.False(t, task.Completed)
	assert.Equal(t, t0, task.CreatedAt)
	assert.Equal(t, task.CreatedAt, task.UpdatedAt)

	got, err := f.tasks.Get(ctx, "u1", "work", task.TaskID)
	require.NoError(t, err)
	assert.Equal(t, task, got)
	assert.Equal(t, []ActivityType{TaskCreated}, f.events.types())
}

func TestTaskService_AddValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tasks.Add(ctx, "u1", "", "text", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = f.tasks.Add(ctx, "u1", "work", "  ", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	_, err = f.tasks.Add(ctx, "u1", "a#b", "text", "")
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
	assert.Empty(t, f.events.types())
}

func TestTaskService_AddStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.tasks.Repo = &flakyTasks{
		TaskRepository: f.store.Tasks(),
		put:            func(context.Context, *entity.Task) error { return errStoreIO },
	}
	_, err := f.tasks.Add(context.Background(), "u1", "work", "text", "")
	assert.ErrorIs(t, err, apperror.ErrStoreUnavailable)
	assert.Empty(t, f.events.types())
}

func TestTaskService_PublishFailureDoesNotFail(t *testing.T) {
	f := newFixture(t)
	f.events.err = errStoreIO
	_, err := f.tasks.Add(context.Background(), "u1", "work", "text", "")
	assert.NoError(t, err)
}

func TestTaskService_GetMissing(t *testing.T) {
	f := newFixture(t)
	_, err := f.tasks.Get(context.Background(), "u1", "work", "nope")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTaskService_ListByTabIsScoped(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, tab := range []string{"work", "work", "workshop", "home"} {
		_, err := f.tasks.Add(ctx, "u1", tab, "t", "")
		require.NoError(t, err)
	}
	_, err := f.tasks.Add(ctx, "u2", "work", "other user", "")
	require.NoError(t, err)

	tasks, err := f.tasks.ListByTab(ctx, "u1", "work")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
	for _, task := range tasks {
		assert.Equal(t, "u1", task.UserID)
		assert.Equal(t, "work", task.TabID)
	}

	empty, err := f.tasks.ListByTab(ctx, "u1", "nothing-here")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestTaskService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.tasks.Add(ctx, "u1", "work", "draft", "d")
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	got, err := f.tasks.Update(ctx, "u1", "work", task.TaskID, entity.TaskPatch{Completed: boolPtr(true)})
	require.NoError(t, err)
	assert.True(t, got.Completed)
	assert.Equal(t, "draft", got.Text)
	assert.Equal(t, "d", got.Description)
	assert.Equal(t, t0, got.CreatedAt)
	assert.Equal(t, t0.Add(time.Hour), got.UpdatedAt)

	got, err = f.tasks.Update(ctx, "u1", "work", task.TaskID, entity.TaskPatch{Text: strPtr("final"), Description: strPtr("")})
	require.NoError(t, err)
	assert.Equal(t, "final", got.Text)
	assert.Equal(t, "", got.Description)
	assert.True(t, got.Completed)

	assert.Equal(t, []ActivityType{TaskCreated, TaskUpdated, TaskUpdated}, f.events.types())
}

func TestTaskService_UpdateEmptyPatchBumpsTimestamp(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.tasks.Add(ctx, "u1", "work", "draft", "")
	require.NoError(t, err)

	f.clock.Advance(time.Minute)
	got, err := f.tasks.Update(ctx, "u1", "work", task.TaskID, entity.TaskPatch{})
	require.NoError(t, err)
	assert.Equal(t, t0.Add(time.Minute), got.UpdatedAt)
}

func TestTaskService_UpdateErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tasks.Update(ctx, "u1", "work", "missing", entity.TaskPatch{Completed: boolPtr(true)})
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	_, err = f.tasks.Update(ctx, "u1", "work", "any", entity.TaskPatch{Text: strPtr(" ")})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)

	// a missing task is never created by an update
	_, err = f.tasks.Get(ctx, "u1", "work", "missing")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestTaskService_DeleteIsIdempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task, err := f.tasks.Add(ctx, "u1", "work", "x", "")
	require.NoError(t, err)

	ok, err := f.tasks.Delete(ctx, "u1", "work", task.TaskID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.tasks.Delete(ctx, "u1", "work", task.TaskID)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = f.tasks.Get(ctx, "u1", "work", task.TaskID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}
