package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geocoder89/todohub/internal/domain/task"
	"github.com/geocoder89/todohub/internal/repo/memory"
)

func ptr[T any](v T) *T { return &v }

func TestTaskService_CreateDefaultsAndValidation(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())
	ctx := context.Background()

	tk, err := svc.Create(ctx, "alice", CreateTaskInput{Title: "  Buy milk  "})
	require.NoError(t, err)
	assert.Equal(t, "Buy milk", tk.Title)
	assert.Equal(t, task.PriorityMedium, tk.Priority)
	assert.Equal(t, task.StatusPending, tk.Status)
	assert.Equal(t, "alice", tk.OwnerID)

	tests := []struct {
		name string
		in   CreateTaskInput
		code string
	}{
		{name: "blank title", in: CreateTaskInput{Title: "  "}, code: CodeTitleRequired},
		{name: "bad priority", in: CreateTaskInput{Title: "x", Priority: "urgent"}, code: CodeInvalidPriority},
		{name: "bad status", in: CreateTaskInput{Title: "x", Status: "done"}, code: CodeInvalidStatus},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, "alice", tt.in)
			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.code, ve.Code)
		})
	}
}

func TestTaskService_RequiresOwner(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "", CreateTaskInput{Title: "x"})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = svc.List(ctx, "", ListTasksInput{})
	assert.ErrorIs(t, err, ErrUnauthenticated)

	assert.ErrorIs(t, svc.Delete(ctx, "", uuid.NewString()), ErrUnauthenticated)
}

// alice creates "Buy milk"; bob can neither see, read, update nor delete it.
func TestTaskService_CrossUserIsolation(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())
	ctx := context.Background()

	milk, err := svc.Create(ctx, "alice", CreateTaskInput{Title: "Buy milk", Priority: "high"})
	require.NoError(t, err)

	bobs, err := svc.List(ctx, "bob", ListTasksInput{})
	require.NoError(t, err)
	assert.Empty(t, bobs)

	_, err = svc.Get(ctx, "bob", milk.ID)
	assert.ErrorIs(t, err, task.ErrNotFound)

	_, err = svc.Update(ctx, "bob", milk.ID, UpdateTaskInput{Status: ptr("completed")})
	assert.ErrorIs(t, err, task.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, "bob", milk.ID), task.ErrNotFound)

	got, err := svc.Get(ctx, "alice", milk.ID)
	require.NoError(t, err)
	assert.Equal(t, task.StatusPending, got.Status)
}

func TestTaskService_NonUUIDIsNotFound(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())

	_, err := svc.Get(context.Background(), "alice", "not-a-uuid")
	assert.ErrorIs(t, err, task.ErrNotFound)
}

func TestTaskService_ListFilters(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())
	ctx := context.Background()

	_, err := svc.Create(ctx, "alice", CreateTaskInput{Title: "a", Priority: "low"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, "alice", CreateTaskInput{Title: "b", Priority: "high", Status: "in-progress"})
	require.NoError(t, err)

	items, err := svc.List(ctx, "alice", ListTasksInput{Priority: "HIGH"})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "b", items[0].Title)

	items, err = svc.List(ctx, "alice", ListTasksInput{Status: "in-progress"})
	require.NoError(t, err)
	require.Len(t, items, 1)

	_, err = svc.List(ctx, "alice", ListTasksInput{Status: "whatever"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestTaskService_Update(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())
	ctx := context.Background()

	due := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	tk, err := svc.Create(ctx, "alice", CreateTaskInput{Title: "a", DueDate: &due})
	require.NoError(t, err)

	_, err = svc.Update(ctx, "alice", tk.ID, UpdateTaskInput{Title: ptr(" ")})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.Update(ctx, "alice", tk.ID, UpdateTaskInput{Status: ptr("completed"), ClearDueDate: true})
	require.NoError(t, err)
	assert.Equal(t, task.StatusCompleted, updated.Status)
	assert.Nil(t, updated.DueDate)
	assert.Equal(t, "alice", updated.OwnerID)

	same, err := svc.Update(ctx, "alice", tk.ID, UpdateTaskInput{})
	require.NoError(t, err)
	assert.Equal(t, updated.Status, same.Status)
}

type brokenTasks struct {
	*memory.TasksRepo
}

func (brokenTasks) GetByID(context.Context, string, string) (task.Task, error) {
	return task.Task{}, errors.New("db gone")
}

func TestTaskService_StoreErrorsAreInternal(t *testing.T) {
	svc := NewTaskService(brokenTasks{memory.NewTasksRepo()})

	_, err := svc.Get(context.Background(), "alice", uuid.NewString())
	assert.ErrorIs(t, err, ErrInternal)
	assert.NotErrorIs(t, err, task.ErrNotFound)
}

func TestTaskService_Delete(t *testing.T) {
	svc := NewTaskService(memory.NewTasksRepo())
	ctx := context.Background()

	tk, err := svc.Create(ctx, "alice", CreateTaskInput{Title: "a"})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, "alice", tk.ID))
	assert.ErrorIs(t, svc.Delete(ctx, "alice", tk.ID), task.ErrNotFound)
}
