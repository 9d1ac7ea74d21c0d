package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/geocoder89/todohub/internal/domain/task"
)

type TasksRepo struct {
	mu    sync.RWMutex
	items map[string]task.Task
}

func NewTasksRepo() *TasksRepo {
	return &TasksRepo{
		items: make(map[string]task.Task),
	}
}

func (r *TasksRepo) Create(_ context.Context, t task.Task) (task.Task, error) {
	r.mu.Lock()
	r.items[t.ID] = t
	r.mu.Unlock()

	return t, nil
}

func (r *TasksRepo) ListByOwner(_ context.Context, ownerID string, f task.ListFilter) ([]task.Task, error) {
	r.mu.RLock()
	out := make([]task.Task, 0)
	for _, t := range r.items {
		if t.OwnerID == ownerID && f.Matches(t) {
			out = append(out, t)
		}
	}
	r.mu.RUnlock()

	// newest first, id as tie breaker
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})

	return out, nil
}

func (r *TasksRepo) GetByID(_ context.Context, ownerID, id string) (task.Task, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.items[id]
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}

	return t, nil
}

func (r *TasksRepo) Update(_ context.Context, ownerID, id string, p task.Patch) (task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.OwnerID != ownerID {
		return task.Task{}, task.ErrNotFound
	}

	p.Apply(&t, time.Now().UTC())
	r.items[id] = t

	return t, nil
}

func (r *TasksRepo) Delete(_ context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	t, ok := r.items[id]
	if !ok || t.OwnerID != ownerID {
		return task.ErrNotFound
	}

	delete(r.items, id)

	return nil
}
