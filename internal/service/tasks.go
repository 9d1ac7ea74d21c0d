package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/geocoder89/todohub/internal/domain/task"
	"github.com/geocoder89/todohub/internal/utils"
)

// TaskStore scopes every call by owner. Implementations must put the owner
// check in the query itself and report foreign rows as task.ErrNotFound.
type TaskStore interface {
	Create(ctx context.Context, t task.Task) (task.Task, error)
	ListByOwner(ctx context.Context, ownerID string, f task.ListFilter) ([]task.Task, error)
	GetByID(ctx context.Context, ownerID, id string) (task.Task, error)
	Update(ctx context.Context, ownerID, id string, p task.Patch) (task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type CreateTaskInput struct {
	Title       string
	Description string
	DueDate     *time.Time
	Priority    string
	Status      string
}

// UpdateTaskInput: nil means leave unchanged.
type UpdateTaskInput struct {
	Title        *string
	Description  *string
	DueDate      *time.Time
	ClearDueDate bool
	Priority     *string
	Status       *string
}

type ListTasksInput struct {
	Status   string
	Priority string
}

type TaskService struct {
	tasks  TaskStore
	tracer trace.Tracer
}

func NewTaskService(tasks TaskStore) *TaskService {
	return &TaskService{
		tasks:  tasks,
		tracer: otel.Tracer("todohub/service"),
	}
}

func parsePriority(v string) (task.Priority, error) {
	p := task.Priority(strings.ToLower(strings.TrimSpace(v)))
	if !p.IsValid() {
		return "", invalid(CodeInvalidPriority, "priority", "Priority must be one of low, medium, high")
	}
	return p, nil
}

func parseStatus(v string) (task.Status, error) {
	s := task.Status(strings.ToLower(strings.TrimSpace(v)))
	if !s.IsValid() {
		return "", invalid(CodeInvalidStatus, "status", "Status must be one of pending, in-progress, completed")
	}
	return s, nil
}

func (s *TaskService) Create(ctx context.Context, ownerID string, in CreateTaskInput) (task.Task, error) {
	if ownerID == "" {
		return task.Task{}, ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "TaskService.Create")
	defer span.End()

	if strings.TrimSpace(in.Title) == "" {
		return task.Task{}, invalid(CodeTitleRequired, "title", "Title is required")
	}

	params := task.NewTaskParams{
		OwnerID:     ownerID,
		Title:       in.Title,
		Description: in.Description,
		DueDate:     in.DueDate,
	}

	if in.Priority != "" {
		p, err := parsePriority(in.Priority)
		if err != nil {
			return task.Task{}, err
		}
		params.Priority = p
	}

	if in.Status != "" {
		st, err := parseStatus(in.Status)
		if err != nil {
			return task.Task{}, err
		}
		params.Status = st
	}

	t, err := s.tasks.Create(ctx, task.New(params))
	if err != nil {
		return task.Task{}, internal("create task", err)
	}

	span.SetAttributes(attribute.String("task.id", t.ID))

	return t, nil
}

func (s *TaskService) List(ctx context.Context, ownerID string, in ListTasksInput) ([]task.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthenticated
	}

	ctx, span := s.tracer.Start(ctx, "TaskService.List")
	defer span.End()

	var f task.ListFilter

	if in.Status != "" {
		st, err := parseStatus(in.Status)
		if err != nil {
			return nil, err
		}
		f.Status = &st
	}

	if in.Priority != "" {
		p, err := parsePriority(in.Priority)
		if err != nil {
			return nil, err
		}
		f.Priority = &p
	}

	items, err := s.tasks.ListByOwner(ctx, ownerID, f)
	if err != nil {
		return nil, internal("list tasks", err)
	}

	span.SetAttributes(attribute.Int("task.count", len(items)))

	return items, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id string) (task.Task, error) {
	if ownerID == "" {
		return task.Task{}, ErrUnauthenticated
	}
	if !utils.IsUUID(id) {
		return task.Task{}, task.ErrNotFound
	}

	ctx, span := s.tracer.Start(ctx, "TaskService.Get")
	defer span.End()

	t, err := s.tasks.GetByID(ctx, ownerID, id)
	if err != nil {
		return task.Task{}, storeErr("get task", err)
	}

	return t, nil
}

func (s *TaskService) Update(ctx context.Context, ownerID, id string, in UpdateTaskInput) (task.Task, error) {
	if ownerID == "" {
		return task.Task{}, ErrUnauthenticated
	}
	if !utils.IsUUID(id) {
		return task.Task{}, task.ErrNotFound
	}

	ctx, span := s.tracer.Start(ctx, "TaskService.Update")
	defer span.End()

	patch := task.Patch{
		Title:        in.Title,
		Description:  in.Description,
		DueDate:      in.DueDate,
		ClearDueDate: in.ClearDueDate,
	}

	if in.Title != nil && strings.TrimSpace(*in.Title) == "" {
		return task.Task{}, invalid(CodeTitleRequired, "title", "Title is required")
	}

	if in.Priority != nil {
		p, err := parsePriority(*in.Priority)
		if err != nil {
			return task.Task{}, err
		}
		patch.Priority = &p
	}

	if in.Status != nil {
		st, err := parseStatus(*in.Status)
		if err != nil {
			return task.Task{}, err
		}
		patch.Status = &st
	}

	var (
		t   task.Task
		err error
	)

	if patch.Empty() {
		t, err = s.tasks.GetByID(ctx, ownerID, id)
	} else {
		t, err = s.tasks.Update(ctx, ownerID, id, patch)
	}

	if err != nil {
		return task.Task{}, storeErr("update task", err)
	}

	return t, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthenticated
	}
	if !utils.IsUUID(id) {
		return task.ErrNotFound
	}

	ctx, span := s.tracer.Start(ctx, "TaskService.Delete")
	defer span.End()

	if err := s.tasks.Delete(ctx, ownerID, id); err != nil {
		return storeErr("delete task", err)
	}

	return nil
}

// storeErr passes task.ErrNotFound through untouched.
func storeErr(op string, err error) error {
	if errors.Is(err, task.ErrNotFound) {
		return task.ErrNotFound
	}
	return internal(op, err)
}
