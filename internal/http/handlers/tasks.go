package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/geocoder89/todohub/internal/domain/task"
	"github.com/geocoder89/todohub/internal/http/middlewares"
	"github.com/geocoder89/todohub/internal/service"
)

type TaskUseCase interface {
	Create(ctx context.Context, ownerID string, in service.CreateTaskInput) (task.Task, error)
	List(ctx context.Context, ownerID string, in service.ListTasksInput) ([]task.Task, error)
	Get(ctx context.Context, ownerID, id string) (task.Task, error)
	Update(ctx context.Context, ownerID, id string, in service.UpdateTaskInput) (task.Task, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type TasksHandler struct {
	tasks TaskUseCase
	log   *slog.Logger
}

func NewTasksHandler(tasks TaskUseCase, log *slog.Logger) *TasksHandler {
	if log == nil {
		log = slog.Default()
	}
	return &TasksHandler{tasks: tasks, log: log}
}

type CreateTaskRequest struct {
	Title       string `json:"title" binding:"max=200"`
	Description string `json:"description" binding:"max=2000"`
	DueDate     string `json:"dueDate"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
}

// UpdateTaskRequest: absent or null fields are left alone. An empty dueDate
// string clears the due date.
type UpdateTaskRequest struct {
	Title       *string `json:"title" binding:"omitempty,max=200"`
	Description *string `json:"description" binding:"omitempty,max=2000"`
	DueDate     *string `json:"dueDate"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
}

type listTasksResponse struct {
	Items []task.Task `json:"items"`
	Count int         `json:"count"`
}

var dueDateLayouts = []string{time.RFC3339, "2006-01-02"}

func parseDueDate(raw string) (*time.Time, bool) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dueDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, true
		}
	}
	return nil, false
}

func respondInvalidDueDate(ctx *gin.Context) {
	RespondError(ctx, http.StatusBadRequest, "invalid_due_date",
		"Due date must be RFC 3339 or YYYY-MM-DD", gin.H{"field": "dueDate"})
}

func (h *TasksHandler) owner(ctx *gin.Context) (string, bool) {
	id, ok := middlewares.UserIDFromContext(ctx)
	if !ok {
		RespondServiceError(ctx, h.log, service.ErrUnauthenticated, nil)
	}
	return id, ok
}

func (h *TasksHandler) CreateTask(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req CreateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	in := service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}

	if strings.TrimSpace(req.DueDate) != "" {
		due, ok := parseDueDate(req.DueDate)
		if !ok {
			respondInvalidDueDate(ctx)
			return
		}
		in.DueDate = due
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Create(cctx, ownerID, in)
	if err != nil {
		RespondServiceError(ctx, h.log, err, nil)
		return
	}

	ctx.Header("Location", "/tasks/"+t.ID)
	ctx.JSON(http.StatusCreated, t)
}

func (h *TasksHandler) ListTasks(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	items, err := h.tasks.List(cctx, ownerID, service.ListTasksInput{
		Status:   ctx.Query("status"),
		Priority: ctx.Query("priority"),
	})
	if err != nil {
		RespondServiceError(ctx, h.log, err, nil)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, listTasksResponse{Items: items, Count: len(items)})
}

func (h *TasksHandler) GetTask(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	t, err := h.tasks.Get(cctx, ownerID, ctx.Param("id"))
	if err != nil {
		RespondServiceError(ctx, h.log, err, nil)
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, t)
}

func (h *TasksHandler) UpdateTask(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	var req UpdateTaskRequest

	if !BindJSON(ctx, &req) {
		return
	}

	in := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		Status:      req.Status,
	}

	if req.DueDate != nil {
		if strings.TrimSpace(*req.DueDate) == "" {
			in.ClearDueDate = true
		} else {
			due, ok := parseDueDate(*req.DueDate)
			if !ok {
				respondInvalidDueDate(ctx)
				return
			}
			in.DueDate = due
		}
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	t, err := h.tasks.Update(cctx, ownerID, ctx.Param("id"), in)
	if err != nil {
		RespondServiceError(ctx, h.log, err, nil)
		return
	}

	ctx.JSON(http.StatusOK, t)
}

func (h *TasksHandler) DeleteTask(ctx *gin.Context) {
	ownerID, ok := h.owner(ctx)
	if !ok {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.tasks.Delete(cctx, ownerID, ctx.Param("id")); err != nil {
		RespondServiceError(ctx, h.log, err, nil)
		return
	}

	ctx.Status(http.StatusNoContent)
}
