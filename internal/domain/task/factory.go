package task

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type NewTaskParams struct {
	OwnerID     string
	Title       string
	Description string
	DueDate     *time.Time
	Priority    Priority
	Status      Status
}

// New applies the defaults (medium priority, pending status) and trims text fields.
func New(p NewTaskParams) Task {
	now := time.Now().UTC()

	priority := p.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	status := p.Status
	if status == "" {
		status = StatusPending
	}

	return Task{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(p.Title),
		Description: strings.TrimSpace(p.Description),
		DueDate:     p.DueDate,
		Priority:    priority,
		Status:      status,
		OwnerID:     p.OwnerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}
