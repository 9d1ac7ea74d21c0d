package mongorepo

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/geocoder89/todohub/internal/domain/task"
	"github.com/geocoder89/todohub/internal/observability"
)

type taskDoc struct {
	ID          string     `bson:"_id"`
	OwnerID     string     `bson:"owner_id"`
	Title       string     `bson:"title"`
	Description string     `bson:"description"`
	DueDate     *time.Time `bson:"due_date,omitempty"`
	Priority    string     `bson:"priority"`
	Status      string     `bson:"status"`
	CreatedAt   time.Time  `bson:"created_at"`
	UpdatedAt   time.Time  `bson:"updated_at"`
}

func fromTask(t task.Task) taskDoc {
	return taskDoc{
		ID:          t.ID,
		OwnerID:     t.OwnerID,
		Title:       t.Title,
		Description: t.Description,
		DueDate:     t.DueDate,
		Priority:    string(t.Priority),
		Status:      string(t.Status),
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
}

func (d taskDoc) toDomain() task.Task {
	t := task.Task{
		ID:          d.ID,
		OwnerID:     d.OwnerID,
		Title:       d.Title,
		Description: d.Description,
		Priority:    task.Priority(d.Priority),
		Status:      task.Status(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.DueDate != nil {
		due := d.DueDate.UTC()
		t.DueDate = &due
	}
	return t
}

type TasksRepo struct {
	coll *mongo.Collection
	prom *observability.Prom
}

func NewTasksRepo(db *mongo.Database, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{coll: db.Collection(tasksCollection), prom: prom}
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) (task.Task, error) {
	err := r.prom.ObserveDB("tasks.create", func() error {
		_, e := r.coll.InsertOne(ctx, fromTask(t))
		return e
	})
	if err != nil {
		return task.Task{}, err
	}

	return t, nil
}

func listFilter(ownerID string, f task.ListFilter) bson.M {
	filter := bson.M{"owner_id": ownerID}
	if f.Status != nil {
		filter["status"] = string(*f.Status)
	}
	if f.Priority != nil {
		filter["priority"] = string(*f.Priority)
	}
	return filter
}

func (r *TasksRepo) ListByOwner(ctx context.Context, ownerID string, f task.ListFilter) ([]task.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})

	var docs []taskDoc

	err := r.prom.ObserveDB("tasks.list_by_owner", func() error {
		cursor, err := r.coll.Find(ctx, listFilter(ownerID, f), opts)
		if err != nil {
			return err
		}
		defer cursor.Close(ctx)

		return cursor.All(ctx, &docs)
	})
	if err != nil {
		return nil, err
	}

	out := make([]task.Task, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toDomain())
	}

	return out, nil
}

func (r *TasksRepo) GetByID(ctx context.Context, ownerID, id string) (task.Task, error) {
	var doc taskDoc

	err := r.prom.ObserveDB("tasks.get_by_id", func() error {
		e := r.coll.FindOne(ctx, bson.M{"_id": id, "owner_id": ownerID}).Decode(&doc)
		if errors.Is(e, mongo.ErrNoDocuments) {
			return nil
		}
		return e
	})
	if err != nil {
		return task.Task{}, err
	}
	if doc.ID == "" {
		return task.Task{}, task.ErrNotFound
	}

	return doc.toDomain(), nil
}

// updateDoc turns a patch into $set/$unset operators.
func updateDoc(p task.Patch, now time.Time) bson.M {
	set := bson.M{"updated_at": now}

	if p.Title != nil {
		set["title"] = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		set["description"] = strings.TrimSpace(*p.Description)
	}
	if p.Priority != nil {
		set["priority"] = string(*p.Priority)
	}
	if p.Status != nil {
		set["status"] = string(*p.Status)
	}

	update := bson.M{}
	if p.ClearDueDate {
		update["$unset"] = bson.M{"due_date": ""}
	} else if p.DueDate != nil {
		set["due_date"] = *p.DueDate
	}
	update["$set"] = set

	return update
}

func (r *TasksRepo) Update(ctx context.Context, ownerID, id string, p task.Patch) (task.Task, error) {
	var doc taskDoc

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	err := r.prom.ObserveDB("tasks.update", func() error {
		e := r.coll.FindOneAndUpdate(ctx,
			bson.M{"_id": id, "owner_id": ownerID},
			updateDoc(p, time.Now().UTC()),
			opts,
		).Decode(&doc)
		if errors.Is(e, mongo.ErrNoDocuments) {
			return nil
		}
		return e
	})
	if err != nil {
		return task.Task{}, err
	}
	if doc.ID == "" {
		return task.Task{}, task.ErrNotFound
	}

	return doc.toDomain(), nil
}

func (r *TasksRepo) Delete(ctx context.Context, ownerID, id string) error {
	var deleted int64

	err := r.prom.ObserveDB("tasks.delete", func() error {
		res, e := r.coll.DeleteOne(ctx, bson.M{"_id": id, "owner_id": ownerID})
		if e != nil {
			return e
		}
		deleted = res.DeletedCount
		return nil
	})
	if err != nil {
		return err
	}

	if deleted == 0 {
		return task.ErrNotFound
	}

	return nil
}
