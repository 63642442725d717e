package tasks

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"fieldverify/verification-portal-backend/internal/apperrors"
)

const (
	tasksCollection = "tasks"
	edgesCollection = "task_manager"
)

// Repository persists tasks and the delegation-edge ledger.
type Repository interface {
	CreateTask(ctx context.Context, task *Task) error
	FindTask(ctx context.Context, id primitive.ObjectID) (*Task, error)
	FindTasks(ctx context.Context, ids []primitive.ObjectID, filter ListFilter) ([]Task, error)
	UpdateTask(ctx context.Context, id primitive.ObjectID, update bson.M) error
	DeleteTask(ctx context.Context, id primitive.ObjectID) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status TaskStatus, completedAt *time.Time) error
	PauseTasks(ctx context.Context, ids []primitive.ObjectID) error
	AddAttachment(ctx context.Context, id primitive.ObjectID, name string) error
	RemoveAttachment(ctx context.Context, id primitive.ObjectID, name string) error

	CreateEdge(ctx context.Context, edge *DelegationEdge) error
	EdgeByAssignee(ctx context.Context, taskID, accountID primitive.ObjectID) (*DelegationEdge, error)
	EdgeByAssigner(ctx context.Context, taskID, accountID primitive.ObjectID) (*DelegationEdge, error)
	DeleteEdgesBelow(ctx context.Context, taskID primitive.ObjectID, level int) error
	TaskIDsByAssignee(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error)
	TaskIDsByAssigner(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error)
	TaskIDsAssignedToAny(ctx context.Context, accountIDs []primitive.ObjectID) ([]primitive.ObjectID, error)
	DeleteEdgesTouching(ctx context.Context, accountIDs []primitive.ObjectID) error
}

// MongoRepository is the mongo-backed Repository.
type MongoRepository struct {
	tasks *mongo.Collection
	edges *mongo.Collection
}

func NewRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{
		tasks: db.Collection(tasksCollection),
		edges: db.Collection(edgesCollection),
	}
}

// EnsureIndexes creates the two unique edge indexes. The (assignedBy,
// assignedTo, taskId) index keeps the ledger a simple set of edges; the
// (taskId, level) index is the optimistic guard that makes concurrent
// re-assignments against a stale level lose with a duplicate-key error.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	models := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "assignedBy", Value: 1}, {Key: "assignedTo", Value: 1}, {Key: "taskId", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "taskId", Value: 1}, {Key: "level", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "assignedBy", Value: 1}}},
		{Keys: bson.D{{Key: "assignedTo", Value: 1}}},
	}
	if _, err := r.edges.Indexes().CreateMany(ctx, models); err != nil {
		return fmt.Errorf("create edge indexes: %w", err)
	}
	taskModels := []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "dueDate", Value: 1}}},
	}
	if _, err := r.tasks.Indexes().CreateMany(ctx, taskModels); err != nil {
		return fmt.Errorf("create task indexes: %w", err)
	}
	return nil
}

func (r *MongoRepository) CreateTask(ctx context.Context, task *Task) error {
	now := time.Now().UTC()
	task.ID = primitive.NewObjectID()
	task.CreatedAt = now
	task.UpdatedAt = now
	if task.Attachments == nil {
		task.Attachments = []string{}
	}
	if _, err := r.tasks.InsertOne(ctx, task); err != nil {
		return fmt.Errorf("insert task: %w", err)
	}
	return nil
}

func (r *MongoRepository) FindTask(ctx context.Context, id primitive.ObjectID) (*Task, error) {
	var task Task
	err := r.tasks.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("task %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find task: %w", err)
	}
	return &task, nil
}

// FindTasks lists the given tasks, filtered, ordered by due date with high
// priority winning ties.
func (r *MongoRepository) FindTasks(ctx context.Context, ids []primitive.ObjectID, filter ListFilter) ([]Task, error) {
	query := bson.M{"_id": bson.M{"$in": ids}}
	if filter.Priority != nil {
		query["priority"] = *filter.Priority
	}
	if filter.Status != nil {
		query["status"] = *filter.Status
	}
	if filter.DueAfter != nil || filter.DueBefore != nil {
		due := bson.M{}
		if filter.DueAfter != nil {
			due["$gte"] = *filter.DueAfter
		}
		if filter.DueBefore != nil {
			due["$lte"] = *filter.DueBefore
		}
		query["dueDate"] = due
	}
	cursor, err := r.tasks.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "dueDate", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	var tasks []Task
	if err := cursor.All(ctx, &tasks); err != nil {
		return nil, fmt.Errorf("decode tasks: %w", err)
	}
	sort.SliceStable(tasks, func(i, j int) bool {
		di, dj := tasks[i].DueDate.Truncate(24*time.Hour), tasks[j].DueDate.Truncate(24*time.Hour)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return tasks[i].Priority.rank() < tasks[j].Priority.rank()
	})
	return tasks, nil
}

func (r *MongoRepository) UpdateTask(ctx context.Context, id primitive.ObjectID, update bson.M) error {
	update["updatedAt"] = time.Now().UTC()
	res, err := r.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": update})
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) DeleteTask(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.tasks.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	return nil
}

func (r *MongoRepository) SetStatus(ctx context.Context, id primitive.ObjectID, status TaskStatus, completedAt *time.Time) error {
	return r.UpdateTask(ctx, id, bson.M{"status": status, "completedAt": completedAt})
}

// PauseTasks force-pauses the given tasks during a cascading disable.
func (r *MongoRepository) PauseTasks(ctx context.Context, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := r.tasks.UpdateMany(ctx,
		bson.M{"_id": bson.M{"$in": ids}},
		bson.M{"$set": bson.M{"status": StatusPaused, "completedAt": nil, "updatedAt": time.Now().UTC()}},
	)
	if err != nil {
		return fmt.Errorf("pause tasks: %w", err)
	}
	return nil
}

func (r *MongoRepository) AddAttachment(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := r.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$addToSet": bson.M{"attachments": name},
		"$set":      bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("add attachment: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

func (r *MongoRepository) RemoveAttachment(ctx context.Context, id primitive.ObjectID, name string) error {
	res, err := r.tasks.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$pull": bson.M{"attachments": name},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	})
	if err != nil {
		return fmt.Errorf("remove attachment: %w", err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("task %s: %w", id.Hex(), apperrors.ErrNotFound)
	}
	return nil
}

// CreateEdge appends one delegation edge. A duplicate on either unique index
// surfaces as ErrConflict: the same triple already exists, or another writer
// took the level first.
func (r *MongoRepository) CreateEdge(ctx context.Context, edge *DelegationEdge) error {
	edge.ID = primitive.NewObjectID()
	edge.CreatedAt = time.Now().UTC()
	_, err := r.edges.InsertOne(ctx, edge)
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("edge for task %s at level %d: %w", edge.TaskID.Hex(), edge.Level, apperrors.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("insert edge: %w", err)
	}
	return nil
}

func (r *MongoRepository) EdgeByAssignee(ctx context.Context, taskID, accountID primitive.ObjectID) (*DelegationEdge, error) {
	return r.findEdge(ctx, bson.M{"taskId": taskID, "assignedTo": accountID})
}

// EdgeByAssigner returns the deepest edge the account created for the task.
func (r *MongoRepository) EdgeByAssigner(ctx context.Context, taskID, accountID primitive.ObjectID) (*DelegationEdge, error) {
	return r.findEdge(ctx, bson.M{"taskId": taskID, "assignedBy": accountID})
}

func (r *MongoRepository) findEdge(ctx context.Context, query bson.M) (*DelegationEdge, error) {
	var edge DelegationEdge
	err := r.edges.FindOne(ctx, query, options.FindOne().SetSort(bson.D{{Key: "level", Value: -1}})).Decode(&edge)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("delegation edge: %w", apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find edge: %w", err)
	}
	return &edge, nil
}

// DeleteEdgesBelow removes every edge of the task deeper than the given level.
func (r *MongoRepository) DeleteEdgesBelow(ctx context.Context, taskID primitive.ObjectID, level int) error {
	_, err := r.edges.DeleteMany(ctx, bson.M{"taskId": taskID, "level": bson.M{"$gt": level}})
	if err != nil {
		return fmt.Errorf("delete edges below level %d: %w", level, err)
	}
	return nil
}

func (r *MongoRepository) TaskIDsByAssignee(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.distinctTaskIDs(ctx, bson.M{"assignedTo": accountID})
}

func (r *MongoRepository) TaskIDsByAssigner(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error) {
	return r.distinctTaskIDs(ctx, bson.M{"assignedBy": accountID})
}

func (r *MongoRepository) TaskIDsAssignedToAny(ctx context.Context, accountIDs []primitive.ObjectID) ([]primitive.ObjectID, error) {
	if len(accountIDs) == 0 {
		return nil, nil
	}
	return r.distinctTaskIDs(ctx, bson.M{"assignedTo": bson.M{"$in": accountIDs}})
}

func (r *MongoRepository) distinctTaskIDs(ctx context.Context, query bson.M) ([]primitive.ObjectID, error) {
	raw, err := r.edges.Distinct(ctx, "taskId", query)
	if err != nil {
		return nil, fmt.Errorf("distinct task ids: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// DeleteEdgesTouching removes every edge with a disabled account on either
// endpoint.
func (r *MongoRepository) DeleteEdgesTouching(ctx context.Context, accountIDs []primitive.ObjectID) error {
	if len(accountIDs) == 0 {
		return nil
	}
	_, err := r.edges.DeleteMany(ctx, bson.M{"$or": bson.A{
		bson.M{"assignedTo": bson.M{"$in": accountIDs}},
		bson.M{"assignedBy": bson.M{"$in": accountIDs}},
	}})
	if err != nil {
		return fmt.Errorf("delete edges: %w", err)
	}
	return nil
}
