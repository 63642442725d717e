package reports

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"fieldverify/verification-portal-backend/internal/forms"
	"fieldverify/verification-portal-backend/internal/tasks"
)

// Repository runs the read-side aggregations. A nil scope means master
// access: no edge filtering at all.
type Repository interface {
	ManagedTaskIDs(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error)
	FindJoined(ctx context.Context, scope []primitive.ObjectID, filter Filter) ([]joinedTask, error)
	RecentTasks(ctx context.Context, scope []primitive.ObjectID, limit int) ([]tasks.Task, error)
	CityGroups(ctx context.Context, scope []primitive.ObjectID) ([]cityGroup, error)
	CompletedByMonth(ctx context.Context, scope []primitive.ObjectID, year int) (map[int]int, error)
	StatusCounts(ctx context.Context, scope []primitive.ObjectID, from, to *time.Time) (map[tasks.TaskStatus]int, error)
}

type cityGroup struct {
	City     string `bson:"_id"`
	Total    int    `bson:"total"`
	Verified int    `bson:"verified"`
}

// MongoRepository aggregates over the tasks, task_manager and form
// collections.
type MongoRepository struct {
	db *mongo.Database
}

func NewRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{db: db}
}

func (r *MongoRepository) ManagedTaskIDs(ctx context.Context, accountID primitive.ObjectID) ([]primitive.ObjectID, error) {
	raw, err := r.db.Collection("task_manager").Distinct(ctx, "taskId", bson.M{"assignedBy": accountID})
	if err != nil {
		return nil, fmt.Errorf("managed task ids: %w", err)
	}
	ids := make([]primitive.ObjectID, 0, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func scopedMatch(scope []primitive.ObjectID, extra bson.M) bson.M {
	match := bson.M{}
	for k, v := range extra {
		match[k] = v
	}
	if scope != nil {
		match["_id"] = bson.M{"$in": scope}
	}
	return match
}

// FindJoined returns the filtered tasks with their form documents attached,
// ordered by due date.
func (r *MongoRepository) FindJoined(ctx context.Context, scope []primitive.ObjectID, filter Filter) ([]joinedTask, error) {
	match := bson.M{}
	if filter.Priority != nil {
		match["priority"] = *filter.Priority
	}
	if filter.Status != nil {
		match["status"] = *filter.Status
	}
	if filter.DueAfter != nil || filter.DueBefore != nil {
		due := bson.M{}
		if filter.DueAfter != nil {
			due["$gte"] = *filter.DueAfter
		}
		if filter.DueBefore != nil {
			due["$lte"] = *filter.DueBefore
		}
		match["dueDate"] = due
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scopedMatch(scope, match)}},
		{{Key: "$sort", Value: bson.D{{Key: "dueDate", Value: 1}}}},
	}
	if filter.Page > 0 && filter.PageSize > 0 {
		pipeline = append(pipeline,
			bson.D{{Key: "$skip", Value: (filter.Page - 1) * filter.PageSize}},
			bson.D{{Key: "$limit", Value: filter.PageSize}},
		)
	}
	for alias, kind := range map[string]forms.Kind{
		"cover":      forms.KindVerification,
		"residence":  forms.KindResidence,
		"tele":       forms.KindTele,
		"bank":       forms.KindBank,
		"business":   forms.KindBusiness,
		"employment": forms.KindEmployment,
	} {
		pipeline = append(pipeline, bson.D{{Key: "$lookup", Value: bson.M{
			"from":         forms.CollectionFor(kind),
			"localField":   "_id",
			"foreignField": "task_id",
			"as":           alias,
		}}})
	}

	cursor, err := r.db.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("report aggregation: %w", err)
	}
	var joined []joinedTask
	if err := cursor.All(ctx, &joined); err != nil {
		return nil, fmt.Errorf("decode report rows: %w", err)
	}
	return joined, nil
}

func (r *MongoRepository) RecentTasks(ctx context.Context, scope []primitive.ObjectID, limit int) ([]tasks.Task, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scopedMatch(scope, nil)}},
		{{Key: "$sort", Value: bson.D{{Key: "dueDate", Value: -1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.db.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("recent tasks: %w", err)
	}
	var out []tasks.Task
	if err := cursor.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode recent tasks: %w", err)
	}
	return out, nil
}

// CityGroups counts tasks and completed tasks per city.
func (r *MongoRepository) CityGroups(ctx context.Context, scope []primitive.ObjectID) ([]cityGroup, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scopedMatch(scope, nil)}},
		{{Key: "$group", Value: bson.M{
			"_id":   "$city",
			"total": bson.M{"$sum": 1},
			"verified": bson.M{"$sum": bson.M{"$cond": bson.A{
				bson.M{"$eq": bson.A{"$status", tasks.StatusCompleted}}, 1, 0,
			}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cursor, err := r.db.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("city summary: %w", err)
	}
	var groups []cityGroup
	if err := cursor.All(ctx, &groups); err != nil {
		return nil, fmt.Errorf("decode city groups: %w", err)
	}
	return groups, nil
}

// CompletedByMonth counts completed tasks per due-date month within the year.
func (r *MongoRepository) CompletedByMonth(ctx context.Context, scope []primitive.ObjectID, year int) (map[int]int, error) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	match := scopedMatch(scope, bson.M{
		"status":  tasks.StatusCompleted,
		"dueDate": bson.M{"$gte": start, "$lt": start.AddDate(1, 0, 0)},
	})
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: match}},
		{{Key: "$group", Value: bson.M{
			"_id":   bson.M{"$month": "$dueDate"},
			"count": bson.M{"$sum": 1},
		}}},
	}
	cursor, err := r.db.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("monthly report: %w", err)
	}
	var buckets []struct {
		Month int `bson:"_id"`
		Count int `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode monthly buckets: %w", err)
	}
	counts := make(map[int]int, len(buckets))
	for _, b := range buckets {
		counts[b.Month] = b.Count
	}
	return counts, nil
}

// StatusCounts groups tasks by status, optionally within a due-date window.
func (r *MongoRepository) StatusCounts(ctx context.Context, scope []primitive.ObjectID, from, to *time.Time) (map[tasks.TaskStatus]int, error) {
	extra := bson.M{}
	if from != nil || to != nil {
		due := bson.M{}
		if from != nil {
			due["$gte"] = *from
		}
		if to != nil {
			due["$lt"] = *to
		}
		extra["dueDate"] = due
	}
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: scopedMatch(scope, extra)}},
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	}
	cursor, err := r.db.Collection("tasks").Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("status counts: %w", err)
	}
	var buckets []struct {
		Status tasks.TaskStatus `bson:"_id"`
		Count  int              `bson:"count"`
	}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, fmt.Errorf("decode status counts: %w", err)
	}
	counts := make(map[tasks.TaskStatus]int, len(buckets))
	for _, b := range buckets {
		counts[b.Status] = b.Count
	}
	return counts, nil
}
