package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kanban-board/logging"
	"kanban-board/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRepository je granica ka skladištu zadataka.
type TaskRepository interface {
	GetAll(ctx context.Context) ([]models.Task, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error)
	Create(ctx context.Context, content string, status models.TaskStatus) (*models.Task, error)
	UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	IsEmpty(ctx context.Context) (bool, error)
	// Changes delivers one signal per remote change; the channel closes
	// when ctx is cancelled. Signals are coalesced, not one-per-write.
	Changes(ctx context.Context) <-chan struct{}
}

type MongoTaskRepository struct {
	collection   *mongo.Collection
	pollInterval time.Duration
}

func NewMongoTaskRepository(collection *mongo.Collection) *MongoTaskRepository {
	return &MongoTaskRepository{
		collection:   collection,
		pollInterval: 2 * time.Second,
	}
}

func (r *MongoTaskRepository) GetAll(ctx context.Context) ([]models.Task, error) {
	cursor, err := r.collection.Find(ctx, bson.M{})
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(ctx)

	var tasks []models.Task
	for cursor.Next(ctx) {
		var task models.Task
		if err := cursor.Decode(&task); err != nil {
			return nil, fmt.Errorf("failed to decode task: %v", err)
		}
		tasks = append(tasks, task)
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor error: %v", err)
	}

	return tasks, nil
}

func (r *MongoTaskRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&task)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}
	return &task, nil
}

func (r *MongoTaskRepository) Create(ctx context.Context, content string, status models.TaskStatus) (*models.Task, error) {
	task := &models.Task{
		ID:      primitive.NewObjectID(),
		Content: content,
		Status:  status,
	}

	result, err := r.collection.InsertOne(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	task.ID = result.InsertedID.(primitive.ObjectID)
	return task, nil
}

// UpdateStatus menja samo polje status, ostala polja ostaju netaknuta.
func (r *MongoTaskRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) error {
	update := bson.M{"$set": bson.M{"status": status}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update)
	if err != nil {
		return fmt.Errorf("failed to update task status: %v", err)
	}
	if result.MatchedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *MongoTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (r *MongoTaskRepository) IsEmpty(ctx context.Context) (bool, error) {
	count, err := r.collection.CountDocuments(ctx, bson.M{}, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("failed to count tasks: %v", err)
	}
	return count == 0, nil
}

func (r *MongoTaskRepository) Changes(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	go func() {
		defer close(out)

		stream, err := r.collection.Watch(ctx, mongo.Pipeline{})
		if err != nil {
			// Change stream traži replica set; na standalone Mongu prelazimo na polling.
			logging.Logger.Warnf("Event ID: CHANGE_STREAM_UNAVAILABLE, Description: Change stream could not be opened, falling back to polling every %s: %v", r.pollInterval, err)
			r.pollChanges(ctx, out)
			return
		}
		defer stream.Close(context.Background())

		logging.Logger.Info("Event ID: CHANGE_STREAM_OPENED, Description: Watching task collection for changes.")
		for stream.Next(ctx) {
			signalChange(out)
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			logging.Logger.Errorf("Event ID: CHANGE_STREAM_ERROR, Description: Change stream terminated: %v", err)
		}
	}()

	return out
}

func (r *MongoTaskRepository) pollChanges(ctx context.Context, out chan<- struct{}) {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			signalChange(out)
		}
	}
}

// signalChange šalje signal bez blokiranja; višak signala se spaja u jedan.
func signalChange(out chan<- struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}
