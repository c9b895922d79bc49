package repositories

import (
	"context"
	"sync"

	"kanban-board/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// InMemoryTaskRepository drži zadatke u memoriji. Koristi se u testovima
// umesto žive Mongo baze; ponašanje prati MongoTaskRepository.
type InMemoryTaskRepository struct {
	mu    sync.Mutex
	tasks []models.Task
	subs  []chan struct{}

	// WriteCount broji mutacije, da testovi mogu da provere
	// da odbijene operacije ne pišu u skladište.
	WriteCount int
}

func NewInMemoryTaskRepository() *InMemoryTaskRepository {
	return &InMemoryTaskRepository{}
}

func (r *InMemoryTaskRepository) GetAll(ctx context.Context) ([]models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tasks := make([]models.Task, len(r.tasks))
	copy(tasks, r.tasks)
	return tasks, nil
}

func (r *InMemoryTaskRepository) Get(ctx context.Context, id primitive.ObjectID) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, task := range r.tasks {
		if task.ID == id {
			found := task
			return &found, nil
		}
	}
	return nil, ErrTaskNotFound
}

func (r *InMemoryTaskRepository) Create(ctx context.Context, content string, status models.TaskStatus) (*models.Task, error) {
	r.mu.Lock()
	task := models.Task{
		ID:      primitive.NewObjectID(),
		Content: content,
		Status:  status,
	}
	r.tasks = append(r.tasks, task)
	r.WriteCount++
	r.mu.Unlock()

	r.notify()
	return &task, nil
}

func (r *InMemoryTaskRepository) UpdateStatus(ctx context.Context, id primitive.ObjectID, status models.TaskStatus) error {
	r.mu.Lock()
	found := false
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks[i].Status = status
			found = true
			break
		}
	}
	if found {
		r.WriteCount++
	}
	r.mu.Unlock()

	if !found {
		return ErrTaskNotFound
	}
	r.notify()
	return nil
}

func (r *InMemoryTaskRepository) Delete(ctx context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	found := false
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			found = true
			break
		}
	}
	if found {
		r.WriteCount++
	}
	r.mu.Unlock()

	if !found {
		return ErrTaskNotFound
	}
	r.notify()
	return nil
}

func (r *InMemoryTaskRepository) IsEmpty(ctx context.Context) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks) == 0, nil
}

func (r *InMemoryTaskRepository) Changes(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)

	r.mu.Lock()
	r.subs = append(r.subs, out)
	r.mu.Unlock()

	go func() {
		<-ctx.Done()
		// Uklanjanje i zatvaranje pod istim lock-om kao notify,
		// da se signal nikad ne pošalje u zatvoren kanal.
		r.mu.Lock()
		for i, sub := range r.subs {
			if sub == out {
				r.subs = append(r.subs[:i], r.subs[i+1:]...)
				break
			}
		}
		close(out)
		r.mu.Unlock()
	}()

	return out
}

func (r *InMemoryTaskRepository) notify() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, sub := range r.subs {
		signalChange(sub)
	}
}
