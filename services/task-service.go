package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"kanban-board/logging"
	"kanban-board/models"
	"kanban-board/repositories"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrEmptyContent  = errors.New("task content is empty")
	ErrInvalidStatus = errors.New("invalid task status")
	ErrInvalidTaskID = errors.New("invalid task id format")
)

// Podrazumevani zadaci koji se ubacuju samo kada je kolekcija prazna.
var seedTasks = []models.Task{
	{Content: "Plan team meeting agenda", Status: models.StatusTodo},
	{Content: "Review and merge pull requests", Status: models.StatusInProgress},
	{Content: "Update project documentation", Status: models.StatusDone},
}

type TaskService struct {
	repo repositories.TaskRepository
}

func NewTaskService(repo repositories.TaskRepository) *TaskService {
	return &TaskService{repo: repo}
}

func (s *TaskService) GetAllTasks(ctx context.Context) ([]models.Task, error) {
	return s.repo.GetAll(ctx)
}

// CreateTask pravi novi zadatak u koloni todo. Prazan ili whitespace
// sadržaj se odbija bez ijednog upisa u skladište.
func (s *TaskService) CreateTask(ctx context.Context, content string) (*models.Task, error) {
	trimmed := strings.TrimSpace(content)
	if trimmed == "" {
		return nil, ErrEmptyContent
	}

	task, err := s.repo.Create(ctx, trimmed, models.StatusTodo)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created in column %s.", task.ID.Hex(), task.Status)
	return task, nil
}

func (s *TaskService) DeleteTask(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidTaskID
	}

	if err := s.repo.Delete(ctx, objectID); err != nil {
		return err
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted.", id)
	return nil
}

// MoveTask prebacuje zadatak u ciljnu kolonu. Prevlačenje na istu kolonu
// je no-op i ne proizvodi nijedan upis; menja se isključivo polje status.
// Drugi povratni parametar kaže da li je upis zaista izvršen.
func (s *TaskService) MoveTask(ctx context.Context, id string, status models.TaskStatus) (*models.Task, bool, error) {
	if !status.IsValid() {
		return nil, false, ErrInvalidStatus
	}

	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false, ErrInvalidTaskID
	}

	task, err := s.repo.Get(ctx, objectID)
	if err != nil {
		return nil, false, err
	}

	if task.Status == status {
		return task, false, nil
	}

	if err := s.repo.UpdateStatus(ctx, objectID, status); err != nil {
		return nil, false, err
	}

	task.Status = status
	logging.Logger.Infof("Event ID: TASK_MOVED, Description: Task %s moved to column %s.", id, status)
	return task, true, nil
}

// SeedDefaultTasks ubacuje podrazumevane zadatke ako je kolekcija prazna.
// Provera i upis nisu pod zaključavanjem: dve instance koje krenu istovremeno
// mogu obe da ubace podrazumevani set. Vraća broj ubačenih zadataka.
func (s *TaskService) SeedDefaultTasks(ctx context.Context) (int, error) {
	empty, err := s.repo.IsEmpty(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to check if collection is empty: %v", err)
	}
	if !empty {
		return 0, nil
	}

	inserted := 0
	for _, seed := range seedTasks {
		if _, err := s.repo.Create(ctx, seed.Content, seed.Status); err != nil {
			return inserted, fmt.Errorf("failed to insert seed task: %v", err)
		}
		inserted++
	}

	logging.Logger.Infof("Event ID: SEED_COMPLETED, Description: Inserted %d default tasks into empty collection.", inserted)
	return inserted, nil
}
