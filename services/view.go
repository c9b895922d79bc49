package services

import "kanban-board/models"

// FilterSelector je aktivni filter table: "all" ili jedan konkretan status.
type FilterSelector string

const FilterAll FilterSelector = "all"

func (f FilterSelector) IsValid() bool {
	return f == FilterAll || models.TaskStatus(f).IsValid()
}

// FilterBucket vraća zadatke tražene kolone. Ako aktivni filter isključuje
// tu kolonu, vraća praznu listu. Čista funkcija, bez sporednih efekata.
func FilterBucket(tasks []models.Task, bucket models.TaskStatus, active FilterSelector) []models.Task {
	result := []models.Task{}
	if active != FilterAll && models.TaskStatus(active) != bucket {
		return result
	}
	for _, task := range tasks {
		if task.Status == bucket {
			result = append(result, task)
		}
	}
	return result
}

// BoardView je tabla podeljena po kolonama, spremna za prikaz.
type BoardView struct {
	Todo       []models.Task `json:"todo"`
	InProgress []models.Task `json:"inProgress"`
	Done       []models.Task `json:"done"`
}

func BuildBoardView(tasks []models.Task, active FilterSelector) BoardView {
	return BoardView{
		Todo:       FilterBucket(tasks, models.StatusTodo, active),
		InProgress: FilterBucket(tasks, models.StatusInProgress, active),
		Done:       FilterBucket(tasks, models.StatusDone, active),
	}
}
