package services

import (
	"testing"

	"kanban-board/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func sampleTasks() []models.Task {
	return []models.Task{
		{ID: primitive.NewObjectID(), Content: "Plan team meeting agenda", Status: models.StatusTodo},
		{ID: primitive.NewObjectID(), Content: "Review and merge pull requests", Status: models.StatusInProgress},
		{ID: primitive.NewObjectID(), Content: "Update project documentation", Status: models.StatusDone},
		{ID: primitive.NewObjectID(), Content: "Write tests", Status: models.StatusTodo},
	}
}

func TestBuildBoardView_PartitionsAllTasks(t *testing.T) {
	tasks := sampleTasks()

	view := BuildBoardView(tasks, FilterAll)

	// Svaki zadatak mora da pripadne tačno jednoj koloni
	total := len(view.Todo) + len(view.InProgress) + len(view.Done)
	require.Equal(t, len(tasks), total)

	for _, task := range view.Todo {
		assert.Equal(t, models.StatusTodo, task.Status)
	}
	for _, task := range view.InProgress {
		assert.Equal(t, models.StatusInProgress, task.Status)
	}
	for _, task := range view.Done {
		assert.Equal(t, models.StatusDone, task.Status)
	}
}

func TestFilterBucket_ActiveSelectorSuppressesOtherBuckets(t *testing.T) {
	tasks := sampleTasks()

	view := BuildBoardView(tasks, FilterSelector(models.StatusDone))

	assert.Empty(t, view.Todo)
	assert.Empty(t, view.InProgress)
	require.Len(t, view.Done, 1)
	assert.Equal(t, "Update project documentation", view.Done[0].Content)
}

func TestFilterBucket_Idempotent(t *testing.T) {
	tasks := sampleTasks()

	first := BuildBoardView(tasks, FilterSelector(models.StatusTodo))
	second := BuildBoardView(tasks, FilterSelector(models.StatusTodo))

	assert.Equal(t, first, second)
}

func TestFilterBucket_EmptyListYieldsEmptyBuckets(t *testing.T) {
	view := BuildBoardView(nil, FilterAll)

	assert.Empty(t, view.Todo)
	assert.Empty(t, view.InProgress)
	assert.Empty(t, view.Done)
}

func TestFilterSelector_IsValid(t *testing.T) {
	assert.True(t, FilterAll.IsValid())
	assert.True(t, FilterSelector(models.StatusTodo).IsValid())
	assert.True(t, FilterSelector(models.StatusInProgress).IsValid())
	assert.True(t, FilterSelector(models.StatusDone).IsValid())
	assert.False(t, FilterSelector("archived").IsValid())
}
