package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTaskStatus_IsValid(t *testing.T) {
	for _, status := range AllStatuses() {
		assert.True(t, status.IsValid(), "status %s", status)
	}

	assert.False(t, TaskStatus("").IsValid())
	assert.False(t, TaskStatus("pending").IsValid())
	assert.False(t, TaskStatus("Done").IsValid())
}
