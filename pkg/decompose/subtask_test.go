// pkg/decompose/subtask_test.go
package decompose

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func diamondResult() *Result {
	return &Result{
		TaskID: "test",
		Subtasks: []*Subtask{
			{ID: "root", Status: SubtaskPending},
			{ID: "left", DependsOn: []string{"root"}, Status: SubtaskPending},
			{ID: "right", DependsOn: []string{"root"}, Status: SubtaskPending},
			{ID: "merge", DependsOn: []string{"left", "right"}, Status: SubtaskPending},
		},
	}
}

func TestExecutionOrderBatchesDiamond(t *testing.T) {
	batches, err := diamondResult().ExecutionOrder()
	require.NoError(t, err)
	require.Len(t, batches, 3)

	assert.Equal(t, []string{"root"}, batches[0])
	assert.ElementsMatch(t, []string{"left", "right"}, batches[1])
	assert.Equal(t, []string{"merge"}, batches[2])
}

func TestExecutionOrderIndependentSubtasksShareBatch(t *testing.T) {
	r := &Result{
		Subtasks: []*Subtask{
			{ID: "a"},
			{ID: "b"},
			{ID: "c"},
		},
	}

	batches, err := r.ExecutionOrder()
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, batches[0])
}

func TestExecutionOrderDetectsCycle(t *testing.T) {
	r := &Result{
		Subtasks: []*Subtask{
			{ID: "a", DependsOn: []string{"b"}},
			{ID: "b", DependsOn: []string{"a"}},
			{ID: "standalone"},
		},
	}

	batches, err := r.ExecutionOrder()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCycleDetected))
	// The schedulable prefix is still reported.
	require.Len(t, batches, 1)
	assert.Equal(t, []string{"standalone"}, batches[0])
}

func TestReadySubtasks(t *testing.T) {
	r := diamondResult()

	ready := r.ReadySubtasks()
	require.Len(t, ready, 1)
	assert.Equal(t, "root", ready[0].ID)

	r.Subtask("root").Status = SubtaskCompleted
	ready = r.ReadySubtasks()
	require.Len(t, ready, 2)

	// A running subtask is no longer ready, and a failed dependency
	// blocks its dependents.
	r.Subtask("left").Status = SubtaskRunning
	r.Subtask("right").Status = SubtaskFailed
	assert.Empty(t, r.ReadySubtasks())
}

func TestSubtaskLookup(t *testing.T) {
	r := diamondResult()
	require.NotNil(t, r.Subtask("merge"))
	assert.Equal(t, "merge", r.Subtask("merge").ID)
	assert.Nil(t, r.Subtask("missing"))
}
