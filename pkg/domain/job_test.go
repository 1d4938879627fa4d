package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJob_TaskSequenceUniqueness(t *testing.T) {
	j, err := NewJob("JOB-1", PriorityNormal, time.Now(), time.Now().Add(24*time.Hour), 1)
	require.NoError(t, err)

	t1, err := NewTask(uuid.New(), 10, NewDuration(60), NewDuration(5))
	require.NoError(t, err)
	require.NoError(t, j.AddTask(t1))

	t2, err := NewTask(uuid.New(), 10, NewDuration(30), NewDuration(0))
	require.NoError(t, err)
	assert.Error(t, j.AddTask(t2))
}

func TestJob_TasksOrderedBySequence(t *testing.T) {
	j, err := NewJob("JOB-2", PriorityHigh, time.Now(), time.Now().Add(24*time.Hour), 1)
	require.NoError(t, err)

	t20, _ := NewTask(uuid.New(), 20, NewDuration(10), NewDuration(0))
	t10, _ := NewTask(uuid.New(), 10, NewDuration(10), NewDuration(0))
	require.NoError(t, j.AddTask(t20))
	require.NoError(t, j.AddTask(t10))

	tasks := j.Tasks()
	require.Len(t, tasks, 2)
	assert.Equal(t, 10, tasks[0].SequenceInJob)
	assert.Equal(t, 20, tasks[1].SequenceInJob)
}

func TestJob_StatusTransitions(t *testing.T) {
	j, err := NewJob("JOB-3", PriorityNormal, time.Now(), time.Now().Add(time.Hour), 1)
	require.NoError(t, err)

	assert.NoError(t, j.TransitionTo(JobReleased))
	assert.NoError(t, j.TransitionTo(JobInProgress))
	assert.Error(t, j.TransitionTo(JobPlanned))
	assert.NoError(t, j.TransitionTo(JobCompleted))
	assert.Error(t, j.TransitionTo(JobCancelled))
}

func TestJob_AllTasksCompleted(t *testing.T) {
	j, err := NewJob("JOB-4", PriorityNormal, time.Now(), time.Now().Add(time.Hour), 1)
	require.NoError(t, err)
	assert.False(t, j.AllTasksCompleted())

	task, _ := NewTask(uuid.New(), 10, NewDuration(10), NewDuration(0))
	require.NoError(t, j.AddTask(task))
	assert.False(t, j.AllTasksCompleted())

	require.NoError(t, task.TransitionTo(TaskReady))
	require.NoError(t, task.TransitionTo(TaskScheduled))
	require.NoError(t, task.TransitionTo(TaskInProgress))
	require.NoError(t, task.TransitionTo(TaskCompleted))
	assert.True(t, j.AllTasksCompleted())
}

func TestJob_ValidateSetupMachineLinkage(t *testing.T) {
	j, err := NewJob("JOB-5", PriorityNormal, time.Now(), time.Now().Add(time.Hour), 1)
	require.NoError(t, err)

	productionSeq := 20
	setup, err := NewTask(uuid.New(), 10, NewDuration(15), NewDuration(0))
	require.NoError(t, err)
	production, err := NewTask(uuid.New(), 20, NewDuration(45), NewDuration(0))
	require.NoError(t, err)
	setup.RequiresSameMachineAsSetup = true
	setup.SetupForSequence = &productionSeq
	require.NoError(t, j.AddTask(setup))
	require.NoError(t, j.AddTask(production))

	// Unassigned tasks are not yet checked.
	assert.NoError(t, j.ValidateSetupMachineLinkage())

	machineA, machineB := uuid.New(), uuid.New()
	setup.AssignedMachineID = &machineA
	production.AssignedMachineID = &machineA
	assert.NoError(t, j.ValidateSetupMachineLinkage())

	production.AssignedMachineID = &machineB
	assert.Error(t, j.ValidateSetupMachineLinkage())
}
