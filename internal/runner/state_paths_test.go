package runner

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/livinlefevreloca/bulkbench/internal/testutil"
)

// ==============================================================================
// State Path Tests - Verify the runner follows expected paths
// ==============================================================================

func newPathRunner(recorder *StateRecorder) *Runner {
	r := newRunnerWithDB(DefaultConfig(), nil, testutil.NewLogger())
	r.recorder = recorder
	return r
}

// TestStatePaths_HappyPath verifies the single-strategy success path
func TestStatePaths_HappyPath(t *testing.T) {
	recorder := NewStateRecorder()
	r := newPathRunner(recorder)

	// Manually step through happy path states
	disconnected := &DisconnectedState{}
	r.transitionTo(disconnected)

	connected := disconnected.ToConnected()
	r.transitionTo(connected)

	running := connected.ToRunning()
	r.transitionTo(running)

	verifying := running.ToVerifying()
	r.transitionTo(verifying)

	reported := verifying.ToReported()
	r.transitionTo(reported)

	expected := []string{
		"disconnected",
		"connected",
		"running",
		"verifying",
		"reported",
	}
	assert.Equal(t, expected, recorder.Path())
}

// TestStatePaths_Comparison verifies the loop back to running between legs
func TestStatePaths_Comparison(t *testing.T) {
	recorder := NewStateRecorder()
	r := newPathRunner(recorder)

	disconnected := &DisconnectedState{}
	r.transitionTo(disconnected)

	connected := disconnected.ToConnected()
	r.transitionTo(connected)

	// First leg
	running := connected.ToRunning()
	r.transitionTo(running)

	verifying := running.ToVerifying()
	r.transitionTo(verifying)

	// Second leg
	running2 := verifying.ToRunning()
	r.transitionTo(running2)

	verifying2 := running2.ToVerifying()
	r.transitionTo(verifying2)

	reported := verifying2.ToReported()
	r.transitionTo(reported)

	expected := []string{
		"disconnected",
		"connected",
		"running",
		"verifying",
		"running",
		"verifying",
		"reported",
	}
	assert.Equal(t, expected, recorder.Path())
}

// TestStatePaths_Failure verifies failure from each non-terminal state
func TestStatePaths_Failure(t *testing.T) {
	tests := []struct {
		name         string
		expectedPath []string
		buildPath    func(*Runner) State
	}{
		{
			name: "fail_from_disconnected",
			expectedPath: []string{
				"disconnected",
				"failed",
			},
			buildPath: func(r *Runner) State {
				disconnected := &DisconnectedState{}
				r.transitionTo(disconnected)
				return disconnected.ToFailed()
			},
		},
		{
			name: "fail_from_connected",
			expectedPath: []string{
				"disconnected",
				"connected",
				"failed",
			},
			buildPath: func(r *Runner) State {
				disconnected := &DisconnectedState{}
				r.transitionTo(disconnected)
				connected := disconnected.ToConnected()
				r.transitionTo(connected)
				return connected.ToFailed()
			},
		},
		{
			name: "fail_from_running",
			expectedPath: []string{
				"disconnected",
				"connected",
				"running",
				"failed",
			},
			buildPath: func(r *Runner) State {
				disconnected := &DisconnectedState{}
				r.transitionTo(disconnected)
				connected := disconnected.ToConnected()
				r.transitionTo(connected)
				running := connected.ToRunning()
				r.transitionTo(running)
				return running.ToFailed()
			},
		},
		{
			name: "fail_from_verifying",
			expectedPath: []string{
				"disconnected",
				"connected",
				"running",
				"verifying",
				"failed",
			},
			buildPath: func(r *Runner) State {
				disconnected := &DisconnectedState{}
				r.transitionTo(disconnected)
				connected := disconnected.ToConnected()
				r.transitionTo(connected)
				running := connected.ToRunning()
				r.transitionTo(running)
				verifying := running.ToVerifying()
				r.transitionTo(verifying)
				return verifying.ToFailed()
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recorder := NewStateRecorder()
			r := newPathRunner(recorder)

			failedState := tt.buildPath(r)
			r.transitionTo(failedState)

			assert.Equal(t, tt.expectedPath, recorder.Path())
		})
	}
}
