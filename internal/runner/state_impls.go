package runner

// DisconnectedState - no database session yet
type DisconnectedState struct{}

func (s *DisconnectedState) Name() string { return "disconnected" }
func (s *DisconnectedState) ToConnected() *ConnectedState {
	return &ConnectedState{}
}
func (s *DisconnectedState) ToFailed() *FailedState {
	return &FailedState{}
}

// ConnectedState - session verified, workload not started
type ConnectedState struct{}

func (s *ConnectedState) Name() string { return "connected" }
func (s *ConnectedState) ToRunning() *RunningState {
	return &RunningState{}
}
func (s *ConnectedState) ToFailed() *FailedState {
	return &FailedState{}
}

// RunningState - a strategy leg is executing batches
type RunningState struct{}

func (s *RunningState) Name() string { return "running" }
func (s *RunningState) ToVerifying() *VerifyingState {
	return &VerifyingState{}
}
func (s *RunningState) ToFailed() *FailedState {
	return &FailedState{}
}

// VerifyingState - checking the leg that just finished
type VerifyingState struct{}

func (s *VerifyingState) Name() string { return "verifying" }
func (s *VerifyingState) ToRunning() *RunningState {
	return &RunningState{}
}
func (s *VerifyingState) ToReported() *ReportedState {
	return &ReportedState{}
}
func (s *VerifyingState) ToFailed() *FailedState {
	return &FailedState{}
}

// Terminal states

// ReportedState - all legs verified, summary produced
type ReportedState struct{}

func (s *ReportedState) Name() string { return "reported" }

// FailedState - run aborted
type FailedState struct{}

func (s *FailedState) Name() string { return "failed" }
