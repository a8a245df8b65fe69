package provision

// Phase is a state of the provisioning state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseCheckingRuntime
	PhaseInstalling
	PhaseCheckingDeps
	PhaseStaging
	PhasePipelineRunning
	PhaseLaunchingSidecar
	PhaseDone
	PhaseFailed
)

var phaseNames = map[Phase]string{
	PhaseIdle:             "idle",
	PhaseCheckingRuntime:  "checking-runtime",
	PhaseInstalling:       "installing",
	PhaseCheckingDeps:     "checking-deps",
	PhaseStaging:          "staging",
	PhasePipelineRunning:  "pipeline-running",
	PhaseLaunchingSidecar: "launching-sidecar",
	PhaseDone:             "done",
	PhaseFailed:           "failed",
}

func (p Phase) String() string {
	if name, ok := phaseNames[p]; ok {
		return name
	}
	return "unknown"
}

// Terminal reports whether no further transition is possible.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed
}
