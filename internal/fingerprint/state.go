package fingerprint

// State is the provisioning state of the environment directory.
type State int

const (
	Absent State = iota
	VersionStale
	DependenciesStale
	Ready
)

func (s State) String() string {
	switch s {
	case Absent:
		return "absent"
	case VersionStale:
		return "version-stale"
	case DependenciesStale:
		return "dependencies-stale"
	case Ready:
		return "ready"
	default:
		return "unknown"
	}
}

// MarshalText renders the state name in JSON reports.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Plan is the action taken for a state.
type Plan int

const (
	// PlanNone launches the sidecar without touching the environment.
	PlanNone Plan = iota
	// PlanDependencies re-stages resources and reinstalls dependencies only.
	PlanDependencies
	// PlanFull removes the environment, re-stages everything and runs every
	// pipeline stage.
	PlanFull
)

func (p Plan) String() string {
	switch p {
	case PlanNone:
		return "none"
	case PlanDependencies:
		return "dependencies"
	case PlanFull:
		return "full"
	default:
		return "unknown"
	}
}

func (p Plan) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// Plan maps every state to its action.
func (s State) Plan() Plan {
	switch s {
	case Ready:
		return PlanNone
	case DependenciesStale:
		return PlanDependencies
	default:
		return PlanFull
	}
}
