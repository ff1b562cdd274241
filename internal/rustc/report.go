package rustc

// Phase identifies a step of a probe session.
type Phase string

const (
	PhaseLocate   Phase = "locate"
	PhaseTarget   Phase = "target"
	PhaseVersion  Phase = "version"
	PhaseValidate Phase = "validate"
)

// Phases lists the session phases in execution order.
func Phases() []Phase {
	return []Phase{PhaseLocate, PhaseTarget, PhaseVersion, PhaseValidate}
}

// Reporter receives progress notifications while a probe runs. Calls are made
// synchronously from the probing goroutine.
type Reporter interface {
	PhaseStarted(phase Phase)
	PhaseFinished(phase Phase, detail string, err error)
}

type nopReporter struct{}

func (nopReporter) PhaseStarted(Phase) {}
func (nopReporter) PhaseFinished(Phase, string, error) {}
