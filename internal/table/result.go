package table

import "fmt"

// Outcome classifies how a remote handler disposed of an event.
type Outcome int

const (
	// OutcomeApplied means the event mutated table state.
	OutcomeApplied Outcome = iota
	// OutcomeRejected means the event failed a defensive re-validation and
	// was dropped. A rejected local call never reaches the network, so
	// rejections here indicate replica drift or a misbehaving peer.
	OutcomeRejected
	// OutcomeFatal means the table's state is inconsistent (e.g. a team
	// without a deck) and the handler aborted.
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeApplied:
		return "APPLIED"
	case OutcomeRejected:
		return "REJECTED"
	case OutcomeFatal:
		return "FATAL"
	default:
		return "UNKNOWN"
	}
}

// ApplyResult is a remote handler's typed outcome. Rejections are logged,
// never surfaced to users.
type ApplyResult struct {
	Outcome Outcome
	Reason  string
}

func applied() ApplyResult {
	return ApplyResult{Outcome: OutcomeApplied}
}

func rejectedf(format string, args ...any) ApplyResult {
	return ApplyResult{Outcome: OutcomeRejected, Reason: fmt.Sprintf(format, args...)}
}

func fatalf(format string, args ...any) ApplyResult {
	return ApplyResult{Outcome: OutcomeFatal, Reason: fmt.Sprintf(format, args...)}
}
