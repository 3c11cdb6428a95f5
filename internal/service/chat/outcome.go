package chat

// Outcome is the result of a submit attempt.
type Outcome int

const (
	// OutcomeSkipped means the draft was empty or whitespace only; nothing changed.
	OutcomeSkipped Outcome = iota
	// OutcomeBusy means a dispatch was already in flight; nothing changed.
	OutcomeBusy
	// OutcomePending means the user message was appended and a request is due.
	OutcomePending
	// OutcomeDelivered means the bot reply was appended.
	OutcomeDelivered
	// OutcomeFailed means delivery failed and the error flag is set.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSkipped:
		return "skipped"
	case OutcomeBusy:
		return "busy"
	case OutcomePending:
		return "pending"
	case OutcomeDelivered:
		return "delivered"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}
