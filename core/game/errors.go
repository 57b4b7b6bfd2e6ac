package game

// RuleViolation reports a placement or commit rule breach. The operation that
// raised it left the state unchanged.
type RuleViolation struct {
	Msg string
}

func (e RuleViolation) Error() string { return e.Msg }
