package model

// ValidationError reports malformed input: a bad cell identifier, an unknown
// unit type or an unknown phase name. It is always surfaced to the caller,
// never auto-corrected.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }
