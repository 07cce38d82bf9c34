package history

import "fmt"

// UnknownRevisionError is returned when a revision is neither "base" nor part of the History.
type UnknownRevisionError struct {
	Revision string
}

func (e *UnknownRevisionError) Error() string {
	return fmt.Sprintf("unknown revision '%s'", e.Revision)
}

// ParseError is returned when a history line cannot be turned into a revision record.
type ParseError struct {
	Line   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("cannot parse history line '%s': %s", e.Line, e.Reason)
}

// RangeError is returned when a walk over the History would need to guess a path,
// i.e. when it meets a branch or when start is not an ancestor of end.
type RangeError struct {
	Start  string
	End    string
	Reason string
}

func (e *RangeError) Error() string {
	if e.End == "" {
		return fmt.Sprintf("revision '%s': %s", e.Start, e.Reason)
	}

	return fmt.Sprintf("revision range '%s'..'%s': %s", e.Start, e.End, e.Reason)
}
