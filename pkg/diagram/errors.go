package diagram

import (
	"errors"
	"fmt"
)

// ParseError reports diagram code that cannot be parsed at all.
// Only an empty source or a bad direction line produce it; unknown body
// lines are skipped.
type ParseError struct {
	// Line is the 1-based line number, or 0 when the whole source is at fault.
	Line   int
	Text   string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("diagram: line %d: %s: %q", e.Line, e.Reason, e.Text)
	}
	return "diagram: " + e.Reason
}

// IsParseError reports whether err is, or wraps, a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
