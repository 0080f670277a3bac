package dataset

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStructural matches every *StructuralError via errors.Is.
var ErrStructural = errors.New("structural error")

// StructuralError reports input that does not match the expected schema.
// Line is 1-based and counts the header line, so a missing column reports
// line 1. It is 0 only when the input has no header row at all.
type StructuralError struct {
	Source string
	Line   int
	Column string
	Reason string
}

func (e *StructuralError) Error() string {
	var b strings.Builder
	b.WriteString("structural error")
	if e.Source != "" {
		fmt.Fprintf(&b, " in %s", e.Source)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " at line %d", e.Line)
	}
	if e.Column != "" {
		fmt.Fprintf(&b, " column %q", e.Column)
	}
	b.WriteString(": ")
	b.WriteString(e.Reason)
	return b.String()
}

func (e *StructuralError) Is(target error) bool {
	return target == ErrStructural
}

// withSource sets the source on a structural error and returns err unchanged otherwise.
func withSource(err error, source string) error {
	var se *StructuralError
	if errors.As(err, &se) && se.Source == "" {
		se.Source = source
	}
	return err
}
