package leads

import (
	"errors"
	"fmt"
	"strings"
)

// ErrStore is wrapped by every persistence failure.
var ErrStore = errors.New("leads: store failure")

// FieldError describes one invalid field, keyed by its JSON name.
type FieldError struct {
	Field   string
	Message string
	Missing bool
}

// FieldErrors is the ordered list of problems found in a submission.
type FieldErrors []FieldError

// Map returns the errors keyed by field name.
func (fe FieldErrors) Map() map[string]string {
	out := make(map[string]string, len(fe))
	for _, e := range fe {
		out[e.Field] = e.Message
	}
	return out
}

// Missing lists the required fields that were empty.
func (fe FieldErrors) Missing() []string {
	var missing []string
	for _, e := range fe {
		if e.Missing {
			missing = append(missing, e.Field)
		}
	}
	return missing
}

// Summary is the single client-facing message for the set. Missing fields
// take precedence since they are the most common cause.
func (fe FieldErrors) Summary() string {
	if len(fe) == 0 {
		return ""
	}
	if missing := fe.Missing(); len(missing) > 0 {
		return fmt.Sprintf("Missing required fields: %s.", strings.Join(missing, ", "))
	}
	return fe[0].Message
}

// ValidationError is returned when a submission fails the field rules.
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string {
	return "leads: invalid submission: " + e.Fields.Summary()
}
