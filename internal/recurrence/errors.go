package recurrence

import (
	"errors"
	"fmt"

	"github.com/ceronops/jobcal/internal/db/models"
)

// ErrInvalidRule is matched by every *InvalidRuleError
var ErrInvalidRule = errors.New("invalid recurrence rule")

// InvalidRuleError reports a rule that cannot be expanded.
// Callers must not retry generation with the same rule.
type InvalidRuleError struct {
	Rule   models.RecurrenceRule
	Reason string
}

func (e *InvalidRuleError) Error() string {
	return fmt.Sprintf("invalid recurrence rule (frequency=%q start=%q end=%q): %s",
		e.Rule.Frequency, e.Rule.StartDate, e.Rule.EndDate, e.Reason)
}

// Unwrap returns ErrInvalidRule
func (e *InvalidRuleError) Unwrap() error {
	return ErrInvalidRule
}
