package recurrence

import "github.com/ceronops/jobcal/internal/db/models"

var frequencyLabels = map[models.Frequency]string{
	models.FrequencyDaily:    "Daily",
	models.FrequencyWeekly:   "Weekly",
	models.FrequencyBiweekly: "Every 2 weeks",
	models.FrequencyMonthly:  "Monthly",
}

// Describe returns a human label for rule, e.g. "Weekly until 3/31/2024".
// Unknown frequencies are shown as-is.
func Describe(rule models.RecurrenceRule) string {
	label, ok := frequencyLabels[rule.Frequency]
	if !ok {
		label = rule.Frequency.String()
	}
	if !rule.HasEnd() {
		return label
	}
	if end, err := ParseDate(rule.EndDate); err == nil {
		return label + " until " + end.Format("1/2/2006")
	}
	return label + " until " + rule.EndDate
}
