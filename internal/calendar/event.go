package calendar

import (
	"fmt"
	"time"

	gcal "google.golang.org/api/calendar/v3"

	"github.com/ceronops/jobcal/internal/db/models"
)

// Event defaults
const (
	DefaultStartTime   = "09:00"
	DefaultEndTime     = "11:00"
	DefaultDescription = "Cleaning job"
	DefaultTimeZone    = "America/Los_Angeles"

	colorResidential = "7"
	colorCommercial  = "10"
)

// EventJob is the job data placed on a calendar event
type EventJob struct {
	Date        string
	StartTime   string
	EndTime     string
	ClientName  string
	JobType     models.JobType
	Location    string
	Description string
	Notes       string
	Amount      float64
}

// EventJobFromInstance extracts the event data of an instance
func EventJobFromInstance(inst *models.JobInstance) EventJob {
	return EventJob{
		Date:        inst.Date,
		StartTime:   inst.StartTime,
		EndTime:     inst.EndTime,
		ClientName:  inst.ClientName,
		JobType:     inst.JobType,
		Location:    inst.Location,
		Description: inst.Description,
		Notes:       inst.Notes,
		Amount:      inst.Amount,
	}
}

// Summary returns the event title: a glyph for the job type followed by the client name
func Summary(job EventJob) string {
	glyph := "🏠"
	if job.JobType == models.JobTypeCommercial {
		glyph = "🏢"
	}
	return glyph + " " + job.ClientName
}

// Description returns the event body with optional notes and amount
func Description(job EventJob) string {
	desc := job.Description
	if desc == "" {
		desc = DefaultDescription
	}
	if job.Notes != "" {
		desc += "\n\nNotes: " + job.Notes
	}
	if job.Amount > 0 {
		desc += fmt.Sprintf("\n\nAmount: $%.2f", job.Amount)
	}
	return desc
}

// ColorID returns the provider color of the job type
func ColorID(jobType models.JobType) string {
	if jobType == models.JobTypeCommercial {
		return colorCommercial
	}
	return colorResidential
}

// Times returns the start and end of the job in loc. Missing times default to
// 09:00 and 11:00; an end not after the start is moved to two hours after it.
func Times(job EventJob, loc *time.Location) (time.Time, time.Time, error) {
	startTime := job.StartTime
	if startTime == "" {
		startTime = DefaultStartTime
	}
	endTime := job.EndTime
	if endTime == "" {
		endTime = DefaultEndTime
	}

	start, err := time.ParseInLocation(models.DateLayout+" "+models.TimeOfDayLayout, job.Date+" "+startTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid event start %q %q: %w", job.Date, startTime, err)
	}
	end, err := time.ParseInLocation(models.DateLayout+" "+models.TimeOfDayLayout, job.Date+" "+endTime, loc)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("invalid event end %q %q: %w", job.Date, endTime, err)
	}
	if !end.After(start) {
		end = start.Add(2 * time.Hour)
	}
	return start, end, nil
}

// BuildEvent creates the provider payload of a job
func BuildEvent(job EventJob, loc *time.Location, reminderMinutes []int) (*gcal.Event, error) {
	start, end, err := Times(job, loc)
	if err != nil {
		return nil, err
	}
	if len(reminderMinutes) == 0 {
		reminderMinutes = models.DefaultReminderMinutes()
	}

	overrides := make([]*gcal.EventReminder, 0, len(reminderMinutes))
	for _, minutes := range reminderMinutes {
		overrides = append(overrides, &gcal.EventReminder{Method: "popup", Minutes: int64(minutes)})
	}

	return &gcal.Event{
		Summary:     Summary(job),
		Description: Description(job),
		Location:    job.Location,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: loc.String(),
		},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			Overrides:       overrides,
			ForceSendFields: []string{"UseDefault"},
		},
		ColorId: ColorID(job.JobType),
	}, nil
}
