package models

import "time"

// ProviderGoogle is the name of the Google Calendar credential
const ProviderGoogle = "google"

// DefaultCalendarID is the provider alias of the authorizing user's calendar
const DefaultCalendarID = "primary"

// DefaultReminderMinutes returns the popup reminder offsets used when none are configured
func DefaultReminderMinutes() []int {
	return []int{60, 1440}
}

// CalendarCredential holds the calendar provider authorization for the deployment.
// There is one row per provider; the service is not multi-tenant.
type CalendarCredential struct {
	Provider     string `json:"provider" gorm:"primaryKey;type:varchar(32)"`
	Enabled      bool   `json:"enabled"`
	AccessToken  string `json:"-" gorm:"type:text"`
	RefreshToken string `json:"-" gorm:"type:text"`
	// ExpiryDate is the access token expiry in epoch milliseconds
	ExpiryDate      int64     `json:"expiry_date"`
	CalendarID      string    `json:"calendar_id" gorm:"type:varchar(255)"`
	SyncEnabled     bool      `json:"sync_enabled"`
	ReminderMinutes []int     `json:"reminder_minutes" gorm:"type:text;serializer:json"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Expiry returns the access token expiry
func (c *CalendarCredential) Expiry() time.Time {
	return time.UnixMilli(c.ExpiryDate)
}

// SetExpiry stores t as the access token expiry
func (c *CalendarCredential) SetExpiry(t time.Time) {
	c.ExpiryDate = t.UnixMilli()
}

// HasToken reports whether the credential can produce an access token
func (c *CalendarCredential) HasToken() bool {
	return c.AccessToken != "" || c.RefreshToken != ""
}

// Normalize fills unset calendar id and reminders with their defaults
func (c *CalendarCredential) Normalize() {
	if c.CalendarID == "" {
		c.CalendarID = DefaultCalendarID
	}
	if len(c.ReminderMinutes) == 0 {
		c.ReminderMinutes = DefaultReminderMinutes()
	}
}
