// Package constants provides centralized definitions of constants used throughout the application
package constants

// Environment variable names
const (
	// EnvConfigFile is the path of an optional YAML configuration file
	EnvConfigFile = "JOBCAL_CONFIG"
	// EnvAPIURL is the base URL of the API used by the CLI
	EnvAPIURL = "JOBCAL_API_URL"

	// EnvPort is the HTTP listen port of the server
	EnvPort = "PORT"
	// EnvLogLevel is the logrus level of the server
	EnvLogLevel = "LOG_LEVEL"
	// EnvTimezone is the IANA zone used for "today" and event times
	EnvTimezone = "JOBCAL_TIMEZONE"

	// EnvDBDriver selects postgres or sqlite
	EnvDBDriver = "DB_DRIVER"
	// EnvDBHost is the database host
	EnvDBHost = "DB_HOST"
	// EnvDBPort is the database port
	EnvDBPort = "DB_PORT"
	// EnvDBUser is the database user
	EnvDBUser = "DB_USER"
	// EnvDBPassword is the database password
	EnvDBPassword = "DB_PASSWORD"
	// EnvDBName is the database name
	EnvDBName = "DB_NAME"
	// EnvDBSSLEnabled enables TLS to the database
	EnvDBSSLEnabled = "DB_SSL_ENABLED"
	// EnvDBPath is the SQLite database file
	EnvDBPath = "DB_PATH"

	// EnvWindowDays is the generation window in days
	EnvWindowDays = "WINDOW_DAYS"
	// EnvMinDaysAhead is how far ahead instances must exist before generation is skipped
	EnvMinDaysAhead = "MIN_DAYS_AHEAD"
	// EnvSyncConcurrency bounds concurrent calendar calls of a bulk sync
	EnvSyncConcurrency = "SYNC_CONCURRENCY"
	// EnvAutoSyncEnabled turns on the periodic sync of pending instances
	EnvAutoSyncEnabled = "AUTO_SYNC_ENABLED"
	// EnvAutoSyncCron is the cron schedule of the periodic sync
	EnvAutoSyncCron = "AUTO_SYNC_CRON"

	// EnvCalendarTokenBackendURL is the base URL of the backend that holds the OAuth client secret
	EnvCalendarTokenBackendURL = "CALENDAR_TOKEN_BACKEND_URL"
	// EnvGoogleClientID is the OAuth client id used when no token backend is configured
	EnvGoogleClientID = "GOOGLE_CLIENT_ID"
	// EnvGoogleClientSecret is the OAuth client secret
	EnvGoogleClientSecret = "GOOGLE_CLIENT_SECRET"
	// EnvGoogleRedirectURL is the OAuth redirect URL
	EnvGoogleRedirectURL = "GOOGLE_REDIRECT_URL"
	// EnvGoogleCalendarEndpoint overrides the Google Calendar API base URL
	EnvGoogleCalendarEndpoint = "GOOGLE_CALENDAR_ENDPOINT"
)
