package domain

// Quota metric kinds, matching the values the activity quota API accepts.
const (
	MetricMinutes          = "minutes"
	MetricSessionsHosted   = "sessions_hosted"
	MetricSessionsAttended = "sessions_attended"
)

// Permission strings carried by workspace roles.
const (
	PermManageSessions  = "manage_sessions"
	PermManageActivity  = "manage_activity"
	PermManageWorkspace = "manage_workspace"
	PermHostSessions    = "host_sessions"
)

// StatusOpen is the sentinel status for an occurrence before any threshold
// rule matches (including before the session starts).
const StatusOpen = "Open"

// Weekday bounds for schedule templates (0 = Sunday .. 6 = Saturday).
const (
	WeekdayMin = 0
	WeekdayMax = 6
)
