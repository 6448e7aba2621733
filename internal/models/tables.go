package models

// Table names are settable from configuration so one database can host
// several deployments. SetTableNames must run before any GORM access.
var (
	accountsTable  = "accounts"
	sessionsTable  = "sessions"
	usageLogsTable = "usage_logs"
)

func SetTableNames(accounts, sessions, usageLogs string) {
	if accounts != "" {
		accountsTable = accounts
	}
	if sessions != "" {
		sessionsTable = sessions
	}
	if usageLogs != "" {
		usageLogsTable = usageLogs
	}
}
