package enums

type AuditOutcome string

const (
	AuditOutcomeOK     AuditOutcome = "OK"
	AuditOutcomeFailed AuditOutcome = "FAILED"
)

type Source string

const (
	SourceListing Source = "LISTING"
	SourceDetail  Source = "DETAIL"
	SourceBot     Source = "BOT"
)
