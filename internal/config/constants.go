package config

const (
	// DefaultPK5LURLTemplate is the day-ahead coordination plan (PK5L) report
	// endpoint of the PSE reports API. {business_date} is replaced with the
	// target day in YYYY-MM-DD.
	DefaultPK5LURLTemplate = "https://api.raporty.pse.pl/api/pk5l-wp?$filter=business_date%20eq%20'{business_date}'"

	// DefaultPK5LCollection is the MongoDB collection for PK5L day snapshots.
	DefaultPK5LCollection = "pk5l_wp"

	// DefaultAuditCollection stores one audit document per pipeline run.
	DefaultAuditCollection = "run_audit"

	// DefaultTimezone is the local timezone of PSE business days.
	DefaultTimezone = "Europe/Warsaw"
)
