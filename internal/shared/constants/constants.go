package constants

const (
	// Environment constants
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"

	// HTTP Headers
	HeaderAuthorization = "Authorization"
	HeaderXRequestID    = "X-Request-ID"

	// Context keys
	ContextKeyRequestID = "request_id"

	// Database table names
	TableIssues       = "issues"
	TableAuditLedger  = "audit_ledger"
	TableCivicCredits = "civic_credits"
	TableCreditGrants = "credit_grants"

	// Rate limit key namespace for report creation
	RateLimitScopeCreateIssue = "create_issue"
)
