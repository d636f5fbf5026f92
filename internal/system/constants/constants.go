package constants

const ApiBasePath = "/api/v1"
const AuthApiPath = "auth"
const ReconciliationsApiPath = "reconciliations"
const HealthApiPath = "health"

type contextKey string

const TraceIDContextKey contextKey = "trace_id"

// StoreAPIKeyHeader carries the shared secret on every Store call.
const StoreAPIKeyHeader = "X-BDA-API-Key"

// Account systems participating in reconciliation.
const (
	SystemPortal = "portal"
	SystemStore  = "store"
)

// Reconciliation modes. Signup runs the full decision table; login runs
// the transparent migration path.
const (
	ModeSignup = "signup"
	ModeLogin  = "login"
)
