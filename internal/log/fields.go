package log

// Field names shared across subsystems so log lines stay greppable.
const (
	FieldComponent  = "component"
	FieldRequestID  = "request_id"
	FieldClientIP   = "client_ip"
	FieldMethod     = "method"
	FieldPath       = "path"
	FieldStatusCode = "status"
	FieldDuration   = "duration_ms"
	FieldUserAgent  = "user_agent"
	FieldError      = "error"

	FieldDate        = "date"
	FieldDirection   = "direction"
	FieldCategory    = "category"
	FieldAmountCents = "amount_cents"
	FieldAccount     = "account"
	FieldLedgerRef   = "ledger_ref"
)

// Component names for the subsystems that log.
const (
	ComponentApp     = "app"
	ComponentHTTP    = "http"
	ComponentLedger  = "ledger"
	ComponentStorage = "storage"
	ComponentAMQP    = "amqp"
	ComponentWorker  = "worker"
	ComponentSheets  = "sheets"
)
