package log

// Common field names for structured logging.
const (
	FieldComponent   = "component"
	FieldRequestID   = "request_id"
	FieldClientIP    = "client_ip"
	FieldMethod      = "method"
	FieldPath        = "path"
	FieldStatusCode  = "status_code"
	FieldDuration    = "duration_ms"
	FieldError       = "error"
	FieldOperation   = "operation"
	FieldYear        = "year"
	FieldMonth       = "month"
	FieldEntityType  = "entity_type"
	FieldEntityID    = "entity_id"
	FieldTransaction = "transaction_id"
	FieldAccount     = "account_id"
	FieldCategory    = "category_id"
	FieldAmount      = "amount"
	FieldTreatment   = "tax_treatment"
	FieldTaxRate     = "tax_rate"
)

// Components defines standard component names.
const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentLedger    = "ledger"
	ComponentSummary   = "summary"
	ComponentBulk      = "bulk_import"
	ComponentStorage   = "storage"
	ComponentDocuments = "documents"
	ComponentAudit     = "audit"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
)

// Operations defines standard operation names.
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpTransfer = "transfer"
	OpBulk     = "bulk_create"
	OpSummary  = "summary"
	OpMirror   = "mirror"
	OpVerify   = "verify"
	OpStartup  = "startup"
	OpShutdown = "shutdown"
)
