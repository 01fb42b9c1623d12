package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldTransactionID = "transaction_id"
	FieldCategoryID    = "category_id"
	FieldCategoryName  = "category_name"
	FieldAmountCents   = "amount_cents"
	FieldReceiptURL    = "receipt_url"
	FieldBackend       = "backend"
)

// Components defines standard component names
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentTransaction = "transaction"
	ComponentCategory    = "category"
	ComponentBalance     = "balance"
	ComponentProfile     = "profile"
	ComponentStorage     = "storage"
	ComponentReceipts    = "receipts"
	ComponentIdentity    = "identity"
	ComponentEvents      = "events"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
	ComponentBackend     = "backend"
	ComponentSession     = "session"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpRead     = "read"
	OpDelete   = "delete"
	OpList     = "list"
	OpVerify   = "verify"
	OpUpload   = "upload"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)
