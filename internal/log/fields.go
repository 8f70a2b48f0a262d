package log

import "sort"

// Field names shared by every log line.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldDurationHuman = "duration_human"
	FieldUserAgent     = "user_agent"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldDimension     = "dimension"
	FieldMetric        = "metric"
	FieldCategory      = "category"
	FieldView          = "view"
	FieldRows          = "rows"
	FieldFrom          = "from"
	FieldTo            = "to"
	FieldCached        = "cached"
	FieldSheetsRef     = "sheets_ref"
	FieldRule          = "rule"
)

const (
	ComponentApp       = "app"
	ComponentHTTP      = "http"
	ComponentAnalytics = "analytics"
	ComponentIngest    = "ingest"
	ComponentView      = "view"
	ComponentStorage   = "storage"
	ComponentAMQP      = "amqp"
	ComponentWorker    = "worker"
	ComponentSheets    = "sheets"
	ComponentCache     = "cache"
	ComponentSecurity  = "security"
	ComponentRateLimit = "rate_limit"
	ComponentTrace     = "trace"
	ComponentBackend   = "backend"
)

const (
	OpCreate  = "create"
	OpList    = "list"
	OpCompute = "compute"
)

// LogFields collects attributes before they are handed to slog.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithQuery adds the dimension and date range of a dashboard query
func (f LogFields) WithQuery(dimension, from, to string) LogFields {
	f[FieldDimension] = dimension
	if from != "" {
		f[FieldFrom] = from
	}
	if to != "" {
		f[FieldTo] = to
	}
	return f
}

// WithView adds the view and metric being computed
func (f LogFields) WithView(view, metric string) LogFields {
	f[FieldView] = view
	if metric != "" {
		f[FieldMetric] = metric
	}
	return f
}

// ToSlice flattens the fields into slog key/value pairs in key order.
func (f LogFields) ToSlice() []any {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]any, 0, len(f)*2)
	for _, k := range keys {
		out = append(out, k, f[k])
	}
	return out
}
