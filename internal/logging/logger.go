// Package logging provides the per-invocation structured logger used by every
// Lambda in this repository. Each record is a single JSON line carrying the
// invocation identity, the logger's accumulated context and per-call metadata.
package logging

import (
	"context"
	"log/slog"
	"maps"
	"slices"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/google/uuid"
)

// Fields is an open set of key/value pairs merged into a log record.
type Fields map[string]any

const unknown = "unknown"

// Record keys owned by the logger itself.
const (
	KeyTimestamp       = "timestamp"
	KeyLevel           = "level"
	KeyMessage         = "message"
	KeyRequestID       = "requestId"
	KeyFunctionName    = "functionName"
	KeyFunctionVersion = "functionVersion"
)

// Identity is the invocation identity stamped on every record.
type Identity struct {
	RequestID       string
	FunctionName    string
	FunctionVersion string
}

// Logger accumulates context for one invocation and writes records through
// an slog sink. A Logger must not be shared between invocations.
type Logger struct {
	sink    *slog.Logger
	id      Identity
	context Fields
}

// New creates the logger for the invocation carried by ctx. The request ID is
// the platform-provided AWS request ID when present, otherwise a random UUID.
func New(ctx context.Context, sink *slog.Logger) *Logger {
	id := Identity{
		FunctionName:    lambdacontext.FunctionName,
		FunctionVersion: lambdacontext.FunctionVersion,
	}
	if lc, ok := lambdacontext.FromContext(ctx); ok {
		id.RequestID = lc.AwsRequestID
	}
	return NewWithIdentity(id, sink)
}

// NewWithIdentity creates a logger with an explicit identity.
func NewWithIdentity(id Identity, sink *slog.Logger) *Logger {
	if sink == nil {
		sink = slog.Default()
	}
	id.FunctionName = orUnknown(id.FunctionName)
	id.FunctionVersion = orUnknown(id.FunctionVersion)
	if id.RequestID == "" {
		id.RequestID = uuid.NewString()
	}
	return &Logger{sink: sink, id: id, context: Fields{}}
}

// Identity returns the invocation identity.
func (l *Logger) Identity() Identity { return l.id }

// RequestID returns the request ID stamped on every record.
func (l *Logger) RequestID() string { return l.id.RequestID }

// AddContext sets a persistent key included in every later record.
func (l *Logger) AddContext(key string, value any) {
	l.context[key] = value
}

// AddContextBatch merges fields into the persistent context; existing keys
// are overwritten.
func (l *Logger) AddContextBatch(fields Fields) {
	maps.Copy(l.context, fields)
}

// Context returns a copy of the persistent context.
func (l *Logger) Context() Fields {
	return maps.Clone(l.context)
}

// Child returns a logger with the same identity whose context starts as the
// union of this logger's context and extra. The two contexts are independent.
func (l *Logger) Child(extra Fields) *Logger {
	ctx := make(Fields, len(l.context)+len(extra))
	maps.Copy(ctx, l.context)
	maps.Copy(ctx, extra)
	return &Logger{sink: l.sink, id: l.id, context: ctx}
}

func (l *Logger) Debug(message string, metadata Fields) {
	l.log(slog.LevelDebug, message, metadata)
}

func (l *Logger) Info(message string, metadata Fields) {
	l.log(slog.LevelInfo, message, metadata)
}

func (l *Logger) Warn(message string, metadata Fields) {
	l.log(slog.LevelWarn, message, metadata)
}

// Error logs at ERROR level. When err is non-nil its details are nested under
// the "error" key of the metadata.
func (l *Logger) Error(message string, err error, metadata Fields) {
	fields := make(Fields, len(metadata)+1)
	maps.Copy(fields, metadata)
	if err != nil {
		fields["error"] = describeError(err)
	}
	l.log(slog.LevelError, message, fields)
}

// LogEvent records the shape of an inbound API Gateway request. The body is
// never logged.
func (l *Logger) LogEvent(event events.APIGatewayProxyRequest) {
	sanitized := SanitizeEvent(event)
	eventType := sanitized.HTTPMethod
	if eventType == "" {
		eventType = unknown
	}
	l.Info("Lambda invocation started", Fields{
		"eventType":             eventType,
		"path":                  sanitized.Path,
		"resource":              sanitized.Resource,
		"httpMethod":            sanitized.HTTPMethod,
		"queryStringParameters": sanitized.QueryStringParameters,
		"pathParameters":        sanitized.PathParameters,
	})
}

// LogResponse records the outgoing status code.
func (l *Logger) LogResponse(statusCode int, metadata Fields) {
	fields := make(Fields, len(metadata)+1)
	fields["statusCode"] = statusCode
	maps.Copy(fields, metadata)
	l.log(slog.LevelInfo, "Lambda invocation completed", fields)
}

func (l *Logger) log(level slog.Level, message string, metadata Fields) {
	ctx := context.Background()
	if !l.sink.Enabled(ctx, level) {
		return
	}

	merged := make(Fields, 3+len(l.context)+len(metadata))
	merged[KeyRequestID] = l.id.RequestID
	merged[KeyFunctionName] = l.id.FunctionName
	merged[KeyFunctionVersion] = l.id.FunctionVersion
	maps.Copy(merged, l.context)
	maps.Copy(merged, metadata)

	attrs := make([]slog.Attr, 0, len(merged))
	for _, key := range []string{KeyRequestID, KeyFunctionName, KeyFunctionVersion} {
		attrs = append(attrs, slog.Any(key, merged[key]))
		delete(merged, key)
	}
	for _, key := range slices.Sorted(maps.Keys(merged)) {
		if reserved(key) {
			continue
		}
		attrs = append(attrs, slog.Any(key, merged[key]))
	}

	l.sink.LogAttrs(ctx, level, message, attrs...)
}

func reserved(key string) bool {
	switch key {
	case KeyTimestamp, KeyLevel, KeyMessage, slog.TimeKey, slog.MessageKey:
		return true
	}
	return false
}

func orUnknown(s string) string {
	if s == "" {
		return unknown
	}
	return s
}
