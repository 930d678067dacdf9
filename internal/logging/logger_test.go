package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLogger(t *testing.T, level slog.Level) (*Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	l := NewWithIdentity(Identity{
		RequestID:       "req-123",
		FunctionName:    "match-explainer",
		FunctionVersion: "$LATEST",
	}, NewJSONSink(&buf, level))
	return l, &buf
}

func decodeLines(t *testing.T, buf *bytes.Buffer) []map[string]any {
	t.Helper()
	var records []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), "line is not JSON: %s", line)
		records = append(records, rec)
	}
	return records
}

func TestLogger_RecordShape(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)

	l.Debug("debugging", nil)
	l.Info("informing", Fields{"k": "v"})
	l.Warn("warning", nil)
	l.Error("failing", nil, nil)

	records := decodeLines(t, buf)
	require.Len(t, records, 4)

	levels := []string{"DEBUG", "INFO", "WARN", "ERROR"}
	messages := []string{"debugging", "informing", "warning", "failing"}
	for i, rec := range records {
		for _, key := range []string{KeyTimestamp, KeyLevel, KeyRequestID, KeyFunctionName, KeyFunctionVersion, KeyMessage} {
			assert.Contains(t, rec, key)
		}
		assert.Equal(t, levels[i], rec[KeyLevel])
		assert.Equal(t, messages[i], rec[KeyMessage])
		assert.Equal(t, "req-123", rec[KeyRequestID])
		assert.Equal(t, "match-explainer", rec[KeyFunctionName])
		assert.Equal(t, "$LATEST", rec[KeyFunctionVersion])

		ts, ok := rec[KeyTimestamp].(string)
		require.True(t, ok)
		_, err := time.Parse(time.RFC3339Nano, ts)
		assert.NoError(t, err)
		assert.True(t, strings.HasSuffix(ts, "Z"))
	}
	assert.Equal(t, "v", records[1]["k"])
}

func TestLogger_RequestIDStableAcrossRecords(t *testing.T) {
	var buf bytes.Buffer
	l := New(context.Background(), NewJSONSink(&buf, slog.LevelDebug))

	for i := 0; i < 5; i++ {
		l.Info(fmt.Sprintf("record %d", i), nil)
	}

	records := decodeLines(t, &buf)
	require.Len(t, records, 5)
	first := records[0][KeyRequestID]
	assert.NotEmpty(t, first)
	for _, rec := range records {
		assert.Equal(t, first, rec[KeyRequestID])
	}
}

func TestNew_UsesLambdaRequestID(t *testing.T) {
	ctx := lambdacontext.NewContext(context.Background(), &lambdacontext.LambdaContext{
		AwsRequestID: "aws-req-42",
	})
	l := New(ctx, NewJSONSink(&bytes.Buffer{}, slog.LevelDebug))
	assert.Equal(t, "aws-req-42", l.RequestID())
}

func TestNew_GeneratesRequestIDWithoutLambdaContext(t *testing.T) {
	a := New(context.Background(), nil)
	b := New(context.Background(), nil)
	assert.NotEmpty(t, a.RequestID())
	assert.NotEqual(t, a.RequestID(), b.RequestID())
}

func TestNewWithIdentity_DefaultsUnknownFunction(t *testing.T) {
	l := NewWithIdentity(Identity{RequestID: "r"}, nil)
	assert.Equal(t, "unknown", l.Identity().FunctionName)
	assert.Equal(t, "unknown", l.Identity().FunctionVersion)
}

func TestLogger_MergeOrder(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)

	l.AddContext("schoolId", "school-001")
	l.AddContext("stage", "first")
	l.AddContextBatch(Fields{"stage": "second", "matchScore": 88})
	l.Info("merged", Fields{"stage": "call", "extra": true})
	l.Info("context only", nil)

	records := decodeLines(t, buf)
	require.Len(t, records, 2)

	assert.Equal(t, "call", records[0]["stage"], "per-call metadata overrides persistent context")
	assert.Equal(t, "school-001", records[0]["schoolId"])
	assert.Equal(t, float64(88), records[0]["matchScore"])
	assert.Equal(t, true, records[0]["extra"])

	assert.Equal(t, "second", records[1]["stage"], "batch additions override earlier keys")
	assert.NotContains(t, records[1], "extra")
}

func TestLogger_MetadataCannotOverrideRecordKeys(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)

	l.Info("real message", Fields{"message": "fake", "level": "FAKE", "timestamp": "never"})

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "real message", records[0][KeyMessage])
	assert.Equal(t, "INFO", records[0][KeyLevel])
	assert.NotEqual(t, "never", records[0][KeyTimestamp])
	assert.Equal(t, 1, strings.Count(buf.String(), `"message"`))
}

func TestLogger_MetadataUsingSlogBuiltinKeys(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)
	l.AddContext("time", "09:30")

	require.NotPanics(t, func() {
		l.Info("hello", Fields{"time": "12:00", "msg": "meta", "level": "loud"})
		l.LogResponse(200, Fields{"time": "12:00"})
	})

	records := decodeLines(t, buf)
	require.Len(t, records, 2)
	for _, r := range records {
		assert.Equal(t, "INFO", r[KeyLevel])
		assert.NotContains(t, r, "time")
		assert.NotContains(t, r, "msg")
	}
	assert.Equal(t, "hello", records[0][KeyMessage])
	assert.Equal(t, float64(200), records[1]["statusCode"])
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		assert.Equal(t, 1, strings.Count(line, `"message"`))
		assert.Equal(t, 1, strings.Count(line, `"level"`))
	}
}

func TestReplaceBuiltins_NonTimeValueUnderTimeKey(t *testing.T) {
	a := replaceBuiltins(nil, slog.String(slog.TimeKey, "noon"))
	assert.Equal(t, slog.TimeKey, a.Key)
	assert.Equal(t, "noon", a.Value.String())
}

func TestLogger_LevelFiltering(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelWarn)

	l.Debug("hidden", nil)
	l.Info("hidden", nil)
	l.Warn("shown", nil)

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "WARN", records[0][KeyLevel])
}

type httpStatusError struct{ status int }

func (e httpStatusError) Error() string       { return fmt.Sprintf("status %d", e.status) }
func (e httpStatusError) HTTPStatusCode() int { return e.status }

type namedTestError struct{}

func (namedTestError) Error() string { return "named failure" }
func (namedTestError) Name() string  { return "NamedTestError" }
func (namedTestError) Stack() string { return "created here" }

func TestLogger_ErrorNestsDetails(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantName   string
		wantCode   string
		wantStatus float64
		wantStack  string
	}{
		{
			name:     "plain error uses root type name",
			err:      fmt.Errorf("wrapped: %w", errors.New("boom")),
			wantName: "errors.errorString",
		},
		{
			name:     "aws api error exposes code as name",
			err:      &smithy.GenericAPIError{Code: "ThrottlingException", Message: "Rate exceeded"},
			wantName: "ThrottlingException",
			wantCode: "ThrottlingException",
		},
		{
			name:       "status code is included when present",
			err:        httpStatusError{status: 503},
			wantName:   "logging.httpStatusError",
			wantStatus: 503,
		},
		{
			name:      "explicit name and stack win",
			err:       namedTestError{},
			wantName:  "NamedTestError",
			wantStack: "created here",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, buf := newTestLogger(t, slog.LevelDebug)
			l.Error("operation failed", tt.err, Fields{"step": "invoke"})

			records := decodeLines(t, buf)
			require.Len(t, records, 1)
			rec := records[0]
			assert.Equal(t, "ERROR", rec[KeyLevel])
			assert.Equal(t, "invoke", rec["step"])

			detail, ok := rec["error"].(map[string]any)
			require.True(t, ok, "error detail should be an object")
			assert.Equal(t, tt.err.Error(), detail["message"])
			assert.Equal(t, tt.wantName, detail["name"])
			assert.NotEmpty(t, detail["stack"])
			if tt.wantStack != "" {
				assert.Equal(t, tt.wantStack, detail["stack"])
			}
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, detail["code"])
			} else {
				assert.NotContains(t, detail, "code")
			}
			if tt.wantStatus != 0 {
				assert.Equal(t, tt.wantStatus, detail["statusCode"])
			} else {
				assert.NotContains(t, detail, "statusCode")
			}
		})
	}
}

func TestLogger_ErrorWithoutErrorObject(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)
	l.Error("no error attached", nil, Fields{"k": 1})

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.NotContains(t, records[0], "error")
	assert.Equal(t, float64(1), records[0]["k"])
}

func TestLogger_LogEventOmitsBodyAndHeaders(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)

	l.LogEvent(events.APIGatewayProxyRequest{
		HTTPMethod:            "POST",
		Path:                  "/explain-match",
		Resource:              "/explain-match",
		Headers:               map[string]string{"Authorization": "Bearer secret"},
		QueryStringParameters: map[string]string{"debug": "1"},
		Body:                  `{"student":{"name":"private"}}`,
	})

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	rec := records[0]
	assert.Equal(t, "Lambda invocation started", rec[KeyMessage])
	assert.Equal(t, "POST", rec["eventType"])
	assert.Equal(t, "POST", rec["httpMethod"])
	assert.Equal(t, "/explain-match", rec["path"])
	assert.Equal(t, "/explain-match", rec["resource"])
	assert.Equal(t, map[string]any{"debug": "1"}, rec["queryStringParameters"])
	assert.NotContains(t, buf.String(), "private")
	assert.NotContains(t, buf.String(), "Bearer secret")
}

func TestLogger_LogEventUnknownType(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)
	l.LogEvent(events.APIGatewayProxyRequest{})

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "unknown", records[0]["eventType"])
}

func TestLogger_LogResponse(t *testing.T) {
	l, buf := newTestLogger(t, slog.LevelDebug)
	l.LogResponse(200, Fields{"cached": false, "latencyMs": 12})

	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "Lambda invocation completed", records[0][KeyMessage])
	assert.Equal(t, float64(200), records[0]["statusCode"])
	assert.Equal(t, false, records[0]["cached"])
	assert.Equal(t, float64(12), records[0]["latencyMs"])
}

func TestLogger_ChildHasIndependentContext(t *testing.T) {
	parent, buf := newTestLogger(t, slog.LevelDebug)
	parent.AddContext("shared", "parent")

	child := parent.Child(Fields{"component": "gateway"})
	child.AddContext("childOnly", true)
	parent.AddContext("parentOnly", true)

	assert.Equal(t, parent.RequestID(), child.RequestID())
	assert.Equal(t, Fields{"shared": "parent", "component": "gateway", "childOnly": true}, child.Context())
	assert.Equal(t, Fields{"shared": "parent", "parentOnly": true}, parent.Context())

	child.Info("from child", nil)
	records := decodeLines(t, buf)
	require.Len(t, records, 1)
	assert.Equal(t, "req-123", records[0][KeyRequestID])
	assert.Equal(t, "gateway", records[0]["component"])
	assert.NotContains(t, records[0], "parentOnly")
}

func TestContext_RoundTrip(t *testing.T) {
	l, _ := newTestLogger(t, slog.LevelDebug)
	ctx := NewContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
