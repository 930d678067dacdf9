package logging

import (
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/assert"
)

func TestSanitizeEvent_RedactsSensitiveHeaders(t *testing.T) {
	event := events.APIGatewayProxyRequest{
		HTTPMethod: "POST",
		Body:       `{"password":"kept"}`,
		Headers: map[string]string{
			"Authorization":   "Bearer abc",
			"X-Api-Key":       "key-123",
			"Content-Type":    "application/json",
			"x-session-TOKEN": "tok",
			"X-Client-Secret": "s",
			"X-Password":      "p",
			"apikey":          "k",
		},
		MultiValueHeaders: map[string][]string{
			"authorization": {"Bearer abc"},
			"Accept":        {"application/json"},
		},
	}

	sanitized := SanitizeEvent(event)

	assert.Equal(t, Redacted, sanitized.Headers["Authorization"])
	assert.Equal(t, Redacted, sanitized.Headers["X-Api-Key"])
	assert.Equal(t, Redacted, sanitized.Headers["x-session-TOKEN"])
	assert.Equal(t, Redacted, sanitized.Headers["X-Client-Secret"])
	assert.Equal(t, Redacted, sanitized.Headers["X-Password"])
	assert.Equal(t, Redacted, sanitized.Headers["apikey"])
	assert.Equal(t, "application/json", sanitized.Headers["Content-Type"])
	assert.Equal(t, []string{Redacted}, sanitized.MultiValueHeaders["authorization"])
	assert.Equal(t, []string{"application/json"}, sanitized.MultiValueHeaders["Accept"])

	assert.Equal(t, `{"password":"kept"}`, sanitized.Body, "non-header fields are not sanitized")
	assert.Equal(t, "Bearer abc", event.Headers["Authorization"], "input is not mutated")
}

func TestSanitizeHeaders_Nil(t *testing.T) {
	assert.Nil(t, SanitizeHeaders(nil))
	assert.Nil(t, SanitizeEvent(events.APIGatewayProxyRequest{}).Headers)
}

func TestIsSensitiveHeader(t *testing.T) {
	tests := map[string]bool{
		"Authorization":        true,
		"Proxy-Authorization":  true,
		"X-API-KEY":            true,
		"Content-Type":         false,
		"User-Agent":           false,
		"X-Amz-Security-Token": true,
	}
	for name, want := range tests {
		assert.Equal(t, want, IsSensitiveHeader(name), name)
	}
}
