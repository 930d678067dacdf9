package logging

import (
	"strings"

	"github.com/aws/aws-lambda-go/events"
)

// Redacted replaces the value of any sensitive header.
const Redacted = "[REDACTED]"

var sensitiveHeaderParts = []string{"authorization", "password", "token", "secret", "apikey", "api-key"}

// SanitizeEvent returns a shallow copy of event whose headers have sensitive
// values replaced with Redacted. Matching is on lowercased substrings of the
// header name. Non-header fields are left untouched.
func SanitizeEvent(event events.APIGatewayProxyRequest) events.APIGatewayProxyRequest {
	sanitized := event
	sanitized.Headers = SanitizeHeaders(event.Headers)
	if event.MultiValueHeaders != nil {
		mv := make(map[string][]string, len(event.MultiValueHeaders))
		for k, v := range event.MultiValueHeaders {
			if IsSensitiveHeader(k) {
				mv[k] = []string{Redacted}
				continue
			}
			mv[k] = v
		}
		sanitized.MultiValueHeaders = mv
	}
	return sanitized
}

// SanitizeHeaders returns a copy of headers with sensitive values redacted.
func SanitizeHeaders(headers map[string]string) map[string]string {
	if headers == nil {
		return nil
	}
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		if IsSensitiveHeader(k) {
			out[k] = Redacted
			continue
		}
		out[k] = v
	}
	return out
}

// IsSensitiveHeader reports whether the header name contains a denylisted part.
func IsSensitiveHeader(name string) bool {
	lower := strings.ToLower(name)
	for _, part := range sensitiveHeaderParts {
		if strings.Contains(lower, part) {
			return true
		}
	}
	return false
}
