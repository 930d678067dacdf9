// Package localgw serves API Gateway proxy handlers over plain HTTP for
// local development.
package localgw

import (
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambdacontext"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

// HandlerFunc is the signature every API Gateway Lambda handler in this repo has.
type HandlerFunc func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// Adapt converts an HTTP request into a REST proxy event, invokes fn with a
// Lambda context carrying a fresh request ID, and writes the response back.
func Adapt(name string, fn HandlerFunc, log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		req, err := ToProxyRequest(r)
		if err != nil {
			log.Error("failed to read request", "function", name, "error", err)
			http.Error(w, "Error reading body", http.StatusBadRequest)
			return
		}

		ctx := lambdacontext.NewContext(r.Context(), &lambdacontext.LambdaContext{
			AwsRequestID:       req.RequestContext.RequestID,
			InvokedFunctionArn: "arn:aws:lambda:local:000000000000:function:" + name,
		})
		resp, err := fn(ctx, req)
		if err != nil {
			log.Error("handler returned error", "function", name, "error", err)
			http.Error(w, "Error invoking handler", http.StatusBadGateway)
			return
		}
		if err := WriteProxyResponse(w, resp); err != nil {
			log.Error("failed to write response", "function", name, "error", err)
			return
		}
		log.Info(fmt.Sprintf("%s %s", r.Method, r.URL.Path),
			"function", name,
			"status", resp.StatusCode,
			"bytes", len(resp.Body),
			"duration", time.Since(start))
	}
}

func ToProxyRequest(r *http.Request) (events.APIGatewayProxyRequest, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return events.APIGatewayProxyRequest{}, err
	}

	requestID := uuid.NewString()
	resource := r.URL.Path
	var pathParams map[string]string
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			resource = pattern
		}
		for i, key := range rctx.URLParams.Keys {
			if key == "*" {
				continue
			}
			if pathParams == nil {
				pathParams = map[string]string{}
			}
			pathParams[key] = rctx.URLParams.Values[i]
		}
	}

	req := events.APIGatewayProxyRequest{
		Resource:          resource,
		Path:              r.URL.Path,
		HTTPMethod:        r.Method,
		Headers:           map[string]string{"Host": r.Host},
		MultiValueHeaders: map[string][]string{"Host": {r.Host}},
		PathParameters:    pathParams,
		RequestContext: events.APIGatewayProxyRequestContext{
			RequestID:    requestID,
			Stage:        "local",
			ResourcePath: resource,
			HTTPMethod:   r.Method,
			Path:         r.URL.Path,
			Identity:     events.APIGatewayRequestIdentity{SourceIP: remoteIP(r.RemoteAddr), UserAgent: r.UserAgent()},
		},
		Body: string(body),
	}
	for header, values := range r.Header {
		for _, value := range values {
			req.Headers[header] = value
			req.MultiValueHeaders[header] = append(req.MultiValueHeaders[header], value)
		}
	}
	if query := r.URL.Query(); len(query) > 0 {
		req.QueryStringParameters = map[string]string{}
		req.MultiValueQueryStringParameters = map[string][]string{}
		for key, values := range query {
			for _, value := range values {
				req.QueryStringParameters[key] = value
				req.MultiValueQueryStringParameters[key] = append(req.MultiValueQueryStringParameters[key], value)
			}
		}
	}
	if !utf8.Valid(body) {
		req.IsBase64Encoded = true
		req.Body = base64.StdEncoding.EncodeToString(body)
	}
	return req, nil
}

func WriteProxyResponse(w http.ResponseWriter, resp events.APIGatewayProxyResponse) error {
	for header, value := range resp.Headers {
		w.Header().Set(header, value)
	}
	for header, values := range resp.MultiValueHeaders {
		w.Header().Del(header)
		for _, value := range values {
			w.Header().Add(header, value)
		}
	}

	body := []byte(resp.Body)
	if resp.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(resp.Body)
		if err != nil {
			http.Error(w, "Error base64-decoding response body", http.StatusInternalServerError)
			return err
		}
		body = decoded
	}
	status := resp.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	_, err := w.Write(body)
	return err
}

func remoteIP(addr string) string {
	if i := strings.LastIndexByte(addr, ':'); i > 0 {
		return strings.Trim(addr[:i], "[]")
	}
	return addr
}
