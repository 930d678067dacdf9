package handlers

import (
	"encoding/json"
	"maps"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

// Header sets. Every response carries its endpoint's full set, errors included.
var (
	postHeaders = map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
	schoolHeaders = map[string]string{
		"Content-Type":                 "application/json",
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Headers": "Content-Type,Authorization",
		"Access-Control-Allow-Methods": "GET,OPTIONS",
	}
)

func jsonResp(status int, headers map[string]string, v any) (events.APIGatewayProxyResponse, error) {
	b, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		b, _ = json.Marshal(errorBody{Error: "Failed to encode response", Message: err.Error()})
	}
	return events.APIGatewayProxyResponse{
		StatusCode: status,
		Headers:    maps.Clone(headers),
		Body:       string(b),
	}, nil
}

func preflightResp(headers map[string]string) (events.APIGatewayProxyResponse, error) {
	return events.APIGatewayProxyResponse{
		StatusCode: http.StatusOK,
		Headers:    maps.Clone(headers),
		Body:       "",
	}, nil
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

type explanationBody struct {
	Explanation string `json:"explanation"`
	Cached      bool   `json:"cached"`
}

type fallbackBody struct {
	Error    string `json:"error"`
	Message  string `json:"message"`
	Fallback bool   `json:"fallback"`
}
