package handlers

import (
	"context"
	"net/http"

	"github.com/aws/aws-lambda-go/events"
)

const serviceName = "flightmatch"

type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
}

func Health(_ context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if req.HTTPMethod == http.MethodOptions {
		return preflightResp(schoolHeaders)
	}
	return jsonResp(http.StatusOK, schoolHeaders, HealthResponse{OK: true, Service: serviceName})
}
