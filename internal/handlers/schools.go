package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"

	"flightmatch/internal/logging"
	"flightmatch/internal/schools"
)

type SchoolReader interface {
	Get(ctx context.Context, schoolID string) (*schools.School, error)
	List(ctx context.Context, state string) ([]schools.School, error)
}

type SchoolsHandler struct {
	store SchoolReader
	sink  *slog.Logger
}

func NewSchoolsHandler(store SchoolReader, sink *slog.Logger) *SchoolsHandler {
	return &SchoolsHandler{store: store, sink: sink}
}

type schoolList struct {
	Schools []schools.School `json:"schools"`
	Count   int              `json:"count"`
}

// List serves GET /schools.
func (h *SchoolsHandler) List(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := logging.New(ctx, h.sink)
	log.LogEvent(req)
	if req.HTTPMethod == http.MethodOptions {
		return preflightResp(schoolHeaders)
	}

	q := schools.ParseQuery(req.QueryStringParameters)
	log.AddContextBatch(logging.Fields{"state": q.State, "sortBy": q.SortBy})

	items, err := h.store.List(ctx, q.State)
	if err != nil {
		log.Error("Failed to retrieve schools", err, nil)
		log.LogResponse(http.StatusInternalServerError, nil)
		return jsonResp(http.StatusInternalServerError, schoolHeaders, errorBody{
			Error:   "Failed to retrieve schools",
			Message: err.Error(),
		})
	}

	items = schools.Sort(schools.Filter(items, q), q.SortBy)
	log.LogResponse(http.StatusOK, logging.Fields{"count": len(items)})
	return jsonResp(http.StatusOK, schoolHeaders, schoolList{Schools: items, Count: len(items)})
}

// Get serves GET /schools/{schoolId}.
func (h *SchoolsHandler) Get(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := logging.New(ctx, h.sink)
	log.LogEvent(req)
	if req.HTTPMethod == http.MethodOptions {
		return preflightResp(schoolHeaders)
	}

	schoolID := strings.TrimSpace(req.PathParameters["schoolId"])
	if schoolID == "" {
		log.Warn("Missing schoolId parameter", nil)
		log.LogResponse(http.StatusBadRequest, nil)
		return jsonResp(http.StatusBadRequest, schoolHeaders, errorBody{Error: "Missing schoolId parameter"})
	}
	log.AddContext("schoolId", schoolID)

	school, err := h.store.Get(ctx, schoolID)
	if errors.Is(err, schools.ErrNotFound) {
		log.LogResponse(http.StatusNotFound, nil)
		return jsonResp(http.StatusNotFound, schoolHeaders, errorBody{Error: "School not found"})
	}
	if err != nil {
		log.Error("Failed to retrieve school", err, nil)
		log.LogResponse(http.StatusInternalServerError, nil)
		return jsonResp(http.StatusInternalServerError, schoolHeaders, errorBody{
			Error:   "Failed to retrieve school",
			Message: err.Error(),
		})
	}

	log.LogResponse(http.StatusOK, nil)
	return jsonResp(http.StatusOK, schoolHeaders, school)
}
