package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/aws/aws-lambda-go/events"

	"flightmatch/internal/inquiry"
	"flightmatch/internal/logging"
)

type InquiryNotifier interface {
	Notify(ctx context.Context, in inquiry.Inquiry) (string, error)
}

type InquiryHandler struct {
	notifier InquiryNotifier
	sink     *slog.Logger
}

func NewInquiryHandler(n InquiryNotifier, sink *slog.Logger) *InquiryHandler {
	return &InquiryHandler{notifier: n, sink: sink}
}

type invalidInquiryBody struct {
	Error  string              `json:"error"`
	Fields inquiry.FieldErrors `json:"fields,omitempty"`
}

type acceptedBody struct {
	Accepted  bool   `json:"accepted"`
	MessageID string `json:"messageId"`
}

// Handle serves POST /inquiries.
func (h *InquiryHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := logging.New(ctx, h.sink)
	log.LogEvent(req)
	if req.HTTPMethod == http.MethodOptions {
		return preflightResp(postHeaders)
	}

	var in inquiry.Inquiry
	if err := json.Unmarshal([]byte(req.Body), &in); err != nil {
		log.Warn("Invalid inquiry body", logging.Fields{"reason": err.Error()})
		log.LogResponse(http.StatusBadRequest, nil)
		return jsonResp(http.StatusBadRequest, postHeaders, invalidInquiryBody{Error: "Invalid inquiry"})
	}
	log.AddContextBatch(logging.Fields{"schoolId": in.SchoolID, "tourRequest": in.TourRequest})

	if err := inquiry.Validate(in); err != nil {
		var fe inquiry.FieldErrors
		if !errors.As(err, &fe) {
			log.Error("Inquiry validation failed", err, nil)
			log.LogResponse(http.StatusInternalServerError, nil)
			return jsonResp(http.StatusInternalServerError, postHeaders, errorBody{Error: "Failed to submit inquiry", Message: err.Error()})
		}
		log.Warn("Invalid inquiry", logging.Fields{"fields": fe})
		log.LogResponse(http.StatusBadRequest, nil)
		return jsonResp(http.StatusBadRequest, postHeaders, invalidInquiryBody{Error: "Invalid inquiry", Fields: fe})
	}

	id, err := h.notifier.Notify(ctx, in)
	if err != nil {
		log.Error("Failed to publish inquiry", err, nil)
		log.LogResponse(http.StatusInternalServerError, nil)
		return jsonResp(http.StatusInternalServerError, postHeaders, errorBody{Error: "Failed to submit inquiry", Message: err.Error()})
	}

	log.LogResponse(http.StatusAccepted, logging.Fields{"messageId": id})
	return jsonResp(http.StatusAccepted, postHeaders, acceptedBody{Accepted: true, MessageID: id})
}
