package handlers

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"

	"flightmatch/internal/logging"
	"flightmatch/internal/match"
)

const explainFailedMessage = "Failed to generate explanation"

// Explainer produces an explanation for a rendered prompt.
type Explainer interface {
	Explain(ctx context.Context, prompt string) (match.Explanation, error)
}

type ExplainHandler struct {
	explainer Explainer
	sink      *slog.Logger
	now       func() time.Time
}

func NewExplainHandler(explainer Explainer, sink *slog.Logger) *ExplainHandler {
	return &ExplainHandler{explainer: explainer, sink: sink, now: time.Now}
}

// Handle serves POST /explain-match. Request-level failures always come back
// as a JSON envelope with CORS headers and a nil error.
func (h *ExplainHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	log := logging.New(ctx, h.sink)
	ctx = logging.NewContext(ctx, log)
	start := h.now()
	log.LogEvent(req)

	if req.HTTPMethod == http.MethodOptions {
		log.LogResponse(http.StatusOK, logging.Fields{"preflight": true})
		return preflightResp(postHeaders)
	}

	exp, err := h.run(ctx, log, req)
	if err != nil {
		f := match.AsFailure(err)
		if f.Kind == match.KindValidation {
			log.LogResponse(http.StatusBadRequest, logging.Fields{"durationMs": h.since(start)})
			return jsonResp(http.StatusBadRequest, postHeaders, errorBody{Error: f.Message})
		}

		log.Error("Error generating explanation", f, logging.Fields{
			"failureKind": f.Kind.String(),
			"durationMs":  h.since(start),
		})
		log.LogResponse(http.StatusInternalServerError, logging.Fields{"fallback": true, "durationMs": h.since(start)})
		return jsonResp(http.StatusInternalServerError, postHeaders, fallbackBody{
			Error:    explainFailedMessage,
			Message:  f.Message,
			Fallback: true,
		})
	}

	log.LogResponse(http.StatusOK, logging.Fields{
		"cached":         false,
		"durationMs":     h.since(start),
		"modelLatencyMs": exp.Latency.Milliseconds(),
	})
	return jsonResp(http.StatusOK, postHeaders, explanationBody{Explanation: exp.Text, Cached: false})
}

// run is the pipeline behind the single error boundary in Handle. Panics are
// converted into unexpected failures.
func (h *ExplainHandler) run(ctx context.Context, log *logging.Logger, req events.APIGatewayProxyRequest) (exp match.Explanation, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = match.UnexpectedFailure(fmt.Errorf("panic: %v", r))
		}
	}()

	parsed, err := match.ParseRequest(req.Body, req.IsBase64Encoded)
	if err != nil {
		return exp, match.UnexpectedFailure(err)
	}

	presence, failure := match.Validate(parsed)
	if failure != nil {
		log.Warn("Missing required fields", logging.Fields{
			"hasStudent":    presence.HasStudent,
			"hasSchool":     presence.HasSchool,
			"hasMatchScore": presence.HasMatchScore,
		})
		return exp, failure
	}

	log.AddContextBatch(logging.Fields{
		"schoolId":     parsed.School.SchoolID,
		"schoolName":   parsed.School.Name,
		"matchScore":   *parsed.MatchScore,
		"trainingGoal": parsed.Student.TrainingGoal,
	})

	prompt := match.BuildPrompt(*parsed.Student, *parsed.School, *parsed.MatchScore)
	log.Debug("Prompt built", logging.Fields{"promptLength": len(prompt)})

	exp, err = h.explainer.Explain(ctx, prompt)
	if err != nil {
		var f *match.Failure
		if !errors.As(err, &f) {
			err = match.GatewayFailure(err)
		}
		return exp, err
	}

	fields := logging.Fields{
		"modelLatencyMs":    exp.Latency.Milliseconds(),
		"explanationLength": len(exp.Text),
	}
	if exp.HasUsage {
		fields["inputTokens"] = exp.InputTokens
		fields["outputTokens"] = exp.OutputTokens
	}
	log.Info("Explanation generated", fields)
	return exp, nil
}

func (h *ExplainHandler) since(start time.Time) int64 {
	return h.now().Sub(start).Milliseconds()
}
