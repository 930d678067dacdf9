package match

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// MissingFieldsMessage is the 400 error text for an incomplete request.
const MissingFieldsMessage = "Missing required fields: student, school, matchScore"

var (
	errEmptyBody = errors.New("request body is empty")
	errNullBody  = errors.New("request body is null")
)

// FieldPresence records which required fields a request carried.
type FieldPresence struct {
	HasStudent    bool `json:"hasStudent"`
	HasSchool     bool `json:"hasSchool"`
	HasMatchScore bool `json:"hasMatchScore"`
}

func (p FieldPresence) Complete() bool {
	return p.HasStudent && p.HasSchool && p.HasMatchScore
}

// ParseRequest decodes an API Gateway body. Bodies that arrive as a JSON
// string holding the payload are unwrapped once.
func ParseRequest(body string, isBase64 bool) (Request, error) {
	if isBase64 {
		raw, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return Request{}, fmt.Errorf("decode base64 body: %w", err)
		}
		body = string(raw)
	}

	trimmed := strings.TrimSpace(body)
	if trimmed == "" {
		return Request{}, errEmptyBody
	}
	if strings.HasPrefix(trimmed, `"`) {
		var inner string
		if err := json.Unmarshal([]byte(trimmed), &inner); err != nil {
			return Request{}, fmt.Errorf("parse request body: %w", err)
		}
		trimmed = strings.TrimSpace(inner)
	}
	if trimmed == "null" {
		return Request{}, errNullBody
	}

	var req Request
	if err := json.Unmarshal([]byte(trimmed), &req); err != nil {
		return Request{}, fmt.Errorf("parse request body: %w", err)
	}
	return req, nil
}

// Validate reports which required fields are present. A matchScore of 0 is
// present; null counts as absent.
func Validate(req Request) (FieldPresence, *Failure) {
	p := FieldPresence{
		HasStudent:    req.Student != nil,
		HasSchool:     req.School != nil,
		HasMatchScore: req.MatchScore != nil,
	}
	if !p.Complete() {
		return p, ValidationFailure(MissingFieldsMessage)
	}
	return p, nil
}
