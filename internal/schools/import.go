package schools

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

const isoMillis = "2006-01-02T15:04:05.000Z07:00"

var errMissingID = errors.New("school has no id or schoolId")

type sourceLocation struct {
	City        string       `json:"city"`
	State       string       `json:"state"`
	ZipCode     string       `json:"zipCode"`
	Coordinates *Coordinates `json:"coordinates"`
}

type sourceRating struct {
	Score       float64 `json:"score"`
	Count       float64 `json:"count"`
	ReviewCount float64 `json:"reviewCount"`
}

// sourceSchool is the exported mock-data shape. Location is either an object
// or a "City, ST 12345" string.
type sourceSchool struct {
	ID                  string          `json:"id"`
	SchoolID            string          `json:"schoolId"`
	Name                string          `json:"name"`
	Location            json.RawMessage `json:"location"`
	Programs            []string        `json:"programs"`
	CostBand            *CostBand       `json:"costBand"`
	TrainingType        string          `json:"trainingType"`
	TrustTier           string          `json:"trustTier"`
	Description         string          `json:"description"`
	YearsInOperation    *int            `json:"yearsInOperation"`
	Facilities          []string        `json:"facilities"`
	InstructorCount     *int            `json:"instructorCount"`
	ReviewCount         float64         `json:"reviewCount"`
	AvgRating           float64         `json:"avgRating"`
	Rating              *sourceRating   `json:"rating"`
	HeroImageURL        string          `json:"heroImageUrl"`
	ImageURL            string          `json:"imageUrl"`
	FleetDetails        []FleetDetail   `json:"fleetDetails"`
	FleetSize           float64         `json:"fleetSize"`
	Instructors         []any           `json:"instructors"`
	ProgramDetails      []any           `json:"programDetails"`
	Reviews             []any           `json:"reviews"`
	VerificationDetails map[string]any  `json:"verificationDetails"`
	ContactInfo         map[string]any  `json:"contactInfo"`
}

// SplitSource reads a JSON array of exported schools without decoding the
// elements, so that one bad record does not reject the whole file.
func SplitSource(data []byte) ([]json.RawMessage, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("schools file is not a JSON array: %w", err)
	}
	return raw, nil
}

// Transform converts one exported school into a table record stamped with now.
func Transform(raw json.RawMessage, now time.Time) (School, error) {
	var src sourceSchool
	if err := json.Unmarshal(raw, &src); err != nil {
		return School{}, fmt.Errorf("decode school: %w", err)
	}

	id := firstNonEmpty(src.ID, src.SchoolID)
	if id == "" {
		return School{}, errMissingID
	}

	loc, err := decodeLocation(src.Location)
	if err != nil {
		return School{}, fmt.Errorf("school %s: %w", id, err)
	}

	stamp := now.UTC().Format(isoMillis)
	s := School{
		SchoolID:            id,
		Name:                src.Name,
		State:               loc.State,
		City:                loc.City,
		ZipCode:             loc.ZipCode,
		Coordinates:         loc.Coordinates,
		Programs:            orEmpty(src.Programs),
		CostBand:            src.CostBand,
		TrainingType:        src.TrainingType,
		TrustTier:           src.TrustTier,
		Description:         src.Description,
		YearsInOperation:    src.YearsInOperation,
		Facilities:          orEmpty(src.Facilities),
		InstructorCount:     src.InstructorCount,
		ReviewCount:         src.ReviewCount,
		AvgRating:           src.AvgRating,
		HeroImageURL:        firstNonEmpty(src.HeroImageURL, src.ImageURL),
		FleetDetails:        orEmpty(src.FleetDetails),
		FleetSize:           src.FleetSize,
		Instructors:         orEmpty(src.Instructors),
		ProgramDetails:      orEmpty(src.ProgramDetails),
		Reviews:             orEmpty(src.Reviews),
		VerificationDetails: src.VerificationDetails,
		ContactInfo:         src.ContactInfo,
		CreatedAt:           stamp,
		UpdatedAt:           stamp,
	}

	if src.Rating != nil {
		if s.ReviewCount == 0 {
			s.ReviewCount = firstNonZero(src.Rating.Count, src.Rating.ReviewCount)
		}
		if s.AvgRating == 0 {
			s.AvgRating = src.Rating.Score
		}
	}
	if s.FleetSize == 0 {
		for _, f := range src.FleetDetails {
			s.FleetSize += f.Count
		}
	}
	return s, nil
}

func decodeLocation(raw json.RawMessage) (sourceLocation, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return sourceLocation{}, nil
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return sourceLocation{}, fmt.Errorf("decode location: %w", err)
		}
		return sourceLocation{City: ExtractCity(text), State: ExtractState(text)}, nil
	}

	var loc sourceLocation
	if err := json.Unmarshal(raw, &loc); err != nil {
		return sourceLocation{}, fmt.Errorf("decode location: %w", err)
	}
	return loc, nil
}

// ExtractState returns the state code from a "City, ST 12345" string.
func ExtractState(location string) string {
	_, rest, ok := strings.Cut(location, ",")
	if !ok {
		return ""
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// ExtractCity returns the city from a "City, ST 12345" string.
func ExtractCity(location string) string {
	city, _, _ := strings.Cut(location, ",")
	return strings.TrimSpace(city)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func orEmpty[T any](in []T) []T {
	if in == nil {
		return []T{}
	}
	return in
}
