// Package match turns a student, a school and a precomputed match score into a
// short natural-language explanation generated by a hosted model.
package match

import "time"

type Location struct {
	City  string   `json:"city,omitempty"`
	State string   `json:"state,omitempty"`
	Lat   *float64 `json:"lat,omitempty"`
	Lon   *float64 `json:"lon,omitempty"`
}

type StudentProfile struct {
	TrainingGoal           string    `json:"trainingGoal,omitempty"`
	MaxBudget              *float64  `json:"maxBudget,omitempty"`
	Location               *Location `json:"location,omitempty"`
	TrainingTypePreference string    `json:"trainingTypePreference,omitempty"`
	PriorExperience        string    `json:"priorExperience,omitempty"`
}

type CostBand struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

type SchoolProfile struct {
	SchoolID        string    `json:"schoolId,omitempty"`
	Name            string    `json:"name,omitempty"`
	Location        *Location `json:"location,omitempty"`
	CostBand        *CostBand `json:"costBand,omitempty"`
	PrimaryProgram  string    `json:"primaryProgram,omitempty"`
	TrainingType    string    `json:"trainingType,omitempty"`
	InstructorCount *int      `json:"instructorCount,omitempty"`
}

// Request is the inbound explain-match payload. A nil pointer means the field
// was absent or null.
type Request struct {
	Student    *StudentProfile `json:"student"`
	School     *SchoolProfile  `json:"school"`
	MatchScore *float64        `json:"matchScore"`
}

// Explanation is what the model gateway returns for one prompt.
type Explanation struct {
	Text         string
	InputTokens  int
	OutputTokens int
	HasUsage     bool
	// Latency covers only the model round trip.
	Latency time.Duration
}

func (l *Location) coords() (lat, lon *float64) {
	if l == nil {
		return nil, nil
	}
	return l.Lat, l.Lon
}
