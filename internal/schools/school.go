// Package schools holds the flight-school record and its DynamoDB storage.
package schools

type CostBand struct {
	Min *float64 `dynamodbav:"min,omitempty" json:"min,omitempty"`
	Max *float64 `dynamodbav:"max,omitempty" json:"max,omitempty"`
}

type Coordinates struct {
	Lat *float64 `dynamodbav:"lat,omitempty" json:"lat,omitempty"`
	Lon *float64 `dynamodbav:"lon,omitempty" json:"lon,omitempty"`
}

type FleetDetail struct {
	AircraftType string  `dynamodbav:"aircraftType,omitempty" json:"aircraftType,omitempty"`
	Count        float64 `dynamodbav:"count" json:"count"`
	Availability string  `dynamodbav:"availability,omitempty" json:"availability,omitempty"`
}

// School is one record of the schools table, keyed by SchoolID. State backs
// the state GSI.
type School struct {
	SchoolID            string         `dynamodbav:"schoolId" json:"schoolId"`
	Name                string         `dynamodbav:"name" json:"name"`
	State               string         `dynamodbav:"state,omitempty" json:"state,omitempty"`
	City                string         `dynamodbav:"city,omitempty" json:"city,omitempty"`
	ZipCode             string         `dynamodbav:"zipCode,omitempty" json:"zipCode,omitempty"`
	Coordinates         *Coordinates   `dynamodbav:"coordinates,omitempty" json:"coordinates,omitempty"`
	Programs            []string       `dynamodbav:"programs" json:"programs"`
	CostBand            *CostBand      `dynamodbav:"costBand,omitempty" json:"costBand,omitempty"`
	TrainingType        string         `dynamodbav:"trainingType,omitempty" json:"trainingType,omitempty"`
	TrustTier           string         `dynamodbav:"trustTier,omitempty" json:"trustTier,omitempty"`
	Description         string         `dynamodbav:"description,omitempty" json:"description,omitempty"`
	YearsInOperation    *int           `dynamodbav:"yearsInOperation,omitempty" json:"yearsInOperation,omitempty"`
	Facilities          []string       `dynamodbav:"facilities" json:"facilities"`
	InstructorCount     *int           `dynamodbav:"instructorCount,omitempty" json:"instructorCount,omitempty"`
	ReviewCount         float64        `dynamodbav:"reviewCount" json:"reviewCount"`
	AvgRating           float64        `dynamodbav:"avgRating" json:"avgRating"`
	HeroImageURL        string         `dynamodbav:"heroImageUrl,omitempty" json:"heroImageUrl,omitempty"`
	FleetDetails        []FleetDetail  `dynamodbav:"fleetDetails" json:"fleetDetails"`
	FleetSize           float64        `dynamodbav:"fleetSize" json:"fleetSize"`
	Instructors         []any          `dynamodbav:"instructors" json:"instructors"`
	ProgramDetails      []any          `dynamodbav:"programDetails" json:"programDetails"`
	Reviews             []any          `dynamodbav:"reviews" json:"reviews"`
	VerificationDetails map[string]any `dynamodbav:"verificationDetails,omitempty" json:"verificationDetails,omitempty"`
	ContactInfo         map[string]any `dynamodbav:"contactInfo,omitempty" json:"contactInfo,omitempty"`
	CreatedAt           string         `dynamodbav:"createdAt,omitempty" json:"createdAt,omitempty"`
	UpdatedAt           string         `dynamodbav:"updatedAt,omitempty" json:"updatedAt,omitempty"`
}

// MinCost is the lower bound of the cost band, or 0 when unknown.
func (s School) MinCost() float64 {
	if s.CostBand == nil || s.CostBand.Min == nil {
		return 0
	}
	return *s.CostBand.Min
}

// MaxCost is the upper bound of the cost band, or 0 when unknown.
func (s School) MaxCost() float64 {
	if s.CostBand == nil || s.CostBand.Max == nil {
		return 0
	}
	return *s.CostBand.Max
}

func (s School) OffersProgram(program string) bool {
	for _, p := range s.Programs {
		if p == program {
			return true
		}
	}
	return false
}
