package match

import (
	"fmt"
	"strconv"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

const notSpecified = "not specified"

// BuildPrompt renders the model prompt. The section order and wording are
// what the model is tuned against; keep them stable.
func BuildPrompt(student StudentProfile, school SchoolProfile, score float64) string {
	sLat, sLon := student.Location.coords()
	cLat, cLon := school.Location.coords()
	distance := Distance(sLat, sLon, cLat, cLon)

	var minCost, maxCost *float64
	if school.CostBand != nil {
		minCost, maxCost = school.CostBand.Min, school.CostBand.Max
	}

	return fmt.Sprintf(`You are an expert flight training advisor. Generate a personalized, conversational explanation for why this school matches this student.

Student Profile:
- Primary Goal: %s
- Budget: %s
- Location: %s
- Preferred Training Type: %s
- Prior Experience: %s

School Details:
- Name: %s
- Location: %s (%d miles away)
- Cost Range: %s - %s
- Primary Program: %s
- Training Type: %s
- Instructors: %s

Match Score: %s%%

Write a 2-3 sentence explanation of why this is a %s match. Be specific about:
1. How the location/distance fits their needs
2. How the cost aligns with their budget
3. How the program matches their goals

Sound professional but warm and encouraging. Do not use phrases like "I think" or "I believe" - be direct and confident.`,
		text(student.TrainingGoal),
		money(student.MaxBudget),
		place(student.Location),
		text(student.TrainingTypePreference),
		text(student.PriorExperience),
		text(school.Name),
		place(school.Location),
		int64(roundHalfUp(distance)),
		money(minCost),
		money(maxCost),
		text(school.PrimaryProgram),
		text(school.TrainingType),
		count(school.InstructorCount),
		strconv.FormatFloat(score, 'f', -1, 64),
		Label(score),
	)
}

func text(s string) string {
	if strings.TrimSpace(s) == "" {
		return notSpecified
	}
	return s
}

func count(n *int) string {
	if n == nil {
		return notSpecified
	}
	return strconv.Itoa(*n)
}

// money formats an amount in US dollars with thousands separators.
func money(v *float64) string {
	if v == nil {
		return notSpecified
	}
	p := message.NewPrinter(language.English)
	return "$" + p.Sprintf("%v", number.Decimal(*v))
}

func place(l *Location) string {
	if l == nil {
		return notSpecified
	}
	parts := make([]string, 0, 2)
	for _, s := range []string{l.City, l.State} {
		if strings.TrimSpace(s) != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return notSpecified
	}
	return strings.Join(parts, ", ")
}
