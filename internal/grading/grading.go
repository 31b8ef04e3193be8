package grading

import (
	"math"
	"strconv"
	"strings"

	"github.com/school-system/gradebook/internal/models"
)

// Component weights for the term-based final grade.
const (
	WeightPrelim    = 0.20
	WeightMidterm   = 0.20
	WeightSemifinal = 0.20
	WeightFinal     = 0.40
)

// Band is the qualitative label shown next to a final grade.
type Band string

const (
	BandExcellent      Band = "Excellent"
	BandGood           Band = "Good"
	BandSatisfactory   Band = "Satisfactory"
	BandUnsatisfactory Band = "Unsatisfactory"
)

// ComputeFinalGrade returns the weighted final grade. Missing components count as 0 and
// out-of-range scores are used as given.
func ComputeFinalGrade(c models.GradeComponents) float64 {
	return value(c.Prelim)*WeightPrelim +
		value(c.Midterm)*WeightMidterm +
		value(c.Semifinal)*WeightSemifinal +
		value(c.Final)*WeightFinal
}

// BandFor maps a final grade to its band.
func BandFor(finalGrade float64) Band {
	switch {
	case finalGrade >= 90:
		return BandExcellent
	case finalGrade >= 80:
		return BandGood
	case finalGrade >= 75:
		return BandSatisfactory
	default:
		return BandUnsatisfactory
	}
}

// FormatTable renders a final grade for list and table views.
func FormatTable(finalGrade float64) string {
	return strconv.FormatFloat(finalGrade, 'f', 1, 64)
}

// FormatPreview renders a final grade for the edit form preview.
func FormatPreview(finalGrade float64) string {
	return strconv.FormatFloat(finalGrade, 'f', 2, 64)
}

// ParseComponent reads a form value. Blank or non-numeric input yields nil, which the
// calculator treats as 0.
func ParseComponent(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// ComponentsFromStrings builds components from the four raw form values.
func ComponentsFromStrings(prelim, midterm, semifinal, final string) models.GradeComponents {
	return models.GradeComponents{
		Prelim:    ParseComponent(prelim),
		Midterm:   ParseComponent(midterm),
		Semifinal: ParseComponent(semifinal),
		Final:     ParseComponent(final),
	}
}

// Summary is the derived view of one grade row.
type Summary struct {
	FinalGrade float64
	Band       Band
}

// Summarize computes the final grade and band together.
func Summarize(c models.GradeComponents) Summary {
	f := ComputeFinalGrade(c)
	return Summary{FinalGrade: f, Band: BandFor(f)}
}

func value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
