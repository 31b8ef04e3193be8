package analysis

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/school-system/gradebook/internal/models"
)

var ErrUnparsableResponse = errors.New("analysis response could not be parsed")

// Kind tells how a response was turned into a report.
type Kind int

const (
	// KindStructured means the response carried a JSON object.
	KindStructured Kind = iota + 1
	// KindExtracted means the fields were pulled out of free text by section markers.
	KindExtracted
)

func (k Kind) String() string {
	switch k {
	case KindStructured:
		return "structured"
	case KindExtracted:
		return "extracted"
	}
	return "unknown"
}

// Parsed is the generator-supplied part of a report. Name, date and average are filled by the analyzer.
type Parsed struct {
	Kind             Kind
	PerformanceLevel models.PerformanceLevel
	Strengths        []string
	Weaknesses       []string
	Recommendations  []string
}

type structuredResponse struct {
	PerformanceLevel string   `json:"performanceLevel"`
	Strengths        []string `json:"strengths"`
	Weaknesses       []string `json:"weaknesses"`
	Recommendations  []string `json:"recommendations"`
}

// ParseResponse normalizes a generator response. A JSON object, fenced or bare, is read directly;
// anything else goes through section-marker extraction. Lists are never nil on success.
func ParseResponse(text string) (Parsed, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Parsed{}, fmt.Errorf("%w: empty response", ErrUnparsableResponse)
	}

	var p Parsed
	if raw, ok := jsonObject(text); ok {
		var sr structuredResponse
		if err := json.Unmarshal([]byte(raw), &sr); err == nil {
			p = Parsed{
				Kind:            KindStructured,
				Strengths:       cleanItems(sr.Strengths),
				Weaknesses:      cleanItems(sr.Weaknesses),
				Recommendations: cleanItems(sr.Recommendations),
			}
			level, err := NormalizeLevel(sr.PerformanceLevel)
			if err != nil {
				return Parsed{}, err
			}
			p.PerformanceLevel = level
			return p, nil
		}
	}

	return extract(text)
}

// jsonObject returns the outermost {...} of text, after removing a ``` fence if present.
func jsonObject(text string) (string, bool) {
	if i := strings.Index(text, "```"); i >= 0 {
		rest := text[i+3:]
		if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
			rest = rest[nl+1:]
		}
		if j := strings.Index(rest, "```"); j >= 0 {
			rest = rest[:j]
		}
		text = rest
	}
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return "", false
	}
	return text[start : end+1], true
}

type section int

const (
	sectionNone section = iota
	sectionStrengths
	sectionWeaknesses
	sectionRecommendations
	sectionLevel
)

var headings = map[string]section{
	"strengths":                 sectionStrengths,
	"strength":                  sectionStrengths,
	"key strengths":             sectionStrengths,
	"weaknesses":                sectionWeaknesses,
	"weakness":                  sectionWeaknesses,
	"areas for improvement":     sectionWeaknesses,
	"area for improvement":      sectionWeaknesses,
	"areas of improvement":      sectionWeaknesses,
	"recommendations":           sectionRecommendations,
	"recommendation":            sectionRecommendations,
	"performance level":         sectionLevel,
	"overall performance level": sectionLevel,
}

func extract(text string) (Parsed, error) {
	p := Parsed{
		Kind:            KindExtracted,
		Strengths:       []string{},
		Weaknesses:      []string{},
		Recommendations: []string{},
	}
	var levelText string
	current := sectionNone

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if sec, rest, ok := heading(line); ok {
			current = sec
			if rest == "" {
				continue
			}
			line = rest
		}

		item := stripBullet(line)
		if item == "" {
			continue
		}
		switch current {
		case sectionStrengths:
			p.Strengths = append(p.Strengths, item)
		case sectionWeaknesses:
			p.Weaknesses = append(p.Weaknesses, item)
		case sectionRecommendations:
			p.Recommendations = append(p.Recommendations, item)
		case sectionLevel:
			if levelText == "" {
				levelText = item
			}
		}
	}

	if levelText == "" {
		return Parsed{}, fmt.Errorf("%w: no performance level found", ErrUnparsableResponse)
	}
	level, err := NormalizeLevel(levelText)
	if err != nil {
		return Parsed{}, err
	}
	p.PerformanceLevel = level
	return p, nil
}

// heading reports whether line opens a section, returning any text that follows a colon on the same line.
func heading(line string) (section, string, bool) {
	head, rest, _ := strings.Cut(line, ":")
	key := strings.ToLower(strings.Trim(head, "#*_ \t"))
	sec, ok := headings[key]
	if !ok {
		return sectionNone, "", false
	}
	return sec, strings.TrimSpace(strings.Trim(rest, "*_ \t")), true
}

func stripBullet(line string) string {
	line = strings.TrimSpace(line)
	for _, prefix := range []string{"- ", "* ", "• ", "+ "} {
		if strings.HasPrefix(line, prefix) {
			line = line[len(prefix):]
			break
		}
	}
	// numbered items: "1." or "1)"
	i := 0
	for i < len(line) && line[i] >= '0' && line[i] <= '9' {
		i++
	}
	if i > 0 && i < len(line) && (line[i] == '.' || line[i] == ')') {
		line = line[i+1:]
	}
	return strings.TrimSpace(strings.ReplaceAll(line, "**", ""))
}

func cleanItems(items []string) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		if it = strings.TrimSpace(it); it != "" {
			out = append(out, it)
		}
	}
	return out
}

// NormalizeLevel maps free-form level text onto one of the four performance levels.
func NormalizeLevel(s string) (models.PerformanceLevel, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ", "*", "", ".", "").Replace(norm)
	norm = strings.Join(strings.Fields(norm), " ")

	for _, level := range models.PerformanceLevels {
		name := strings.ToLower(string(level))
		if norm == name || strings.HasPrefix(norm, name+" ") {
			return level, nil
		}
	}
	return "", fmt.Errorf("%w: unknown performance level %q", ErrUnparsableResponse, s)
}
