// Package feedback builds the post-interview report: an overall assessment,
// per-dimension notes, and project improvement suggestions, generated
// asynchronously by the background worker.
package feedback

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/jonathan/interview-coach/internal/llm"
	"github.com/jonathan/interview-coach/internal/rating"
	"github.com/jonathan/interview-coach/schemas"
)

// Report is the persisted feedback payload.
type Report struct {
	Overall            string              `json:"overall"`
	Strengths          []string            `json:"strengths"`
	Areas              []string            `json:"areas"`
	DetailedAnalysis   string              `json:"detailed_analysis,omitempty"`
	ProjectSuggestions *ProjectSuggestions `json:"project_suggestions,omitempty"`
	Stats              *Stats              `json:"stats,omitempty"`
}

// ProjectSuggestions groups improvement directions for the candidate's
// project work.
type ProjectSuggestions struct {
	AdditionalContent    []string `json:"additional_content"`
	Concretization       []string `json:"concretization"`
	PracticalApplication []string `json:"practical_application"`
}

// Stats summarizes verdict counts across the session.
type Stats struct {
	Questions int `json:"questions"`
	Answered  int `json:"answered"`
	Good      int `json:"good"`
	Vague     int `json:"vague"`
	OffTopic  int `json:"off_topic"`
}

// ParseOverall extracts the assessment portion of a report from raw model
// output. Missing fields keep safe defaults; unparseable output degrades to
// a report whose overall text is the raw response.
func ParseOverall(raw string) Report {
	report := Report{
		Overall:   strings.TrimSpace(raw),
		Strengths: []string{},
		Areas:     []string{},
	}

	payload := llm.ExtractJSONObject(raw)
	var parsed struct {
		Overall          string   `json:"overall"`
		Strengths        []string `json:"strengths"`
		Areas            []string `json:"areas"`
		DetailedAnalysis string   `json:"detailed_analysis"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return report
	}

	if parsed.Overall != "" {
		report.Overall = parsed.Overall
	}
	if parsed.Strengths != nil {
		report.Strengths = parsed.Strengths
	}
	if parsed.Areas != nil {
		report.Areas = parsed.Areas
	}
	report.DetailedAnalysis = parsed.DetailedAnalysis
	return report
}

// ParseProjectSuggestions extracts suggestions from raw model output, or
// returns nil when nothing usable was produced.
func ParseProjectSuggestions(raw string) *ProjectSuggestions {
	payload := llm.ExtractJSONObject(raw)
	var parsed ProjectSuggestions
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return nil
	}
	if parsed.AdditionalContent == nil && parsed.Concretization == nil && parsed.PracticalApplication == nil {
		return nil
	}
	return &parsed
}

// Validate checks a marshaled report against the feedback report schema.
func Validate(payload json.RawMessage) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(schemas.FeedbackReport),
		gojsonschema.NewBytesLoader(payload),
	)
	if err != nil {
		return fmt.Errorf("failed to validate report: %w", err)
	}
	if !result.Valid() {
		details := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			details = append(details, e.String())
		}
		return fmt.Errorf("report payload invalid: %s", strings.Join(details, "; "))
	}
	return nil
}

// countStats tallies verdicts from stored evaluations.
func countStats(entries []transcriptEntry) *Stats {
	stats := &Stats{Questions: len(entries)}
	for _, e := range entries {
		if e.answer == nil {
			continue
		}
		stats.Answered++
		switch e.verdict {
		case rating.RatingGood:
			stats.Good++
		case rating.RatingVague:
			stats.Vague++
		case rating.RatingOffTopic:
			stats.OffTopic++
		}
	}
	return stats
}
