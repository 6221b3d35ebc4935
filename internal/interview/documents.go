// Package interview runs the branching dialogue: it grounds questions in the
// candidate's material, routes on answer verdicts, and hands finished
// sessions to the feedback pipeline.
package interview

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/interview-coach/internal/db"
	"github.com/jonathan/interview-coach/internal/retrieval"
)

// BuildDocuments flattens a job posting and the selected experiences into
// retrieval documents. Each structured field becomes its own document so
// retrieval can surface a single relevant fact instead of a whole record.
func BuildDocuments(job *db.JobPosting, experiences []db.Experience) []retrieval.Document {
	var docs []retrieval.Document

	if job != nil {
		for _, key := range sortedKeys(job.Sections) {
			text := strings.TrimSpace(job.Sections[key])
			if text == "" {
				continue
			}
			docs = append(docs, retrieval.Document{
				ID:   fmt.Sprintf("job:%s:%s", job.ID, key),
				Text: fmt.Sprintf("[job posting / %s] %s", key, text),
				Metadata: map[string]string{
					"source":  "job_posting",
					"section": key,
				},
			})
		}
		if len(job.Sections) == 0 && job.RawText != nil && strings.TrimSpace(*job.RawText) != "" {
			docs = append(docs, retrieval.Document{
				ID:       fmt.Sprintf("job:%s:raw", job.ID),
				Text:     fmt.Sprintf("[job posting] %s", strings.TrimSpace(*job.RawText)),
				Metadata: map[string]string{"source": "job_posting", "section": "raw"},
			})
		}
	}

	for _, exp := range experiences {
		title := exp.Category
		if exp.Title != nil && *exp.Title != "" {
			title = fmt.Sprintf("%s / %s", exp.Category, *exp.Title)
		}
		for _, key := range sortedKeys(exp.Content) {
			text := strings.TrimSpace(exp.Content[key])
			if text == "" {
				continue
			}
			docs = append(docs, retrieval.Document{
				ID:   fmt.Sprintf("exp:%s:%s", exp.ID, key),
				Text: fmt.Sprintf("[%s / %s] %s", title, key, text),
				Metadata: map[string]string{
					"source":   "experience",
					"category": exp.Category,
					"field":    key,
				},
			})
		}
	}

	return docs
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
