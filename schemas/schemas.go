// Package schemas embeds the JSON Schemas that validate generated payloads
// before they are persisted.
package schemas

import _ "embed"

// FeedbackReport validates the report payload produced by the feedback
// pipeline.
//
//go:embed feedback_report.schema.json
var FeedbackReport string
