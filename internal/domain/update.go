package domain

import "errors"

// ErrMissingInput marks a stage invoked without the content it depends on.
var ErrMissingInput = errors.New("missing required input")

// Update is a single regulatory update extracted from a monitored page.
// JSON tags mirror the schema the classifier is prompted to emit.
type Update struct {
	Date              string `json:"date"`
	Topic             string `json:"topic"`
	AdditionalContext string `json:"additional_context"`
	Link              string `json:"link"`
	Regulator         string `json:"regulator"`
	SourceURL         string `json:"source_url,omitempty"`
	RunID             string `json:"run_id,omitempty"`
}

// Recommendation is the relevance verdict attached to a reviewed update.
type Recommendation string

const (
	RecommendationInclude Recommendation = "Include"
	RecommendationExclude Recommendation = "Exclude"
)

// ReviewedUpdate is an update annotated with the filter's decision.
// Records are labeled, never dropped; exclusion happens downstream.
type ReviewedUpdate struct {
	Update
	Recommendation Recommendation
	Reason         string
}

// Stage enumerates pipeline milestones for a single site run.
type Stage string

const (
	StageScraping    Stage = "scraping"
	StageSanitizing  Stage = "sanitizing"
	StageExtracting  Stage = "extracting"
	StageStructuring Stage = "structuring"
	StageFiltering   Stage = "filtering"
	StageMerging     Stage = "merging"
	StageDone        Stage = "done"
	StageFailed      Stage = "failed"
)

// RunState is the working record for one monitored site within a scan.
// Each stage reads the fields of earlier stages and fills in its own.
type RunState struct {
	SourceURL     string
	RunID         string
	RawHTML       string
	SanitizedHTML string
	VisibleText   string
	LinkInventory []string
	Updates       []Update
	Reviewed      []ReviewedUpdate
	Stage         Stage
	Err           error
}
