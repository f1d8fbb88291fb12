package model

import "time"

// BrainUsed names the resolution tier that produced an answer.
type BrainUsed string

const (
	BrainLocal            BrainUsed = "Local"
	BrainSemanticFallback BrainUsed = "SemanticFallback"
	BrainExternal         BrainUsed = "ExternalBrain"
	BrainHybrid           BrainUsed = "Hybrid"
)

// DispatchResponse is the envelope returned for every question.
type DispatchResponse struct {
	Answer     string      `json:"answer"`
	BrainUsed  BrainUsed   `json:"brain_used"`
	Provenance string      `json:"provenance"`
	Confidence Confidence  `json:"confidence"`
	Intent     Intent      `json:"intent"`
	SourceRefs []SourceRef `json:"source_refs,omitempty"`
	ElapsedMS  int64       `json:"response_time_ms"`
}

// QueryRecord is one answered question as kept in the query history.
type QueryRecord struct {
	ID         string     `json:"id"`
	Question   string     `json:"question"`
	Answer     string     `json:"answer"`
	Intent     Intent     `json:"intent"`
	BrainUsed  BrainUsed  `json:"brain_used"`
	Provenance string     `json:"provenance"`
	Confidence Confidence `json:"confidence"`
	ElapsedMS  int64      `json:"elapsed_ms"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewQueryRecord builds a history record from a question and its response.
func NewQueryRecord(question string, resp DispatchResponse) QueryRecord {
	return QueryRecord{
		Question:   question,
		Answer:     resp.Answer,
		Intent:     resp.Intent,
		BrainUsed:  resp.BrainUsed,
		Provenance: resp.Provenance,
		Confidence: resp.Confidence,
		ElapsedMS:  resp.ElapsedMS,
	}
}
