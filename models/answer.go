package models

// Classification is the coarse intent bucket that drives model choice
type Classification string

const (
	ClassificationGreeting Classification = "greeting"
	ClassificationSimple   Classification = "simple"
	ClassificationComplex  Classification = "complex"
)

// IsValid checks if the classification is one of the known buckets
func (c Classification) IsValid() bool {
	switch c {
	case ClassificationGreeting, ClassificationSimple, ClassificationComplex:
		return true
	}
	return false
}

// Reasons records which evaluation checks fired for an answer
type Reasons struct {
	NoContext     bool `json:"noContext"`
	Refusal       bool `json:"refusal"`
	Hallucination bool `json:"hallucination"`
	Connection    bool `json:"connection,omitempty"`
}

// Any reports whether any check fired
func (r Reasons) Any() bool {
	return r.NoContext || r.Refusal || r.Hallucination || r.Connection
}

// AnswerResult is the outcome of one pass through the answer pipeline.
// It is returned to the caller and not retained by the pipeline.
type AnswerResult struct {
	Response       string         `json:"response"`
	Classification Classification `json:"classification"`
	ModelUsed      string         `json:"model_used"`
	LatencyMs      int64          `json:"latency_ms"`
	Flagged        bool           `json:"flagged"`
	Reasons        Reasons        `json:"reasons"`
	Chunks         []Passage      `json:"chunks"`

	// Guardrail names the short-circuit rule that produced the response, if any
	Guardrail string `json:"guardrail,omitempty"`
}
