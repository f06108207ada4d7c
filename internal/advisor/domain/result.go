package domain

import "time"

// Recommendation points the caller at a catalog product. Hydrating the ID into
// a product record is the caller's job.
type Recommendation struct {
	ProductID  int     `json:"productId"`
	Reason     string  `json:"reason"`
	Confidence float64 `json:"confidence"`
}

// Reply is what the composer produces for one analysis.
type Reply struct {
	Text              string           `json:"text"`
	Recommendations   []Recommendation `json:"recommendations"`
	FollowUpQuestions []string         `json:"followUpQuestions"`
	Confidence        float64          `json:"confidence"`
}

// ResultMetadata carries per-turn diagnostics.
type ResultMetadata struct {
	Confidence    float64       `json:"confidence"`
	LowConfidence bool          `json:"lowConfidence,omitempty"`
	ResponseTime  time.Duration `json:"responseTimeNs"`
}

// Result is the outcome of one GetResponse call. It is returned for every call;
// failures set Success to false and carry an apology in Response.
type Result struct {
	Success           bool             `json:"success"`
	Response          string           `json:"response"`
	Intent            Intent           `json:"intent"`
	Categories        []CategoryMatch  `json:"categories"`
	Recommendations   []Recommendation `json:"recommendations"`
	FollowUpQuestions []string         `json:"followUpQuestions"`
	Metadata          ResultMetadata   `json:"metadata"`
	Error             string           `json:"error,omitempty"`
}

// InteractionRecord is one analytics entry written after a successful turn.
type InteractionRecord struct {
	SessionID    string          `json:"sessionId"`
	UserID       string          `json:"userId,omitempty"`
	UserMessage  string          `json:"userMessage"`
	AIResponse   string          `json:"aiResponse"`
	Intent       Intent          `json:"intent"`
	Categories   []CategoryMatch `json:"categories"`
	ResponseTime time.Duration   `json:"responseTimeNs"`
	Timestamp    time.Time       `json:"timestamp"`
}
