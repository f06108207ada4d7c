package domain

// ============================================================
// Health & Metrics API Responses
// ============================================================

// HealthStatus is returned by GET /healthz and GET /readyz.
type HealthStatus struct {
	Status   string          `json:"status"` // healthy, degraded, unhealthy
	Services []ServiceHealth `json:"services"`
}

// ServiceHealth represents the health of an individual dependency.
type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latencyMs"`
	LastChecked string `json:"lastChecked"`
	Error       string `json:"error,omitempty"`
}

// AdvisorMetrics is returned by GET /v1/metrics/advisor.
type AdvisorMetrics struct {
	TotalTurns          int64              `json:"totalTurns"`
	FailedTurns         int64              `json:"failedTurns"`
	ErrorRate           float64            `json:"errorRate"`
	LowConfidenceRate   float64            `json:"lowConfidenceRate"`
	AvgTurnLatencyMs    float64            `json:"avgTurnLatencyMs"`
	TurnsByIntent       map[string]int64   `json:"turnsByIntent"`
	CategoryMatches     map[string]int64   `json:"categoryMatches"`
	ActiveSessions      int64              `json:"activeSessions"`
	InteractionsDropped int64              `json:"interactionsDropped"`
	InteractionErrors   int64              `json:"interactionErrors"`
	IntentShare         map[string]float64 `json:"intentShare"`
	Period              string             `json:"period"`
}

// ============================================================
// Generic API Response wrappers
// ============================================================

// ListResponse wraps list results.
type ListResponse[T any] struct {
	Data  []T `json:"data"`
	Total int `json:"total"`
}

// SuccessResponse wraps a successful single-entity response.
type SuccessResponse struct {
	Message string `json:"message"`
	ID      string `json:"id,omitempty"`
}
