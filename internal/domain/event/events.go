package event

import (
	"time"

	"github.com/google/uuid"
)

const (
	// EventTypeModelRetrained is emitted after a successful forced retrain.
	EventTypeModelRetrained = "sla.model.retrained"

	// EventTypeHighRiskPredicted is emitted when a prediction classifies a
	// request as CRITICAL.
	EventTypeHighRiskPredicted = "sla.prediction.high_risk"
)

// ModelRetrained is published when the classifier has been retrained and the
// new model has been made current.
type ModelRetrained struct {
	ModelID     uuid.UUID `json:"model_id"`
	SampleCount int       `json:"sample_count"`
	Accuracy    float64   `json:"accuracy"`
	TrainedAt   time.Time `json:"trained_at"`
}

// EventType returns the event type identifier.
func (e ModelRetrained) EventType() string {
	return EventTypeModelRetrained
}

// AggregateID returns the model ID as the aggregate identifier.
func (e ModelRetrained) AggregateID() uuid.UUID {
	return e.ModelID
}

// HighRiskPredicted is published when a request is predicted CRITICAL,
// so downstream consumers can raise alerts before the SLA is breached.
type HighRiskPredicted struct {
	EventID     uuid.UUID `json:"event_id"`
	RequestID   int64     `json:"request_id"`
	Probability float64   `json:"probability"`
	RiskLevel   string    `json:"risk_level"`
	Factors     []string  `json:"factors"`
	PredictedAt time.Time `json:"predicted_at"`
}

// EventType returns the event type identifier.
func (e HighRiskPredicted) EventType() string {
	return EventTypeHighRiskPredicted
}

// AggregateID returns the event ID as the aggregate identifier.
func (e HighRiskPredicted) AggregateID() uuid.UUID {
	return e.EventID
}
