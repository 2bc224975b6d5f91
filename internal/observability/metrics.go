package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	predictionsServed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "slasentry_predictions_total",
		Help: "Predictions served, labeled by resulting risk level.",
	}, []string{"risk_level"})

	predictionDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slasentry_prediction_duration_seconds",
		Help:    "Duration of prediction requests, single and batch.",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1.0},
	})

	trainingsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "slasentry_model_trainings_total",
		Help: "Total number of completed model training runs.",
	})

	trainingDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "slasentry_model_training_duration_seconds",
		Help:    "Duration of model training runs.",
		Buckets: []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0},
	})

	modelAccuracy = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slasentry_model_accuracy",
		Help: "Holdout accuracy of the current model (0 for bootstrap models).",
	})

	modelSamples = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "slasentry_model_training_samples",
		Help: "Number of records the current model was trained on.",
	})
)

// CountPrediction records one served prediction with its risk level.
func CountPrediction(riskLevel string) {
	predictionsServed.WithLabelValues(riskLevel).Inc()
}

// ObservePredictionDuration records the duration of one scoring pass,
// single or batch.
func ObservePredictionDuration(elapsed time.Duration) {
	predictionDuration.Observe(elapsed.Seconds())
}

// ObserveTraining records a completed training run and updates the
// current-model gauges.
func ObserveTraining(elapsed time.Duration, samples int, accuracy float64) {
	trainingsTotal.Inc()
	trainingDuration.Observe(elapsed.Seconds())
	modelAccuracy.Set(accuracy)
	modelSamples.Set(float64(samples))
}

// MetricsHandler returns the HTTP handler serving the Prometheus registry.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
