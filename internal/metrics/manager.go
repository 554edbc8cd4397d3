package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Manager struct {
	// counters
	CounterRequests              *prometheus.CounterVec
	CounterWorkoutLogsSaved      prometheus.Counter
	CounterWorkoutLogsFailed     prometheus.Counter
	CounterPersonalRecordsBroken prometheus.Counter
	CounterGoalsAchieved         prometheus.Counter
	CounterGoalsMissed           prometheus.Counter
	CounterArchiveFailures       prometheus.Counter

	// gauges
	GaugeRequests prometheus.Gauge

	// histograms
	HistRequestDuration       prometheus.Histogram
	HistProgressionTxDuration prometheus.Histogram
}

func NewTestManager() *Manager {
	return NewManager("workout", "test_server", prometheus.NewRegistry())
}

func NewTestManagerAndRegistry() (*Manager, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewManager("workout", "test_server", reg), reg
}

func NewManager(namespace, subsystem string, reg prometheus.Registerer) *Manager {
	factory := promauto.With(reg)

	counterRequests := factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "requests",
		Help:      "The total number of incoming requests",
	}, []string{"method", "status"})
	counterWorkoutLogsSaved := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_logs_saved",
		Help:      "The total number of committed workout logs",
	})
	counterWorkoutLogsFailed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_logs_failed",
		Help:      "The total number of rolled back workout log submissions",
	})
	counterPersonalRecordsBroken := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "personal_records_broken",
		Help:      "The total number of created or raised personal records",
	})
	counterGoalsAchieved := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "goals_achieved",
		Help:      "The total number of goals moved to ACHIEVED",
	})
	counterGoalsMissed := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "goals_missed",
		Help:      "The total number of overdue goals moved to MISSED",
	})
	counterArchiveFailures := factory.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "workout_log_archive_failures",
		Help:      "The total number of workout logs that could not be archived",
	})

	gaugeRequests := factory.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Subsystem: subsystem,
		Name:      "current_requests",
		Help:      "Current number of requests served",
	})

	histReqDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.00001, 0.0001, 0.001, 0.005, 0.01,
				0.05, 0.1, 0.5, 1, 5, 10,
			},
			Name: "request_duration_seconds",
			Help: "Total duration of requests in seconds",
		},
	)
	histProgressionTxDuration := factory.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Buckets: []float64{
				0.0001, 0.001, 0.005, 0.01, 0.05,
				0.1, 0.25, 0.5, 1, 2.5, 10,
			},
			Name: "progression_tx_duration_seconds",
			Help: "Duration of a workout log submission transaction in seconds",
		},
	)

	return &Manager{
		CounterRequests:              counterRequests,
		CounterWorkoutLogsSaved:      counterWorkoutLogsSaved,
		CounterWorkoutLogsFailed:     counterWorkoutLogsFailed,
		CounterPersonalRecordsBroken: counterPersonalRecordsBroken,
		CounterGoalsAchieved:         counterGoalsAchieved,
		CounterGoalsMissed:           counterGoalsMissed,
		CounterArchiveFailures:       counterArchiveFailures,
		GaugeRequests:                gaugeRequests,
		HistRequestDuration:          histReqDuration,
		HistProgressionTxDuration:    histProgressionTxDuration,
	}
}
