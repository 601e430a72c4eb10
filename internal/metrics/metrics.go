package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

var (
	// StateStoreErrors counts failed KV operations of the state store and menu tracker
	StateStoreErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportbot_state_store_errors_total",
			Help: "Total number of failed state store operations",
		},
		[]string{"operation"}, // set, get, clear, update, track_menu, get_menu, clear_menu
	)

	// MessagesDeleted counts message ids successfully swept from chats
	MessagesDeleted = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportbot_messages_deleted_total",
			Help: "Total number of transient messages deleted",
		},
	)

	// DeleteFailures counts delete batches rejected by Telegram
	DeleteFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "supportbot_delete_failures_total",
			Help: "Total number of failed message delete batches",
		},
	)

	// BackgroundTasks tracks the lifecycle of deferred tasks
	BackgroundTasks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportbot_background_tasks_total",
			Help: "Background task events",
		},
		[]string{"event"}, // scheduled, replaced, cancelled, fired, panicked
	)

	// MenuReplacements counts admin menu replacements by outcome
	MenuReplacements = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "supportbot_admin_menu_replacements_total",
			Help: "Admin menu replacements",
		},
		[]string{"result"}, // replaced, fallback, failed
	)

	// OpenTickets is the number of open tickets at the last refresh
	OpenTickets = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "supportbot_open_tickets",
			Help: "Number of open support tickets",
		},
	)
)

func init() {
	prometheus.MustRegister(StateStoreErrors)
	prometheus.MustRegister(MessagesDeleted)
	prometheus.MustRegister(DeleteFailures)
	prometheus.MustRegister(BackgroundTasks)
	prometheus.MustRegister(MenuReplacements)
	prometheus.MustRegister(OpenTickets)
}

// Serve exposes /metrics on addr in a separate goroutine and returns the server
// so the caller can shut it down.
func Serve(addr string, logger *zap.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("Metrics endpoint listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return srv
}

// IncStoreError increments the state store error counter
func IncStoreError(operation string) {
	StateStoreErrors.WithLabelValues(operation).Inc()
}

// AddDeleted adds n to the deleted messages counter
func AddDeleted(n int) {
	MessagesDeleted.Add(float64(n))
}

// IncDeleteFailure increments the failed delete batch counter
func IncDeleteFailure() {
	DeleteFailures.Inc()
}

// IncTask increments the background task counter for event
func IncTask(event string) {
	BackgroundTasks.WithLabelValues(event).Inc()
}

// IncMenuReplacement increments the admin menu replacement counter
func IncMenuReplacement(result string) {
	MenuReplacements.WithLabelValues(result).Inc()
}

// SetOpenTickets records the current number of open tickets
func SetOpenTickets(n int) {
	OpenTickets.Set(float64(n))
}
