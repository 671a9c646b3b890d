package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"renewal_reminders/internal/app"
	"renewal_reminders/internal/domain/notify"
	"renewal_reminders/internal/domain/reminder"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Recorder exports reminder run events as Prometheus metrics.
// It implements app.RunObserver.
type Recorder struct {
	runs           prometheus.Counter
	sent           *prometheus.CounterVec
	sendFailures   *prometheus.CounterVec
	skipped        *prometheus.CounterVec
	configErrors   *prometheus.CounterVec
	runDuration    prometheus.Histogram
	lastRunSuccess prometheus.Gauge
}

func NewRecorder(reg prometheus.Registerer) *Recorder {
	r := &Recorder{
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "reminder_runs_total",
			Help: "Total number of reminder runs",
		}),
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminders_sent_total",
			Help: "Reminders delivered, per service type and channel",
		}, []string{"service_type", "channel"}),
		sendFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_send_failures_total",
			Help: "Failed reminder sends, per service type and channel",
		}, []string{"service_type", "channel"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_records_skipped_total",
			Help: "Candidate records that got no reminder, per reason",
		}, []string{"service_type", "reason"}),
		configErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "reminder_config_errors_total",
			Help: "Runs in which a service type was skipped for an invalid policy",
		}, []string{"service_type"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "reminder_run_duration_seconds",
			Help:    "Duration of reminder runs",
			Buckets: prometheus.ExponentialBuckets(1, 2, 12),
		}),
		lastRunSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "reminder_last_run_completed",
			Help: "1 if the last reminder run processed every policy, 0 otherwise",
		}),
	}
	reg.MustRegister(r.runs, r.sent, r.sendFailures, r.skipped, r.configErrors, r.runDuration, r.lastRunSuccess)
	return r
}

func (r *Recorder) ReminderSent(st reminder.ServiceType, ch notify.Channel) {
	r.sent.WithLabelValues(string(st), string(ch)).Inc()
}

func (r *Recorder) SendFailed(st reminder.ServiceType, ch notify.Channel) {
	r.sendFailures.WithLabelValues(string(st), string(ch)).Inc()
}

func (r *Recorder) RecordSkipped(st reminder.ServiceType, reason string) {
	r.skipped.WithLabelValues(string(st), reason).Inc()
}

func (r *Recorder) ConfigError(st reminder.ServiceType) {
	r.configErrors.WithLabelValues(string(st)).Inc()
}

func (r *Recorder) RunFinished(summary app.RunSummary, elapsed time.Duration) {
	r.runs.Inc()
	r.runDuration.Observe(elapsed.Seconds())
	if summary.Interrupted || summary.SourceErrors > 0 {
		r.lastRunSuccess.Set(0)
	} else {
		r.lastRunSuccess.Set(1)
	}
}

// Server serves /metrics until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger *logrus.Entry
}

func NewServer(addr string, gatherer prometheus.Gatherer, logger *logrus.Entry) *Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return &Server{
		srv:    &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second},
		logger: logger,
	}
}

func (s *Server) Handler() http.Handler { return s.srv.Handler }

// Run blocks until ctx is done, then shuts the server down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("addr", s.srv.Addr).Info("Metrics server listening")
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
