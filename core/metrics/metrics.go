// Package metrics exposes Prometheus counters for updates, dialogs and
// outbound messages, plus a small HTTP server serving them.
package metrics

import (
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/m3rciful/orderbot/core/dialog"
)

var (
	once sync.Once

	updatesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_updates_total",
			Help: "Telegram updates handled, by kind and outcome.",
		},
		[]string{"kind", "outcome"},
	)

	rateLimitedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "orderbot_rate_limited_total",
			Help: "Updates dropped by the per-user rate limiter.",
		},
	)

	dialogStepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_dialog_steps_total",
			Help: "Dialog step outcomes: accepted answers and re-prompts.",
		},
		[]string{"dialog", "step", "result"},
	)

	dialogEventsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_dialog_events_total",
			Help: "Dialog lifecycle events (restart, complete, exhausted, notes_reset).",
		},
		[]string{"dialog", "event"},
	)

	messagesSentTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "orderbot_messages_sent_total",
			Help: "Outbound messages by delivery outcome.",
		},
		[]string{"outcome"},
	)
)

// MustRegister registers all collectors with reg exactly once.
// A nil reg means the default registry.
func MustRegister(reg prometheus.Registerer) {
	once.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		reg.MustRegister(updatesTotal, rateLimitedTotal, dialogStepsTotal, dialogEventsTotal, messagesSentTotal)
	})
}

func norm(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "unknown"
	}
	return s
}

// IncUpdate counts one handled update.
func IncUpdate(kind, outcome string) {
	updatesTotal.WithLabelValues(norm(kind), norm(outcome)).Inc()
}

// IncRateLimited counts one dropped update.
func IncRateLimited() { rateLimitedTotal.Inc() }

// IncSent counts one delivery attempt result.
func IncSent(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "fail"
	}
	messagesSentTotal.WithLabelValues(outcome).Inc()
}

// DialogObserver feeds dialog engine events into the counters.
type DialogObserver struct{}

var _ dialog.Observer = DialogObserver{}

func (DialogObserver) StepAccepted(name string, step dialog.StepID) {
	dialogStepsTotal.WithLabelValues(norm(name), norm(string(step)), "accepted").Inc()
}

func (DialogObserver) Reprompted(name string, step dialog.StepID) {
	dialogStepsTotal.WithLabelValues(norm(name), norm(string(step)), "reprompted").Inc()
}

func (DialogObserver) Restarted(name string)  { dialogEvent(name, "restart") }
func (DialogObserver) Completed(name string)  { dialogEvent(name, "complete") }
func (DialogObserver) Exhausted(name string)  { dialogEvent(name, "exhausted") }
func (DialogObserver) NotesReset(name string) { dialogEvent(name, "notes_reset") }

func dialogEvent(name, event string) {
	dialogEventsTotal.WithLabelValues(norm(name), event).Inc()
}
