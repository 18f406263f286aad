package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/rocketscienceinc/t3ttt/internal/entity"
)

const namespace = "t3ttt"

const (
	claimAccepted = "accepted"
	claimIgnored  = "ignored"

	outcomeDraw = "draw"
)

// Metrics counts game activity. The zero value is not usable, use New.
type Metrics struct {
	claims         *prometheus.CounterVec
	gamesFinished  *prometheus.CounterVec
	boardsCleared  prometheus.Counter
	sessionsActive prometheus.Gauge
}

// New creates the collectors and registers them with registerer.
func New(registerer prometheus.Registerer) *Metrics {
	that := &Metrics{
		claims: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_total",
			Help:      "Field claims by result.",
		}, []string{"result"}),
		gamesFinished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "games_finished_total",
			Help:      "Finished games by outcome.",
		}, []string{"outcome"}),
		boardsCleared: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "boards_cleared_total",
			Help:      "Board resets.",
		}),
		sessionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open page sessions.",
		}),
	}

	registerer.MustRegister(that.claims, that.gamesFinished, that.boardsCleared, that.sessionsActive)

	return that
}

// ClaimApplied records a claim and, when it ended the game, the outcome.
func (that *Metrics) ClaimApplied(board entity.Board, claimed bool) {
	if !claimed {
		that.claims.WithLabelValues(claimIgnored).Inc()
		return
	}

	that.claims.WithLabelValues(claimAccepted).Inc()

	if !board.IsOver() {
		return
	}

	if winner := board.Winner(); winner != entity.Empty {
		that.gamesFinished.WithLabelValues(winner.String()).Inc()
		return
	}

	that.gamesFinished.WithLabelValues(outcomeDraw).Inc()
}

func (that *Metrics) BoardCleared() {
	that.boardsCleared.Inc()
}

func (that *Metrics) SessionStarted() {
	that.sessionsActive.Inc()
}

func (that *Metrics) SessionEnded() {
	that.sessionsActive.Dec()
}
