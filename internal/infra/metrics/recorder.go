package metrics

import (
	"strconv"

	"course-trivia-service/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder exports game activity as Prometheus counters. It implements app.Recorder.
type Recorder struct {
	gamesStarted     prometheus.Counter
	answersRevealed  *prometheus.CounterVec
	sessionsFinished *prometheus.CounterVec
	giftClaims       *prometheus.CounterVec
}

// NewRecorder registers the trivia counters on reg.
func NewRecorder(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		gamesStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "trivia_games_started_total",
			Help: "Total number of trivia games started",
		}),
		answersRevealed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_answers_revealed_total",
				Help: "Total number of revealed answers by result",
			},
			[]string{"result"},
		),
		sessionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_sessions_finished_total",
				Help: "Total number of finished sessions by claim decision",
			},
			[]string{"decision", "won_game"},
		),
		giftClaims: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "trivia_gift_claims_total",
				Help: "Total number of confirmed gift claims",
			},
			[]string{"decision", "granted"},
		),
	}
}

func (r *Recorder) GameStarted() {
	r.gamesStarted.Inc()
}

func (r *Recorder) AnswerRevealed(reveal domain.AnswerReveal) {
	result := "incorrect"
	switch {
	case reveal.TimedOut:
		result = "timeout"
	case reveal.Correct:
		result = "correct"
	}
	r.answersRevealed.WithLabelValues(result).Inc()
}

func (r *Recorder) SessionFinished(outcome domain.Outcome, decision domain.ClaimDecision) {
	r.sessionsFinished.WithLabelValues(string(decision), strconv.FormatBool(outcome.WonGame)).Inc()
}

func (r *Recorder) GiftClaimed(result domain.ClaimResult) {
	r.giftClaims.WithLabelValues(string(result.Decision), strconv.FormatBool(result.Granted)).Inc()
}
