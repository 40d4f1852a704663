// Package tutor answers prompts from a static keyword table without ever
// loading a model. It backs the demo channel.
package tutor

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
)

var answersTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "gemmad",
		Subsystem: "demo",
		Name:      "answers_total",
		Help:      "Canned answers served, by topic",
	},
	[]string{"topic"},
)

func init() {
	prometheus.MustRegister(answersTotal)
}

// ModelLocator finds the model bundle; *locator.Locator satisfies it.
type ModelLocator interface {
	Locate() (string, bool)
}

// Responder serves canned answers.
type Responder struct {
	table   Table
	locator ModelLocator
	log     zerolog.Logger
}

// New returns a Responder over table. locator may be nil, in which case the
// responder never reports ready.
func New(table Table, locator ModelLocator, log zerolog.Logger) *Responder {
	return &Responder{table: table, locator: locator, log: log.With().Str("component", "tutor").Logger()}
}

// Respond returns the canned answer for prompt. Readiness is not consulted;
// the flag is only logged alongside the answer.
func (r *Responder) Respond(ctx context.Context, prompt string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	answer, topic := r.table.Match(prompt)
	answersTotal.WithLabelValues(topic).Inc()
	if e := r.log.Debug(); e.Enabled() {
		e.Str("topic", topic).Bool("model_ready", r.Ready()).Int("prompt_len", len(prompt)).Msg("demo answer")
	}
	return answer, nil
}

// Ready reports whether the locator currently finds a model file.
func (r *Responder) Ready() bool {
	if r.locator == nil {
		return false
	}
	_, ok := r.locator.Locate()
	return ok
}

// ModelPath returns the located model path, if any.
func (r *Responder) ModelPath() string {
	if r.locator == nil {
		return ""
	}
	p, _ := r.locator.Locate()
	return p
}
