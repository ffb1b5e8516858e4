// README: Prometheus counters for dispatch outcomes, lifecycle transitions and ledger postings.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type Recorder interface {
	// Dispatch records an Assign outcome; tier 0 means no driver was available.
	Dispatch(tier int)
	Transition(to string)
	Posting(kind string, amount int64)
}

type Prom struct {
	dispatch    *prometheus.CounterVec
	transitions *prometheus.CounterVec
	postings    *prometheus.CounterVec
	amounts     *prometheus.CounterVec
}

// NewProm registers the collectors on reg (default registerer when nil), reusing
// collectors that are already registered.
func NewProm(reg prometheus.Registerer) (*Prom, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	p := &Prom{
		dispatch: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dispatch_outcomes_total",
			Help: "Dispatch attempts by winning tier (0 = no driver available)",
		}, []string{"tier"}),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_transitions_total",
			Help: "Committed booking detail transitions by target status",
		}, []string{"to"}),
		postings: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_postings_total",
			Help: "Committed ledger postings by kind",
		}, []string{"kind"}),
		amounts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ledger_posted_amount_total",
			Help: "Absolute amount moved by committed postings, in minor units",
		}, []string{"kind"}),
	}
	var err error
	if p.dispatch, err = register(reg, p.dispatch); err != nil {
		return nil, err
	}
	if p.transitions, err = register(reg, p.transitions); err != nil {
		return nil, err
	}
	if p.postings, err = register(reg, p.postings); err != nil {
		return nil, err
	}
	if p.amounts, err = register(reg, p.amounts); err != nil {
		return nil, err
	}
	return p, nil
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return are.ExistingCollector.(*prometheus.CounterVec), nil
		}
		return nil, err
	}
	return c, nil
}

func (p *Prom) Dispatch(tier int) {
	p.dispatch.WithLabelValues(strconv.Itoa(tier)).Inc()
}

func (p *Prom) Transition(to string) {
	p.transitions.WithLabelValues(to).Inc()
}

func (p *Prom) Posting(kind string, amount int64) {
	if amount < 0 {
		amount = -amount
	}
	p.postings.WithLabelValues(kind).Inc()
	p.amounts.WithLabelValues(kind).Add(float64(amount))
}

type Nop struct{}

func (Nop) Dispatch(int)          {}
func (Nop) Transition(string)     {}
func (Nop) Posting(string, int64) {}
