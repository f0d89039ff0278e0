// Package metrics holds the Prometheus instruments of the auth gate.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess  = "success"
	ResultFailed   = "failed"
	ResultDisabled = "disabled"
	ResultError    = "error"
)

// Gate label values.
const (
	GateOperation = "operation"
	GateAsset     = "asset"
)

// Metrics counts authentication outcomes. A nil *Metrics records nothing.
type Metrics struct {
	Registrations  *prometheus.CounterVec
	Logins         *prometheus.CounterVec
	GateDenials    *prometheus.CounterVec
	PasswordRehash prometheus.Counter
}

// New registers the instruments with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medconb_auth_registrations_total",
			Help: "Password registrations by result",
		}, []string{"result"}),
		Logins: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medconb_auth_logins_total",
			Help: "Password logins by result",
		}, []string{"result"}),
		GateDenials: f.NewCounterVec(prometheus.CounterOpts{
			Name: "medconb_auth_gate_denials_total",
			Help: "Requests refused by an access gate",
		}, []string{"gate"}),
		PasswordRehash: f.NewCounter(prometheus.CounterOpts{
			Name: "medconb_auth_password_rehash_total",
			Help: "Stored password digests upgraded on login",
		}),
	}
}

func (m *Metrics) Registration(result string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(result).Inc()
}

func (m *Metrics) Login(result string) {
	if m == nil {
		return
	}
	m.Logins.WithLabelValues(result).Inc()
}

func (m *Metrics) GateDenied(gate string) {
	if m == nil {
		return
	}
	m.GateDenials.WithLabelValues(gate).Inc()
}

func (m *Metrics) Rehashed() {
	if m == nil {
		return
	}
	m.PasswordRehash.Inc()
}
