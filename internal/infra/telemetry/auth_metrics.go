package telemetry

import (
	"errors"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/vindeacy/RentSpotLimited-sub000/internal/core/port"
)

const namespace = "rentspot"

// AuthMetrics counts authentication gate outcomes and silent refreshes.
type AuthMetrics struct {
	outcomes  *prometheus.CounterVec
	refreshes *prometheus.CounterVec
}

var _ port.AuthMetrics = (*AuthMetrics)(nil)

// NewAuthMetrics registers the auth collectors with reg, reusing any already registered.
func NewAuthMetrics(reg prometheus.Registerer) (*AuthMetrics, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	outcomes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "outcomes_total",
		Help:      "Authentication gate outcomes partitioned by gate mode and result code.",
	}, []string{"stage", "code"})

	refreshes := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "auth",
		Name:      "refresh_total",
		Help:      "Refresh token rotations partitioned by result (rotated, coalesced, failed).",
	}, []string{"result"})

	var err error
	if outcomes, err = register(reg, outcomes); err != nil {
		return nil, fmt.Errorf("register auth outcomes: %w", err)
	}
	if refreshes, err = register(reg, refreshes); err != nil {
		return nil, fmt.Errorf("register refresh counter: %w", err)
	}

	return &AuthMetrics{outcomes: outcomes, refreshes: refreshes}, nil
}

// ObserveAuthOutcome implements port.AuthMetrics.
func (m *AuthMetrics) ObserveAuthOutcome(stage, code string) {
	m.outcomes.WithLabelValues(stage, code).Inc()
}

// ObserveRefresh implements port.AuthMetrics.
func (m *AuthMetrics) ObserveRefresh(result string) {
	m.refreshes.WithLabelValues(result).Inc()
}

func register(reg prometheus.Registerer, c *prometheus.CounterVec) (*prometheus.CounterVec, error) {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			if existing, ok := already.ExistingCollector.(*prometheus.CounterVec); ok {
				return existing, nil
			}
		}
		return nil, err
	}
	return c, nil
}
