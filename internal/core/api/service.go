// Package api implements the HTTP handlers of the local adjrules service.
// Handlers are thin: they decode the request, call into internal/rules and
// encode the result. No domain state outlives a request.
package api

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/solatis/adjrules/internal/rules"
)

// Service holds the handler dependencies.
type Service struct {
	extractor    *rules.Extractor
	logger       *slog.Logger
	maxBodyBytes int64

	extracted *prometheus.CounterVec
	built     *prometheus.CounterVec
}

// NewService creates the handler set. Metrics are registered on reg.
func NewService(logger *slog.Logger, maxBodyBytes int64, reg prometheus.Registerer) (*Service, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if maxBodyBytes <= 0 {
		return nil, fmt.Errorf("maxBodyBytes must be positive, got %d", maxBodyBytes)
	}

	s := &Service{
		extractor:    rules.NewExtractor(rules.WithLogger(logger)),
		logger:       logger,
		maxBodyBytes: maxBodyBytes,
		extracted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adjrules_records_extracted_total",
			Help: "Flat records produced by extraction, by document shape.",
		}, []string{"shape"}),
		built: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "adjrules_payloads_built_total",
			Help: "Payloads built, by kind and outcome.",
		}, []string{"kind", "outcome"}),
	}

	if reg != nil {
		for _, c := range []prometheus.Collector{s.extracted, s.built} {
			if err := reg.Register(c); err != nil {
				return nil, fmt.Errorf("failed to register metrics: %w", err)
			}
		}
	}
	return s, nil
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
