package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsRegistry holds all Prometheus metrics for the Synq backend
type MetricsRegistry struct {
	// HTTP Metrics
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight *prometheus.GaugeVec

	// Cache Metrics
	CacheHitsTotal   *prometheus.CounterVec
	CacheMissesTotal *prometheus.CounterVec

	// Business Metrics
	FrequenciesCreatedTotal prometheus.Counter
	MembershipChangesTotal  *prometheus.CounterVec
	JoinRejectionsTotal     *prometheus.CounterVec
	InviteRedemptionsTotal  *prometheus.CounterVec
	MessagesPostedTotal     *prometheus.CounterVec
	IdentityProviderErrors  *prometheus.CounterVec
}

// NewMetricsRegistry registers every metric on reg. Pass
// prometheus.DefaultRegisterer in the server and a fresh registry in tests.
func NewMetricsRegistry(reg prometheus.Registerer) *MetricsRegistry {
	factory := promauto.With(reg)

	return &MetricsRegistry{
		// HTTP Metrics
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_http_requests_total",
				Help: "Total HTTP requests processed by endpoint, method, and status code",
			},
			[]string{"endpoint", "method", "status_code"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "synq_http_request_duration_seconds",
				Help:    "HTTP request latency distribution in seconds",
				Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"endpoint", "method"},
		),
		HTTPRequestsInFlight: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "synq_http_requests_in_flight",
				Help: "Number of HTTP requests currently being processed",
			},
			[]string{"endpoint"},
		),

		// Cache Metrics
		CacheHitsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_cache_hits_total",
				Help: "Total cache hits by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),
		CacheMissesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_cache_misses_total",
				Help: "Total cache misses by cache key pattern",
			},
			[]string{"cache_key_pattern"},
		),

		// Business Metrics
		FrequenciesCreatedTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "synq_frequencies_created_total",
				Help: "Total frequencies created",
			},
		),
		MembershipChangesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_membership_changes_total",
				Help: "Membership mutations by kind (join, leave, role, ban, mute)",
			},
			[]string{"change"},
		),
		JoinRejectionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_join_rejections_total",
				Help: "Rejected joins by error kind",
			},
			[]string{"kind"},
		),
		InviteRedemptionsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_invite_redemptions_total",
				Help: "Invite redemption attempts by outcome",
			},
			[]string{"outcome"},
		),
		MessagesPostedTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_messages_posted_total",
				Help: "Messages posted by message type",
			},
			[]string{"type"},
		),
		IdentityProviderErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "synq_identity_provider_errors_total",
				Help: "Failed identity provider calls by operation",
			},
			[]string{"operation"},
		),
	}
}
