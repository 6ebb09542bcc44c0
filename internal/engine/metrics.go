package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics counts what flows through the pipeline.
//
// Collectors are registered on the Registerer passed to NewMetrics. A nil
// Registerer creates unregistered collectors.
type Metrics struct {
	RequestsIssued     *prometheus.CounterVec
	RequestsFailed     *prometheus.CounterVec
	RelationsDelivered prometheus.Counter
	RelationsMerged    prometheus.Counter
	BatchesConsumed    *prometheus.CounterVec
}

// NewMetrics creates the pipeline collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		RequestsIssued: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixgraph_requests_issued_total",
			Help: "Requests dispatched, by verb",
		}, []string{"verb"}),
		RequestsFailed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixgraph_requests_failed_total",
			Help: "Requests that ended in a failure batch, by reason",
		}, []string{"reason"}),
		RelationsDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixgraph_relations_delivered_total",
			Help: "Relations decoded from successful responses",
		}),
		RelationsMerged: factory.NewCounter(prometheus.CounterOpts{
			Name: "fixgraph_relations_merged_total",
			Help: "Relations that were new to the cache when merged",
		}),
		BatchesConsumed: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "fixgraph_batches_consumed_total",
			Help: "Batches drained by the consumer loop, by kind",
		}, []string{"kind"}),
	}
}
