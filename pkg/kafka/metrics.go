package kafka

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

func topicCounter(name, help string) *prometheus.CounterVec {
	return promauto.NewCounterVec(prometheus.CounterOpts{Name: name, Help: help}, []string{"topic"})
}

var (
	// ProducerMessagesPublished counts successfully published messages.
	ProducerMessagesPublished = topicCounter(
		"kafka_producer_messages_published_total",
		"Total number of Kafka messages published",
	)

	// ProducerPublishErrors counts failed publish attempts.
	ProducerPublishErrors = topicCounter(
		"kafka_producer_publish_errors_total",
		"Total number of Kafka publish errors",
	)

	// ProducerPublishDuration observes publish latency per topic.
	ProducerPublishDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "kafka_producer_publish_duration_seconds",
			Help:    "Duration of Kafka publish operations in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"topic"},
	)
)
