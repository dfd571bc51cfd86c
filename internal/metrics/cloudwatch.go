// Package metrics publishes API request telemetry to AWS CloudWatch.
package metrics

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
)

// publishTimeout bounds each PutMetricData call.
const publishTimeout = 5 * time.Second

// queueSize is the capacity of the pending-metric buffer. When the buffer is
// full new data points are dropped; telemetry must never block request
// handling.
const queueSize = 256

// CloudWatchClient abstracts the PutMetricData operation for testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchCollector records request count and latency metrics to
// CloudWatch. Data points are published from a single background goroutine
// so the request path only pays for a channel send.
//
// Metrics emitted:
//   - RequestCount: Dims {Method, Endpoint, Status} - one per request
//   - RequestLatency: Dims {Method, Endpoint} - milliseconds
type CloudWatchCollector struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger

	queue chan requestDatum
	done  chan struct{}
}

type requestDatum struct {
	method   string
	endpoint string
	status   string
	duration time.Duration
}

// NewCloudWatchCollector creates a collector publishing to the given
// namespace and starts its publisher goroutine. Call Close to drain and stop.
func NewCloudWatchCollector(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchCollector {
	if logger == nil {
		logger = slog.Default()
	}
	c := &CloudWatchCollector{
		client:    client,
		namespace: namespace,
		logger:    logger,
		queue:     make(chan requestDatum, queueSize),
		done:      make(chan struct{}),
	}
	go c.run()
	return c
}

// RecordRequest enqueues a request data point. Never blocks; the point is
// dropped if the publisher cannot keep up.
func (c *CloudWatchCollector) RecordRequest(method, endpoint, status string, duration time.Duration) {
	select {
	case c.queue <- requestDatum{method: method, endpoint: endpoint, status: status, duration: duration}:
	default:
		c.logger.Warn("metric queue full, dropping data point",
			"method", method,
			"endpoint", endpoint,
		)
	}
}

// Close stops accepting data points, drains the queue, and waits for the
// publisher goroutine to exit.
func (c *CloudWatchCollector) Close() error {
	close(c.queue)
	<-c.done
	return nil
}

func (c *CloudWatchCollector) run() {
	defer close(c.done)
	for datum := range c.queue {
		c.publish(datum)
	}
}

func (c *CloudWatchCollector) publish(d requestDatum) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(c.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String("RequestCount"),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String("Method"), Value: aws.String(d.method)},
					{Name: aws.String("Endpoint"), Value: aws.String(d.endpoint)},
					{Name: aws.String("Status"), Value: aws.String(d.status)},
				},
			},
			{
				MetricName: aws.String("RequestLatency"),
				Value:      aws.Float64(float64(d.duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: []cwtypes.Dimension{
					{Name: aws.String("Method"), Value: aws.String(d.method)},
					{Name: aws.String("Endpoint"), Value: aws.String(d.endpoint)},
				},
			},
		},
	}

	if _, err := c.client.PutMetricData(ctx, input); err != nil {
		c.logger.Error("failed to publish request metrics",
			"error", err,
			"method", d.method,
			"endpoint", d.endpoint,
		)
	}
}
