package metrics

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingClient struct {
	mu     sync.Mutex
	inputs []*cloudwatch.PutMetricDataInput
}

func (c *capturingClient) PutMetricData(_ context.Context, params *cloudwatch.PutMetricDataInput, _ ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inputs = append(c.inputs, params)
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func (c *capturingClient) all() []*cloudwatch.PutMetricDataInput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*cloudwatch.PutMetricDataInput(nil), c.inputs...)
}

func TestCloudWatchCollector_RecordRequest(t *testing.T) {
	client := &capturingClient{}
	collector := NewCloudWatchCollector(client, "Subtrack", slog.New(slog.DiscardHandler))

	collector.RecordRequest("GET", "/v1/profile", "200", 42*time.Millisecond)
	require.NoError(t, collector.Close())

	inputs := client.all()
	require.Len(t, inputs, 1)
	assert.Equal(t, "Subtrack", *inputs[0].Namespace)

	require.Len(t, inputs[0].MetricData, 2)
	count := inputs[0].MetricData[0]
	assert.Equal(t, "RequestCount", *count.MetricName)
	assert.Equal(t, float64(1), *count.Value)
	require.Len(t, count.Dimensions, 3)
	assert.Equal(t, "GET", *count.Dimensions[0].Value)
	assert.Equal(t, "/v1/profile", *count.Dimensions[1].Value)
	assert.Equal(t, "200", *count.Dimensions[2].Value)

	latency := inputs[0].MetricData[1]
	assert.Equal(t, "RequestLatency", *latency.MetricName)
	assert.Equal(t, float64(42), *latency.Value)
}

func TestCloudWatchCollector_CloseDrainsQueue(t *testing.T) {
	client := &capturingClient{}
	collector := NewCloudWatchCollector(client, "Subtrack", slog.New(slog.DiscardHandler))

	for i := 0; i < 10; i++ {
		collector.RecordRequest("POST", "/v1/subscriptions", "201", time.Millisecond)
	}
	require.NoError(t, collector.Close())

	assert.Len(t, client.all(), 10)
}
