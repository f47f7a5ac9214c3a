package observability

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturingCW struct {
	inputs []*cloudwatch.PutMetricDataInput
	err    error
}

func (c *capturingCW) PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error) {
	c.inputs = append(c.inputs, params)
	if c.err != nil {
		return nil, c.err
	}
	return &cloudwatch.PutMetricDataOutput{}, nil
}

func TestRecordRequestPublishesCountAndLatency(t *testing.T) {
	cw := &capturingCW{}
	m := NewCloudWatchMetrics(cw, "SkyCast", slog.New(slog.NewTextHandler(io.Discard, nil)))

	m.RecordRequest("GET", "/v1/weather/current", "200", 42*time.Millisecond)

	require.Len(t, cw.inputs, 1)
	input := cw.inputs[0]
	assert.Equal(t, "SkyCast", *input.Namespace)
	require.Len(t, input.MetricData, 2)

	count := input.MetricData[0]
	assert.Equal(t, metricRequestCount, *count.MetricName)
	assert.Equal(t, float64(1), *count.Value)
	assert.Equal(t, cwtypes.StandardUnitCount, count.Unit)
	require.Len(t, count.Dimensions, 3)

	latency := input.MetricData[1]
	assert.Equal(t, metricRequestLatency, *latency.MetricName)
	assert.Equal(t, float64(42), *latency.Value)
	assert.Equal(t, cwtypes.StandardUnitMilliseconds, latency.Unit)
}

func TestRecordRequestSwallowsPublishErrors(t *testing.T) {
	cw := &capturingCW{err: errors.New("throttled")}
	m := NewCloudWatchMetrics(cw, "SkyCast", slog.New(slog.NewTextHandler(io.Discard, nil)))

	// Must not panic or propagate.
	m.RecordRequest("POST", "/v1/activities/recommendations", "502", time.Second)
	require.Len(t, cw.inputs, 1)
}
