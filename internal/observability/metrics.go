// Package observability publishes API telemetry to AWS CloudWatch.
package observability

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"skycast/internal/core"
)

// Metric and dimension names for API request telemetry.
const (
	metricRequestCount   = "RequestCount"
	metricRequestLatency = "RequestLatency"

	dimMethod   = "Method"
	dimEndpoint = "Endpoint"
	dimStatus   = "Status"
)

// putTimeout bounds each PutMetricData call so a slow CloudWatch endpoint
// cannot stall request handling.
const putTimeout = 2 * time.Second

// CloudWatchClient abstracts the CloudWatch PutMetricData operation for
// testability.
type CloudWatchClient interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// Compile-time assertion that CloudWatchMetrics implements core.MetricsCollector.
var _ core.MetricsCollector = (*CloudWatchMetrics)(nil)

// CloudWatchMetrics implements core.MetricsCollector by emitting request
// count and latency metrics to CloudWatch, dimensioned by method, endpoint
// pattern, and status class.
type CloudWatchMetrics struct {
	client    CloudWatchClient
	namespace string
	logger    *slog.Logger
}

// NewCloudWatchMetrics creates a collector that publishes to the given
// CloudWatch namespace.
func NewCloudWatchMetrics(client CloudWatchClient, namespace string, logger *slog.Logger) *CloudWatchMetrics {
	if logger == nil {
		logger = slog.Default()
	}
	return &CloudWatchMetrics{
		client:    client,
		namespace: namespace,
		logger:    logger,
	}
}

// RecordRequest emits one count and one latency datum for a completed
// request. Publish failures are logged and swallowed; telemetry must never
// fail a request.
func (m *CloudWatchMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {
	dims := []cwtypes.Dimension{
		{Name: aws.String(dimMethod), Value: aws.String(method)},
		{Name: aws.String(dimEndpoint), Value: aws.String(endpoint)},
		{Name: aws.String(dimStatus), Value: aws.String(status)},
	}

	input := &cloudwatch.PutMetricDataInput{
		Namespace: aws.String(m.namespace),
		MetricData: []cwtypes.MetricDatum{
			{
				MetricName: aws.String(metricRequestCount),
				Value:      aws.Float64(1),
				Unit:       cwtypes.StandardUnitCount,
				Dimensions: dims,
			},
			{
				MetricName: aws.String(metricRequestLatency),
				Value:      aws.Float64(float64(duration.Milliseconds())),
				Unit:       cwtypes.StandardUnitMilliseconds,
				Dimensions: dims,
			},
		},
	}

	ctx, cancel := context.WithTimeout(context.Background(), putTimeout)
	defer cancel()
	if _, err := m.client.PutMetricData(ctx, input); err != nil {
		m.logger.Error("failed to record request metric",
			slog.String("error", err.Error()),
			slog.String("method", method),
			slog.String("endpoint", endpoint),
		)
	}
}

// NoopMetrics is used when metrics are disabled by configuration.
type NoopMetrics struct{}

// RecordRequest implements core.MetricsCollector as a no-op.
func (NoopMetrics) RecordRequest(method, endpoint, status string, duration time.Duration) {}
