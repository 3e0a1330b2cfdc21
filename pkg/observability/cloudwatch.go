package observability

import (
	"context"
	"fmt"

	"ontology-backend/domain/health"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"
	"go.uber.org/zap"
)

// PutMetricDataAPI is the subset of the CloudWatch client the reporter uses.
type PutMetricDataAPI interface {
	PutMetricData(ctx context.Context, params *cloudwatch.PutMetricDataInput, optFns ...func(*cloudwatch.Options)) (*cloudwatch.PutMetricDataOutput, error)
}

// CloudWatchReporter publishes health reports as CloudWatch metrics, one
// datapoint per metric, tagged with the environment.
type CloudWatchReporter struct {
	client      PutMetricDataAPI
	namespace   string
	environment string
	logger      *zap.Logger
}

func NewCloudWatchReporter(client PutMetricDataAPI, namespace, environment string, logger *zap.Logger) *CloudWatchReporter {
	return &CloudWatchReporter{
		client:      client,
		namespace:   namespace,
		environment: environment,
		logger:      logger,
	}
}

// ReportHealth sends the score and the per-check issue counts.
func (r *CloudWatchReporter) ReportHealth(ctx context.Context, report health.Report) error {
	dims := []types.Dimension{{
		Name:  aws.String("Environment"),
		Value: aws.String(r.environment),
	}}
	ts := aws.Time(report.LastUpdated)

	datum := func(name string, value float64, unit types.StandardUnit) types.MetricDatum {
		return types.MetricDatum{
			MetricName: aws.String(name),
			Value:      aws.Float64(value),
			Unit:       unit,
			Timestamp:  ts,
			Dimensions: dims,
		}
	}

	data := []types.MetricDatum{
		datum("HealthScore", float64(report.Score), types.StandardUnitNone),
		datum("TotalNodes", float64(report.TotalNodes), types.StandardUnitCount),
		datum("TotalEdges", float64(report.TotalEdges), types.StandardUnitCount),
		datum("OrphanedNodes", float64(len(report.OrphanedNodes)), types.StandardUnitCount),
		datum("MissingIndexes", float64(len(report.MissingIndexes)), types.StandardUnitCount),
		datum("SchemaIssues", float64(len(report.SchemaIssues)), types.StandardUnitCount),
	}

	if _, err := r.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(r.namespace),
		MetricData: data,
	}); err != nil {
		r.logger.Error("Failed to publish health metrics",
			zap.String("namespace", r.namespace),
			zap.Error(err),
		)
		return fmt.Errorf("failed to publish health metrics: %w", err)
	}

	r.logger.Info("Health metrics published",
		zap.Int("score", report.Score),
		zap.String("status", string(report.Status)),
		zap.Int("issueCount", report.IssueCount),
	)
	return nil
}
