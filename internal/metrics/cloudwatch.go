package metrics

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatch"
	cwtypes "github.com/aws/aws-sdk-go-v2/service/cloudwatch/types"

	"oisentry/logger"
)

type cloudWatchState struct {
	client    *cloudwatch.Client
	namespace string
	region    string
}

var cwState atomic.Pointer[cloudWatchState]

// InitCloudWatch initialises the CloudWatch client using the provided region
// and namespace. When the client cannot be created the function logs a warning
// and leaves publishing disabled.
func InitCloudWatch(region, namespace string) {
	log := logger.GetLogger().WithComponent("cloudwatch")

	ctx := context.Background()
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		log.WithError(err).Warn("failed to load AWS configuration; CloudWatch metrics disabled")
		return
	}

	state := &cloudWatchState{
		client:    cloudwatch.NewFromConfig(cfg),
		namespace: namespace,
		region:    cfg.Region,
	}
	if state.namespace == "" {
		state.namespace = "OISentry"
	}
	cwState.Store(state)

	log.WithFields(logger.Fields{
		"region":    state.region,
		"namespace": state.namespace,
	}).Info("initialized CloudWatch client")
}

// PublishCycle pushes per-cycle scan metrics to CloudWatch. It is a no-op
// until InitCloudWatch has configured a client.
func PublishCycle(ctx context.Context, scanned, spikes int, duration time.Duration) {
	state := cwState.Load()
	if state == nil || state.client == nil {
		return
	}

	now := time.Now().UTC()
	data := []cwtypes.MetricDatum{
		{
			MetricName: aws.String("SymbolsScanned"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(scanned)),
		},
		{
			MetricName: aws.String("SpikesFlagged"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitCount,
			Value:      aws.Float64(float64(spikes)),
		},
		{
			MetricName: aws.String("ScanDuration"),
			Timestamp:  aws.Time(now),
			Unit:       cwtypes.StandardUnitSeconds,
			Value:      aws.Float64(duration.Seconds()),
		},
	}

	_, err := state.client.PutMetricData(ctx, &cloudwatch.PutMetricDataInput{
		Namespace:  aws.String(state.namespace),
		MetricData: data,
	})
	if err != nil {
		logger.GetLogger().WithComponent("cloudwatch").WithError(err).Warn("failed to publish scan metrics")
	}
}
