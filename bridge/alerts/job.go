package alerts

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/omni/vaa-bridge/logging"
)

type AlertJobParams struct {
	ChainID uint16
	// MinAge is how long a condition must hold before it is reported.
	MinAge time.Duration
	Limit  uint64
}

type AlertMetricValues map[string]string

const ValueLabelTag = "_value"

func (v AlertMetricValues) Labels() prometheus.Labels {
	labels := make(prometheus.Labels, len(v))
	for k, val := range v {
		if k != ValueLabelTag {
			labels[k] = val
		}
	}
	return labels
}

func (v AlertMetricValues) Value() float64 {
	val, ok := v[ValueLabelTag]
	if !ok {
		return 0
	}
	res, _ := strconv.ParseFloat(val, 64)
	return res
}

// ConvertToAlertMetricValues turns a slice of alert rows into label sets using
// their json tags. Every field must encode as a json string.
func ConvertToAlertMetricValues(v interface{}) ([]AlertMetricValues, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("can't marshal alert values to json: %w", err)
	}
	var res []AlertMetricValues
	err = json.Unmarshal(raw, &res)
	if err != nil {
		return nil, fmt.Errorf("can't unmarshal alert values to []AlertMetricValues: %w", err)
	}
	return res, nil
}

type Job struct {
	logger   logging.Logger
	Metric   *prometheus.GaugeVec
	Interval time.Duration
	Timeout  time.Duration
	Func     func(ctx context.Context, params *AlertJobParams) (interface{}, error)
	Params   *AlertJobParams
}

func (j *Job) Start(ctx context.Context) {
	ticker := time.NewTicker(j.Interval)
	for {
		if err := j.RunOnce(ctx); err != nil {
			j.logger.WithError(err).Error("failed to process alert job")
		}

		select {
		case <-ticker.C:
			continue
		case <-ctx.Done():
			ticker.Stop()
			return
		}
	}
}

// RunOnce evaluates the alert and replaces the exported series with the result.
// On failure the previously exported series are kept.
func (j *Job) RunOnce(ctx context.Context) error {
	timeoutCtx, cancel := context.WithTimeout(ctx, j.Timeout)
	defer cancel()

	start := time.Now()
	alerts, err := j.Func(timeoutCtx, j.Params)
	if err != nil {
		return err
	}
	values, err := ConvertToAlertMetricValues(alerts)
	if err != nil {
		return fmt.Errorf("can't convert to alert metric values: %w", err)
	}
	j.Metric.Reset()
	if len(values) == 0 {
		j.logger.WithField("duration", time.Since(start)).Info("no alerts has been found")
		return nil
	}
	j.logger.WithFields(logrus.Fields{
		"count":    len(values),
		"duration": time.Since(start),
	}).Warn("found some possible alerts")
	for _, v := range values {
		j.Metric.With(v.Labels()).Set(v.Value())
	}
	return nil
}
