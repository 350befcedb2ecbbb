package alerts

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/logging"
)

const (
	AlertUnconsumedTransfer  = "unconsumed_transfer"
	AlertGuardianSetExpiring = "guardian_set_expiring"

	defaultUnconsumedTransferAge = 10 * time.Minute
	alertRowsLimit               = 100
)

type AlertManager struct {
	logger logging.Logger
	jobs   map[string]*Job
}

func NewAlertManager(logger logging.Logger, provider Provider, reg prometheus.Registerer, chainID uint16, cfg map[string]*config.AlertConfig) (*AlertManager, error) {
	jobs := make(map[string]*Job, len(cfg))

	for name, alertCfg := range cfg {
		if alertCfg == nil {
			alertCfg = new(config.AlertConfig)
		}
		params := &AlertJobParams{
			ChainID: chainID,
			MinAge:  alertCfg.MinAge,
			Limit:   alertRowsLimit,
		}
		switch name {
		case AlertUnconsumedTransfer:
			if params.MinAge <= 0 {
				params.MinAge = defaultUnconsumedTransferAge
			}
			jobs[name] = &Job{
				Func:   provider.FindUnconsumedTransfers,
				Metric: NewAlertUnconsumedTransfer(reg, chainID),
			}
		case AlertGuardianSetExpiring:
			jobs[name] = &Job{
				Func:   provider.FindExpiringGuardianSets,
				Metric: NewAlertGuardianSetExpiring(reg, chainID),
			}
		default:
			return nil, fmt.Errorf("unknown alert type %q", name)
		}
		jobs[name].logger = logger.WithField("alert_job", name)
		jobs[name].Interval = alertCfg.Interval
		if jobs[name].Interval <= 0 {
			jobs[name].Interval = time.Minute
		}
		jobs[name].Timeout = alertCfg.Timeout
		if jobs[name].Timeout <= 0 {
			jobs[name].Timeout = 10 * time.Second
		}
		jobs[name].Params = params
	}

	return &AlertManager{
		logger: logger,
		jobs:   jobs,
	}, nil
}

func (m *AlertManager) Start(ctx context.Context) {
	m.logger.WithField("jobs", len(m.jobs)).Info("starting alert manager jobs")
	for _, job := range m.jobs {
		go job.Start(ctx)
	}
}

// RunOnce evaluates every job a single time and returns the first failure.
func (m *AlertManager) RunOnce(ctx context.Context) error {
	for name, job := range m.jobs {
		if err := job.RunOnce(ctx); err != nil {
			return fmt.Errorf("alert job %s failed: %w", name, err)
		}
	}
	return nil
}
