// Package app opens the storage and bridge described by a config file.
package app

import (
	"fmt"

	"github.com/omni/vaa-bridge/bridge"
	"github.com/omni/vaa-bridge/bridge/alerts"
	"github.com/omni/vaa-bridge/config"
	"github.com/omni/vaa-bridge/db"
	"github.com/omni/vaa-bridge/ethclient"
	"github.com/omni/vaa-bridge/logging"
	"github.com/omni/vaa-bridge/price"
	"github.com/omni/vaa-bridge/repository"
	"github.com/omni/vaa-bridge/repository/memory"
)

type App struct {
	Bridge *bridge.Bridge
	Ledger repository.Ledger
	Alerts alerts.Provider

	dbConn *db.DB
}

func Open(logger logging.Logger, cfg *config.Config) (*App, error) {
	a := new(App)
	switch cfg.Storage {
	case config.StoragePostgres:
		dbConn, err := db.ConnectToDBAndMigrate(cfg.DBConfig)
		if err != nil {
			return nil, fmt.Errorf("can't connect to database and apply migrations: %w", err)
		}
		a.dbConn = dbConn
		a.Ledger = repository.NewPostgresLedger(dbConn)
		a.Alerts = alerts.NewDBAlertsProvider(dbConn)
	case config.StorageMemory:
		logger.Warn("using in-memory storage, state will be lost on exit")
		a.Ledger = memory.NewLedger()
		a.Alerts = alerts.NewLedgerAlertsProvider(a.Ledger, nil)
	default:
		return nil, fmt.Errorf("unknown storage mode %q", cfg.Storage)
	}

	var opts []bridge.Option
	if cfg.PriceOracle != nil {
		client, err := ethclient.NewClient(cfg.PriceOracle.RPC.Host, cfg.PriceOracle.RPC.Timeout, cfg.PriceOracle.ChainID)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("can't dial price oracle rpc client: %w", err)
		}
		opts = append(opts, bridge.WithPriceProvider(price.NewOracleProvider(logger.WithField("service", "price_oracle"), client)))
	}

	b, err := bridge.NewBridge(logger.WithField("service", "bridge"), a.Ledger, cfg.Bridge, opts...)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("can't create bridge: %w", err)
	}
	a.Bridge = b
	return a, nil
}

func (a *App) Persistent() bool {
	return a.dbConn != nil
}

func (a *App) Close() {
	if a.dbConn != nil {
		//nolint:errcheck
		a.dbConn.Close()
	}
}
