// Package app wires the device client together in a fixed order: local
// database, remote client, entity stores, sync coordinator, then the
// background runner and connectivity monitor.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nimasrn/denitracker/internal/config"
	"github.com/nimasrn/denitracker/internal/connectivity"
	"github.com/nimasrn/denitracker/internal/entitystore"
	"github.com/nimasrn/denitracker/internal/localstore"
	"github.com/nimasrn/denitracker/internal/remote"
	"github.com/nimasrn/denitracker/internal/syncer"
	"github.com/nimasrn/denitracker/pkg/localdb"
	"github.com/nimasrn/denitracker/pkg/logger"
	"github.com/nimasrn/denitracker/pkg/prom"
	"github.com/nimasrn/denitracker/pkg/worker"
)

const syncRunTimeout = 5 * time.Minute

type App struct {
	config *config.Config

	DB     *localdb.DB
	Local  *localstore.Store
	Remote *remote.Client
	IDs    *entitystore.PlaceholderIDs

	Customers    *entitystore.CustomerStore
	Items        *entitystore.ItemStore
	Transactions *entitystore.TransactionStore

	Coordinator *syncer.Coordinator
	Runner      *syncer.Runner
	Monitor     *connectivity.Monitor

	started bool
}

func WritePolicy(name string) (entitystore.WritePolicy, error) {
	switch name {
	case "", "remote":
		return entitystore.WriteRemote, nil
	case "local":
		return entitystore.WriteLocal, nil
	}
	return 0, fmt.Errorf("unknown transaction write policy %q", name)
}

// New opens and migrates the local database and builds every component.
// Nothing runs in the background until Start.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	write, err := WritePolicy(cfg.TransactionWritePolicy)
	if err != nil {
		return nil, err
	}

	db, err := localdb.Open(localdb.Config{Path: cfg.LocalDBPath, Debug: cfg.LocalDBDebug})
	if err != nil {
		return nil, err
	}
	if err := localdb.Migrate(db); err != nil {
		_ = db.Close()
		return nil, err
	}

	a, err := build(ctx, cfg, db, write)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return a, nil
}

func build(ctx context.Context, cfg *config.Config, db *localdb.DB, write entitystore.WritePolicy) (*App, error) {
	local := localstore.New(db)

	client, err := remote.NewClient(remote.Config{
		BaseURL:                 cfg.RemoteBaseURL,
		Timeout:                 cfg.RemoteTimeout,
		MaxRetries:              cfg.RemoteMaxRetries,
		RetryDelay:              cfg.RemoteRetryDelay,
		CircuitBreakerThreshold: cfg.RemoteBreakerThreshold,
		CircuitBreakerTimeout:   cfg.RemoteBreakerTimeout,
	})
	if err != nil {
		return nil, err
	}
	client.SetObserver(func(method, outcome string, latency time.Duration) {
		prom.AddRemoteRequestDuration(latency.Seconds(), method, outcome)
	})

	floor, err := local.MinID(ctx)
	if err != nil {
		return nil, fmt.Errorf("read smallest local id: %w", err)
	}
	ids := entitystore.NewPlaceholderIDs(floor)

	customers := entitystore.NewCustomerStore(local.Customers, client.Customers, ids)
	items := entitystore.NewItemStore(local.Items, client.Items, ids)
	a := &App{
		config:       cfg,
		DB:           db,
		Local:        local,
		Remote:       client,
		IDs:          ids,
		Customers:    customers,
		Items:        items,
		Transactions: entitystore.NewTransactionStore(local.Transactions, client.Transactions, ids, customers, items, write),
	}

	a.Coordinator = syncer.NewCoordinator(syncer.Queues{
		Customers:    local.Customers,
		Items:        local.Items,
		Transactions: local.Transactions,
		Depth:        local.QueueDepth,
	}, syncer.Remotes{
		Customers:    client.Customers,
		Items:        client.Items,
		Transactions: client.Transactions,
	})
	a.Coordinator.AfterRun(func(ctx context.Context, _ syncer.Report) {
		if err := a.Refresh(ctx); err != nil {
			logger.Error("Failed to republish stores after sync", "error", err)
		}
	})

	a.Runner = syncer.NewRunner(a.Coordinator, syncRunTimeout)
	a.Monitor = connectivity.NewMonitor(client, cfg.ConnectivityProbeInterval, cfg.RemoteTimeout)
	a.Monitor.OnOnline(func() { a.Runner.Trigger("online") })
	a.Monitor.OnChange(func(s connectivity.State) { prom.SetOnline(s == connectivity.StateOnline) })

	logger.Info("App initialized", "local_db", cfg.LocalDBPath, "remote", cfg.RemoteBaseURL, "placeholder_floor", floor)
	return a, nil
}

// Load fills every store. Customers and items come first so debts can
// snapshot prices from a loaded item collection.
func (a *App) Load(ctx context.Context) error {
	for _, load := range []func(context.Context) error{
		a.Customers.Load, a.Items.Load, a.Transactions.Load,
	} {
		if err := load(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Refresh republishes every store from the local mirror.
func (a *App) Refresh(ctx context.Context) error {
	var errs []error
	for _, refresh := range []func(context.Context) error{
		a.Customers.Refresh, a.Items.Refresh, a.Transactions.Refresh,
	} {
		errs = append(errs, refresh(ctx))
	}
	return errors.Join(errs...)
}

// SyncNow runs the coordinator on the caller's goroutine.
func (a *App) SyncNow(ctx context.Context) (syncer.Report, error) {
	return a.Coordinator.Run(ctx)
}

// Start launches the sync worker and the connectivity monitor.
func (a *App) Start(ctx context.Context) {
	if a.started {
		return
	}
	a.started = true

	go func() {
		if err := a.Runner.Start(); err != nil && !errors.Is(err, worker.ErrTerminated) {
			logger.Error("Sync runner stopped", "error", err)
		}
	}()
	a.Monitor.Start(ctx)
	if a.config.SyncOnStart {
		a.Runner.Trigger("start")
	}
}

func (a *App) Close() error {
	if a.started {
		a.Monitor.Stop()
		a.Runner.Stop()
	}
	var errs []error
	if a.Remote != nil {
		errs = append(errs, a.Remote.Close())
	}
	errs = append(errs, a.DB.Close())
	return errors.Join(errs...)
}
