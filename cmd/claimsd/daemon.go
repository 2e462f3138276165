package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/joseph-ayodele/claims-validator/internal/async"
	"github.com/joseph-ayodele/claims-validator/internal/entity"
	"github.com/joseph-ayodele/claims-validator/internal/ingest"
	"github.com/joseph-ayodele/claims-validator/internal/notify"
	"github.com/joseph-ayodele/claims-validator/internal/repository"
	"github.com/joseph-ayodele/claims-validator/internal/services/tenant"
)

// daemon glues the schedule, the inbox and Slack to the validation queue.
type daemon struct {
	store    *repository.Store
	tenants  *tenant.Service
	ingestor *ingest.Ingestor
	queue    async.Queue
	notifier *notify.SlackNotifier
	logger   *slog.Logger
}

func newDaemon(store *repository.Store, notifier *notify.SlackNotifier, logger *slog.Logger) *daemon {
	if logger == nil {
		logger = slog.Default()
	}
	return &daemon{
		store:    store,
		tenants:  tenant.NewService(store.Tenants, logger),
		ingestor: ingest.NewIngestor(store, logger),
		notifier: notifier,
		logger:   logger,
	}
}

// submit queues a validation for tenant code; an already queued tenant is not an error.
func (d *daemon) submit(ctx context.Context, code string) error {
	t, err := d.tenants.Resolve(ctx, code)
	if err != nil {
		return err
	}
	run, err := d.queue.Submit(ctx, t.ID)
	if errors.Is(err, async.ErrAlreadyQueued) {
		d.logger.Info("daemon.submit.skipped", "tenant", code, "reason", err)
		return nil
	}
	if err != nil {
		return err
	}
	d.logger.Info("daemon.submit.ok", "tenant", code, "job_id", run.ID)
	return nil
}

func (d *daemon) tenantCodes(ctx context.Context) ([]string, error) {
	ts, err := d.tenants.ListTenants(ctx)
	if err != nil {
		return nil, err
	}
	codes := make([]string, 0, len(ts))
	for _, t := range ts {
		codes = append(codes, t.Code)
	}
	return codes, nil
}

// onDone posts the run summary once a queued run ends.
func (d *daemon) onDone(ctx context.Context, run *entity.JobRun, _ error) {
	if d.notifier == nil || run == nil {
		return
	}
	s := notify.Summary{Run: run, TenantCode: run.TenantID.String()}
	if t, err := d.store.Tenants.Get(ctx, run.TenantID); err == nil {
		s.TenantCode = t.Code
	}
	if run.ErrorDetail() == "" {
		if m, err := d.store.Metrics.Latest(ctx, run.TenantID); err == nil {
			s.Metric = m
		}
	}
	_ = d.notifier.Notify(ctx, s)
}

// inboxFile upserts the claims of a file under <root>/<tenant-code>/ and
// queues a validation for that tenant.
func (d *daemon) inboxFile(ctx context.Context, root, path string) error {
	code, ok := ingest.TenantCodeFromPath(root, path)
	if !ok {
		d.logger.Debug("daemon.inbox.ignored", "path", path)
		return nil
	}
	t, err := d.tenants.Resolve(ctx, code)
	if err != nil {
		return err
	}
	res, err := d.ingestor.IngestFile(ctx, t.ID, path)
	if err != nil {
		return err
	}
	d.logger.Info("daemon.inbox.ingested", "tenant", code, "path", path, "claims", res.Claims)
	return d.submit(ctx, code)
}

// watchInbox feeds inbox events to inboxFile until ctx ends.
func (d *daemon) watchInbox(ctx context.Context, cfg ingest.WatchConfig) error {
	paths, errs, err := ingest.StartWatcher(ctx, cfg)
	if err != nil {
		return err
	}
	root := cfg.Roots[0]
	go func() {
		for {
			select {
			case p, ok := <-paths:
				if !ok {
					return
				}
				if err := d.inboxFile(ctx, root, p); err != nil {
					d.logger.Warn("daemon.inbox.failed", "path", p, "error", err)
				}
			case err, ok := <-errs:
				if !ok {
					return
				}
				d.logger.Warn("daemon.inbox.watch_error", "error", err)
			}
		}
	}()
	return nil
}
