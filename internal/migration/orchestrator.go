// Package migration coordinates batch cross-provider customer moves:
// one concurrent task per customer, plan resolution through the catalog,
// and a per-customer outcome report that survives partial failure.
package migration

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/netbridge/iptv-migrator/internal/catalog"
	"github.com/netbridge/iptv-migrator/internal/models"
	"github.com/netbridge/iptv-migrator/internal/vendors"
)

// PrimaryGateway is the slice of the Netplay gateway the orchestrator
// needs.
type PrimaryGateway interface {
	MigrateCustomer(ctx context.Context, customerID, serverID, packageID string) error
}

// SecondaryGateway is the slice of the Maxplayer gateway the
// orchestrator needs. The flow reports its result as a status string
// and never returns an error.
type SecondaryGateway interface {
	MigrateByUsername(ctx context.Context, username, destServerName string) string
}

// Orchestrator fans a batch out into per-customer tasks. All tasks run
// concurrently and are awaited jointly; each contributes exactly one
// outcome regardless of how it fails, so one customer can never abort
// its siblings.
type Orchestrator struct {
	Primary   PrimaryGateway
	Secondary SecondaryGateway
	Catalog   *catalog.Catalog
	Log       *log.Logger
}

// RunBatch migrates every customer in the request to the destination
// server, resolving each one's current plan to the equivalent plan
// there. The returned slice maps 1:1 to req.Customers in input order.
// An error is returned only when the batch cannot start at all (the
// plan catalog cannot be loaded); per-customer failures are reported in
// the outcomes. The progress callback may be nil; it is invoked from
// concurrent tasks and must be safe for that.
func (o *Orchestrator) RunBatch(ctx context.Context, req models.BatchMigration, progress func(string)) ([]models.MigrationOutcome, error) {
	if len(req.Customers) == 0 {
		return nil, fmt.Errorf("%w: no customers in batch", vendors.ErrValidation)
	}
	if req.ServerID == "" {
		return nil, fmt.Errorf("%w: destination server required", vendors.ErrValidation)
	}
	if progress == nil {
		progress = func(string) {}
	}

	if err := o.Catalog.EnsureLoaded(ctx); err != nil {
		return nil, err
	}
	progress(fmt.Sprintf("Catálogo de planos carregado (%d planos)", o.Catalog.Size()))

	// A miss may mean the catalog is stale; rebuild it at most once per
	// batch, whichever task hits the miss first.
	var reload sync.Once
	reloadOnce := func() {
		reload.Do(func() {
			progress("Plano não encontrado, recarregando catálogo")
			if err := o.Catalog.Reload(ctx); err != nil {
				o.logf("catalog reload failed", "err", err)
			}
		})
	}

	outcomes := make([]models.MigrationOutcome, len(req.Customers))
	var wg sync.WaitGroup
	for i, customer := range req.Customers {
		wg.Add(1)
		go func(i int, c models.Customer) {
			defer wg.Done()
			outcomes[i] = o.migrateOne(ctx, c, req, reloadOnce, progress)
		}(i, customer)
	}
	wg.Wait()

	return outcomes, nil
}

// migrateOne runs the full flow for a single customer. Every failure
// mode is converted into the outcome before returning; nothing escapes.
func (o *Orchestrator) migrateOne(ctx context.Context, c models.Customer, req models.BatchMigration, reloadOnce func(), progress func(string)) models.MigrationOutcome {
	out := models.MigrationOutcome{
		Username:        c.Username,
		MaxplayerStatus: models.StatusNotRequested,
	}

	planID, ok := o.Catalog.FindPlan(req.ServerID, c.PackageName)
	if !ok {
		reloadOnce()
		planID, ok = o.Catalog.FindPlan(req.ServerID, c.PackageName)
	}
	if !ok {
		out.MigrationStatus = fmt.Sprintf("Plano %q não encontrado no servidor de destino", c.PackageName)
		if req.WithMaxplayer {
			out.MaxplayerStatus = models.StatusNotExecuted
		}
		progress(fmt.Sprintf("%s: %s", c.Username, out.MigrationStatus))
		return out
	}

	if err := o.Primary.MigrateCustomer(ctx, c.ID, req.ServerID, planID); err != nil {
		out.MigrationStatus = migrationFailure(err)
		if req.WithMaxplayer {
			out.MaxplayerStatus = models.StatusNotExecuted
		}
		progress(fmt.Sprintf("%s: %s", c.Username, out.MigrationStatus))
		return out
	}
	out.MigrationStatus = models.StatusMigrated
	progress(fmt.Sprintf("%s: migrado na Netplay (plano %s)", c.Username, planID))

	if req.WithMaxplayer && o.Secondary != nil {
		out.MaxplayerStatus = o.Secondary.MigrateByUsername(ctx, c.Username, req.ServerName)
		progress(fmt.Sprintf("%s: Maxplayer: %s", c.Username, out.MaxplayerStatus))
	}
	return out
}

// migrationFailure turns a primary gateway error into a report string,
// preferring the vendor's own message.
func migrationFailure(err error) string {
	var verr *vendors.VendorError
	if errors.As(err, &verr) {
		return fmt.Sprintf("Erro na migração: %s", verr.Message)
	}
	return fmt.Sprintf("Erro na migração: %v", err)
}

func (o *Orchestrator) logf(msg string, kv ...interface{}) {
	if o.Log != nil {
		o.Log.Warn(msg, kv...)
	}
}
