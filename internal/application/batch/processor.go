// Package batch executes ordered lists of mutation operations as one outer
// transaction with one savepoint per item. Business errors (validation,
// not-found, authorization) are caught at the savepoint boundary and
// downgraded to per-item result entries; infrastructure errors abort and
// roll back the whole batch.
package batch

import (
	"context"
	"log/slog"

	"github.com/cyranoaladin/nexus-project-v0/internal/application/unitofwork"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/audit"
	"github.com/cyranoaladin/nexus-project-v0/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RESULT SHAPE
// ══════════════════════════════════════════════════════════════════════════════

// Per-item result statuses. These strings are part of the batch response
// contract and must not be renamed.
const (
	StatusCreated  = "created"
	StatusUpdated  = "updated"
	StatusDeleted  = "deleted"
	StatusNotFound = "not_found"
	StatusInvalid  = "invalid"
)

// Result is one entry of the batch response. The response always has one
// entry per input item, in input order, with no item omitted.
type Result struct {
	Index  int    `json:"index"`
	Status string `json:"status"`
	ID     string `json:"id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// outcome is the successful return of one item executor.
type outcome struct {
	status    string
	id        string
	studentID string
	changed   bool
}

// itemFunc applies one operation through the given savepoint-scoped unit.
type itemFunc func(ctx context.Context, u unitofwork.UnitOfWork) (outcome, error)

// ══════════════════════════════════════════════════════════════════════════════
// PROCESSOR
// ══════════════════════════════════════════════════════════════════════════════

// Processor runs batches. It is stateless; one instance serves all callers.
type Processor struct {
	store  unitofwork.Store
	logger *slog.Logger
}

// NewProcessor creates a batch processor.
func NewProcessor(store unitofwork.Store, logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{store: store, logger: logger}
}

// run executes the items inside one outer transaction. Each item gets its
// own savepoint; a business error rolls back only that savepoint. After the
// loop, one refresh-request event is appended per distinct student whose
// state actually changed.
func (p *Processor) run(ctx context.Context, items []itemFunc) ([]Result, error) {
	results := make([]Result, len(items))

	err := p.store.WithUnit(ctx, func(ctx context.Context, u unitofwork.UnitOfWork) error {
		touched := make(map[string]struct{})

		for i, item := range items {
			sp, err := u.BeginSavepoint(ctx)
			if err != nil {
				return err
			}

			out, err := item(ctx, sp)
			if err != nil {
				if rbErr := sp.Rollback(ctx); rbErr != nil {
					return rbErr
				}
				if shared.IsInfrastructure(err) {
					// Not a per-item failure; abort the whole batch.
					return err
				}
				results[i] = downgrade(i, err)
				p.logger.Warn("batch item rejected",
					slog.Int("index", i),
					slog.String("status", results[i].Status),
					slog.String("error", results[i].Error),
				)
				continue
			}

			if err := sp.Commit(ctx); err != nil {
				return err
			}

			results[i] = Result{Index: i, Status: out.status, ID: out.id}
			if out.changed && out.studentID != "" {
				touched[out.studentID] = struct{}{}
			}
		}

		for studentID := range touched {
			e := audit.NewEvent(studentID, audit.SummaryRefreshRequested, nil)
			if err := u.Events().Append(ctx, e); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

// downgrade maps a business error to a per-item result entry.
func downgrade(index int, err error) Result {
	status := StatusInvalid
	if shared.IsNotFound(err) {
		status = StatusNotFound
	}
	return Result{Index: index, Status: status, Error: err.Error()}
}
