// internal/service/unit_of_work.go
package service

import (
	"context"
	"sync"

	"campaign-wallet/pkg/db"
)

// UnitOfWorkOwner says who controls the commit and rollback of a unit of work.
type UnitOfWorkOwner int

const (
	// OwnedByLedger means the ledger begins, commits and rolls back its own transaction.
	OwnedByLedger UnitOfWorkOwner = iota
	// OwnedByCaller means the ledger runs inside the caller's transaction and
	// never commits or rolls it back.
	OwnedByCaller
)

// UnitOfWork selects the transactional boundary of a ledger call.
// Build one with OwnUnitOfWork or JoinUnitOfWork.
type UnitOfWork struct {
	owner UnitOfWorkOwner
	tx    db.TxController
	hooks *commitHooks
}

// OwnUnitOfWork lets the ledger open and close its own transaction.
func OwnUnitOfWork() UnitOfWork {
	return UnitOfWork{owner: OwnedByLedger}
}

// JoinUnitOfWork makes the ledger participate in tx. The caller commits or rolls
// back tx, and must roll back if a ledger call inside it fails.
func JoinUnitOfWork(tx db.TxController) UnitOfWork {
	return UnitOfWork{owner: OwnedByCaller, tx: tx}
}

// Owner reports who owns the unit of work.
func (u UnitOfWork) Owner() UnitOfWorkOwner {
	return u.owner
}

// commitHooks collects work that may only run once the enclosing transaction
// has committed, such as publishing ledger events.
type commitHooks struct {
	mu  sync.Mutex
	fns []func(ctx context.Context)
}

func (h *commitHooks) add(fn func(ctx context.Context)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.fns = append(h.fns, fn)
}

func (h *commitHooks) run(ctx context.Context) {
	h.mu.Lock()
	fns := h.fns
	h.fns = nil
	h.mu.Unlock()
	for _, fn := range fns {
		fn(ctx)
	}
}
