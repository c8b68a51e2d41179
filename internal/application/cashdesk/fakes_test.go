package cashdesk

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/cashdesk"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// memSessionRepo is an in-memory DrawerSessionRepository for service tests.
type memSessionRepo struct {
	sessions map[uuid.UUID]*cashdesk.DrawerSession
}

func newMemSessionRepo() *memSessionRepo {
	return &memSessionRepo{sessions: make(map[uuid.UUID]*cashdesk.DrawerSession)}
}

func (r *memSessionRepo) FindByID(_ context.Context, id uuid.UUID) (*cashdesk.DrawerSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, nil
	}
	cp := *s
	return &cp, nil
}

func (r *memSessionRepo) FindActiveByCaisse(_ context.Context, caisseID uuid.UUID) (*cashdesk.DrawerSession, error) {
	for _, s := range r.sessions {
		if s.CaisseID == caisseID && s.Status.IsActive() {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memSessionRepo) FindActiveByCaisseForUpdate(ctx context.Context, caisseID uuid.UUID) (*cashdesk.DrawerSession, error) {
	return r.FindActiveByCaisse(ctx, caisseID)
}

func (r *memSessionRepo) FindAll(_ context.Context, _ cashdesk.SessionFilter) ([]cashdesk.DrawerSession, error) {
	out := make([]cashdesk.DrawerSession, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, *s)
	}
	return out, nil
}

func (r *memSessionRepo) Save(_ context.Context, session *cashdesk.DrawerSession) error {
	cp := *session
	r.sessions[session.ID] = &cp
	return nil
}

func (r *memSessionRepo) Count(_ context.Context, _ cashdesk.SessionFilter) (int64, error) {
	return int64(len(r.sessions)), nil
}

// memTransferRepo is an in-memory CashTransferRepository. SaveAcceptance
// honors the compare-and-swap contract on the pending status.
type memTransferRepo struct {
	transfers map[uuid.UUID]*cashdesk.CashTransfer
}

func newMemTransferRepo() *memTransferRepo {
	return &memTransferRepo{transfers: make(map[uuid.UUID]*cashdesk.CashTransfer)}
}

func (r *memTransferRepo) FindByID(_ context.Context, id uuid.UUID) (*cashdesk.CashTransfer, error) {
	t, ok := r.transfers[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (r *memTransferRepo) FindAll(_ context.Context, _ cashdesk.TransferFilter) ([]cashdesk.CashTransfer, error) {
	out := make([]cashdesk.CashTransfer, 0, len(r.transfers))
	for _, t := range r.transfers {
		out = append(out, *t)
	}
	return out, nil
}

func (r *memTransferRepo) FindPendingExpiredBefore(_ context.Context, cutoff time.Time) ([]cashdesk.CashTransfer, error) {
	var out []cashdesk.CashTransfer
	for _, t := range r.transfers {
		if t.Status == cashdesk.TransferStatusPending && !cutoff.Before(t.TokenExpiresAt) {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (r *memTransferRepo) Save(_ context.Context, transfer *cashdesk.CashTransfer) error {
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

func (r *memTransferRepo) SaveAcceptance(_ context.Context, transfer *cashdesk.CashTransfer) error {
	stored, ok := r.transfers[transfer.ID]
	if !ok || stored.Status != cashdesk.TransferStatusPending {
		return shared.ErrConcurrencyConflict
	}
	cp := *transfer
	r.transfers[transfer.ID] = &cp
	return nil
}

// fakeIdentity resolves roles from a static map.
type fakeIdentity struct {
	roles map[uuid.UUID][]acl.Role
}

func newFakeIdentity() *fakeIdentity {
	return &fakeIdentity{roles: make(map[uuid.UUID][]acl.Role)}
}

func (f *fakeIdentity) grant(userID uuid.UUID, role acl.Role) {
	f.roles[userID] = append(f.roles[userID], role)
}

func (f *fakeIdentity) Exists(_ context.Context, userID uuid.UUID) (bool, error) {
	_, ok := f.roles[userID]
	return ok, nil
}

func (f *fakeIdentity) HasRole(_ context.Context, userID uuid.UUID, role acl.Role) (bool, error) {
	for _, r := range f.roles[userID] {
		if r == role {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeIdentity) UsersWithRole(_ context.Context, role acl.Role) ([]uuid.UUID, error) {
	var out []uuid.UUID
	for id, roles := range f.roles {
		for _, r := range roles {
			if r == role {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// capturePublisher records published domain events.
type capturePublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *capturePublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *capturePublisher) eventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}

var _ cashdesk.DrawerSessionRepository = (*memSessionRepo)(nil)
var _ cashdesk.CashTransferRepository = (*memTransferRepo)(nil)
var _ acl.IdentityProvider = (*fakeIdentity)(nil)
var _ shared.EventPublisher = (*capturePublisher)(nil)
