package vault

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/vault"
)

// memVaultRepo is an in-memory VaultRepository for service tests.
type memVaultRepo struct {
	vaults map[uuid.UUID]*vault.Vault
}

func newMemVaultRepo() *memVaultRepo {
	return &memVaultRepo{vaults: make(map[uuid.UUID]*vault.Vault)}
}

func (r *memVaultRepo) FindByID(_ context.Context, id uuid.UUID) (*vault.Vault, error) {
	v, ok := r.vaults[id]
	if !ok {
		return nil, nil
	}
	cp := *v
	return &cp, nil
}

func (r *memVaultRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*vault.Vault, error) {
	return r.FindByID(ctx, id)
}

func (r *memVaultRepo) FindAll(_ context.Context, _ shared.Filter) ([]vault.Vault, error) {
	out := make([]vault.Vault, 0, len(r.vaults))
	for _, v := range r.vaults {
		out = append(out, *v)
	}
	return out, nil
}

func (r *memVaultRepo) Save(_ context.Context, v *vault.Vault) error {
	cp := *v
	r.vaults[v.ID] = &cp
	return nil
}

type memTransactionRepo struct {
	transactions map[uuid.UUID]*vault.VaultTransaction
}

func newMemTransactionRepo() *memTransactionRepo {
	return &memTransactionRepo{transactions: make(map[uuid.UUID]*vault.VaultTransaction)}
}

func (r *memTransactionRepo) FindByID(_ context.Context, id uuid.UUID) (*vault.VaultTransaction, error) {
	tx, ok := r.transactions[id]
	if !ok {
		return nil, nil
	}
	cp := *tx
	return &cp, nil
}

func (r *memTransactionRepo) FindAll(_ context.Context, _ vault.TransactionFilter) ([]vault.VaultTransaction, error) {
	out := make([]vault.VaultTransaction, 0, len(r.transactions))
	for _, tx := range r.transactions {
		out = append(out, *tx)
	}
	return out, nil
}

func (r *memTransactionRepo) Save(_ context.Context, tx *vault.VaultTransaction) error {
	cp := *tx
	r.transactions[tx.ID] = &cp
	return nil
}

func (r *memTransactionRepo) Count(_ context.Context, _ vault.TransactionFilter) (int64, error) {
	return int64(len(r.transactions)), nil
}

type memApprovalRepo struct {
	approvals map[uuid.UUID]*vault.ApprovalRequest
}

func newMemApprovalRepo() *memApprovalRepo {
	return &memApprovalRepo{approvals: make(map[uuid.UUID]*vault.ApprovalRequest)}
}

func (r *memApprovalRepo) FindByID(_ context.Context, id uuid.UUID) (*vault.ApprovalRequest, error) {
	a, ok := r.approvals[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memApprovalRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*vault.ApprovalRequest, error) {
	return r.FindByID(ctx, id)
}

func (r *memApprovalRepo) FindByTransaction(_ context.Context, transactionID uuid.UUID) (*vault.ApprovalRequest, error) {
	for _, a := range r.approvals {
		if a.TransactionID == transactionID {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memApprovalRepo) FindPendingForCandidate(_ context.Context, userID uuid.UUID) ([]vault.ApprovalRequest, error) {
	var out []vault.ApprovalRequest
	for _, a := range r.approvals {
		if a.Status == vault.ApprovalStatusPending && a.Candidates.Contains(userID) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memApprovalRepo) Save(_ context.Context, a *vault.ApprovalRequest) error {
	cp := *a
	r.approvals[a.ID] = &cp
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

var _ vault.VaultRepository = (*memVaultRepo)(nil)
var _ vault.VaultTransactionRepository = (*memTransactionRepo)(nil)
var _ vault.ApprovalRequestRepository = (*memApprovalRepo)(nil)
var _ acl.IdentityProvider = (*fakeIdentity)(nil)
var _ shared.EventPublisher = (*capturePublisher)(nil)
