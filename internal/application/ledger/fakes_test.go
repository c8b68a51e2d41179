package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/ledger/acl"
	"github.com/hodaifayahia/HIS-sub012/internal/domain/shared"
)

// In-memory fakes backing the service tests. They implement just enough of
// the repository contracts for single-goroutine test flows.

type memEntryRepo struct {
	entries map[uuid.UUID]*ledger.LedgerEntry
	order   []uuid.UUID
}

func newMemEntryRepo() *memEntryRepo {
	return &memEntryRepo{entries: make(map[uuid.UUID]*ledger.LedgerEntry)}
}

func (r *memEntryRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.LedgerEntry, error) {
	e, ok := r.entries[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	return &cp, nil
}

func (r *memEntryRepo) FindByBillable(_ context.Context, ref ledger.BillableRef) ([]ledger.LedgerEntry, error) {
	var out []ledger.LedgerEntry
	for _, id := range r.order {
		if r.entries[id].Billable.Equals(ref) {
			out = append(out, *r.entries[id])
		}
	}
	return out, nil
}

func (r *memEntryRepo) FindByBillableForUpdate(ctx context.Context, ref ledger.BillableRef) ([]ledger.LedgerEntry, error) {
	return r.FindByBillable(ctx, ref)
}

func (r *memEntryRepo) FindAll(_ context.Context, _ ledger.EntryFilter) ([]ledger.LedgerEntry, error) {
	out := make([]ledger.LedgerEntry, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, *r.entries[id])
	}
	return out, nil
}

func (r *memEntryRepo) Save(_ context.Context, entry *ledger.LedgerEntry) error {
	if _, ok := r.entries[entry.ID]; !ok {
		r.order = append(r.order, entry.ID)
	}
	cp := *entry
	r.entries[entry.ID] = &cp
	return nil
}

func (r *memEntryRepo) Count(_ context.Context, _ ledger.EntryFilter) (int64, error) {
	return int64(len(r.entries)), nil
}

type memAuthRepo struct {
	auths map[uuid.UUID]*ledger.RefundAuthorization
}

func newMemAuthRepo() *memAuthRepo {
	return &memAuthRepo{auths: make(map[uuid.UUID]*ledger.RefundAuthorization)}
}

func (r *memAuthRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.RefundAuthorization, error) {
	a, ok := r.auths[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (r *memAuthRepo) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ledger.RefundAuthorization, error) {
	return r.FindByID(ctx, id)
}

func (r *memAuthRepo) FindAll(_ context.Context, _ ledger.AuthorizationFilter) ([]ledger.RefundAuthorization, error) {
	out := make([]ledger.RefundAuthorization, 0, len(r.auths))
	for _, a := range r.auths {
		out = append(out, *a)
	}
	return out, nil
}

func (r *memAuthRepo) FindApprovedExpiredBefore(_ context.Context, cutoff time.Time) ([]ledger.RefundAuthorization, error) {
	var out []ledger.RefundAuthorization
	for _, a := range r.auths {
		if a.Status == ledger.AuthorizationStatusApproved && a.ExpiresAt != nil && !cutoff.Before(*a.ExpiresAt) {
			out = append(out, *a)
		}
	}
	return out, nil
}

func (r *memAuthRepo) Save(_ context.Context, a *ledger.RefundAuthorization) error {
	cp := *a
	r.auths[a.ID] = &cp
	return nil
}

type memBankRepo struct {
	requests map[uuid.UUID]*ledger.BankTransactionRequest
}

func newMemBankRepo() *memBankRepo {
	return &memBankRepo{requests: make(map[uuid.UUID]*ledger.BankTransactionRequest)}
}

func (r *memBankRepo) FindByID(_ context.Context, id uuid.UUID) (*ledger.BankTransactionRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (r *memBankRepo) FindByLedgerEntry(_ context.Context, entryID uuid.UUID) (*ledger.BankTransactionRequest, error) {
	for _, req := range r.requests {
		if req.LedgerEntryID == entryID {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memBankRepo) FindAll(_ context.Context, _ ledger.BankRequestFilter) ([]ledger.BankTransactionRequest, error) {
	out := make([]ledger.BankTransactionRequest, 0, len(r.requests))
	for _, req := range r.requests {
		out = append(out, *req)
	}
	return out, nil
}

func (r *memBankRepo) Save(_ context.Context, req *ledger.BankTransactionRequest) error {
	cp := *req
	r.requests[req.ID] = &cp
	return nil
}

// fakeBillables tracks known billable lines and their cached remaining amounts.
type fakeBillables struct {
	finalPrices map[string]decimal.Decimal
	remaining   map[string]decimal.Decimal
}

func newFakeBillables() *fakeBillables {
	return &fakeBillables{
		finalPrices: make(map[string]decimal.Decimal),
		remaining:   make(map[string]decimal.Decimal),
	}
}

func (f *fakeBillables) add(ref ledger.BillableRef, finalPrice decimal.Decimal) {
	f.finalPrices[ref.Key()] = finalPrice
	f.remaining[ref.Key()] = finalPrice
}

func (f *fakeBillables) Exists(_ context.Context, ref ledger.BillableRef) (bool, error) {
	_, ok := f.finalPrices[ref.Key()]
	return ok, nil
}

func (f *fakeBillables) FinalPrice(_ context.Context, ref ledger.BillableRef) (decimal.Decimal, error) {
	p, ok := f.finalPrices[ref.Key()]
	if !ok {
		return decimal.Zero, errors.New("unknown billable")
	}
	return p, nil
}

func (f *fakeBillables) DecrementRemaining(_ context.Context, ref ledger.BillableRef, amount decimal.Decimal) error {
	next := f.remaining[ref.Key()].Sub(amount)
	if next.IsNegative() {
		next = decimal.Zero
	}
	f.remaining[ref.Key()] = next
	return nil
}

func (f *fakeBillables) IncrementRemaining(_ context.Context, ref ledger.BillableRef, amount decimal.Decimal) error {
	next := f.remaining[ref.Key()].Add(amount)
	if limit, ok := f.finalPrices[ref.Key()]; ok && next.GreaterThan(limit) {
		next = limit
	}
	f.remaining[ref.Key()] = next
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

type fakeBankAccounts struct {
	known map[uuid.UUID]bool
}

func newFakeBankAccounts(ids ...uuid.UUID) *fakeBankAccounts {
	f := &fakeBankAccounts{known: make(map[uuid.UUID]bool)}
	for _, id := range ids {
		f.known[id] = true
	}
	return f
}

func (f *fakeBankAccounts) Exists(_ context.Context, accountID uuid.UUID) (bool, error) {
	return f.known[accountID], nil
}

func (f *fakeBankAccounts) IsActive(_ context.Context, accountID uuid.UUID) (bool, error) {
	return f.known[accountID], nil
}

// capturePublisher records every published event.
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
	types := make([]string, 0, len(p.events))
	for _, e := range p.events {
		types = append(types, e.EventType())
	}
	return types
}

// memIdempotencyStore is a map-backed idempotency store.
type memIdempotencyStore struct {
	seen map[string]bool
	err  error
}

func newMemIdempotencyStore() *memIdempotencyStore {
	return &memIdempotencyStore{seen: make(map[string]bool)}
}

func (s *memIdempotencyStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	if s.seen[key] {
		return false, nil
	}
	s.seen[key] = true
	return true, nil
}

func (s *memIdempotencyStore) IsProcessed(_ context.Context, key string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.seen[key], nil
}

func (s *memIdempotencyStore) Release(_ context.Context, key string) error {
	if s.err != nil {
		return s.err
	}
	delete(s.seen, key)
	return nil
}

func (s *memIdempotencyStore) Close() error { return nil }

var (
	_ ledger.LedgerEntryRepository            = (*memEntryRepo)(nil)
	_ ledger.RefundAuthorizationRepository    = (*memAuthRepo)(nil)
	_ ledger.BankTransactionRequestRepository = (*memBankRepo)(nil)
	_ acl.BillableItemProvider                = (*fakeBillables)(nil)
	_ acl.IdentityProvider                    = (*fakeIdentity)(nil)
	_ acl.BankAccountProvider                 = (*fakeBankAccounts)(nil)
	_ shared.EventPublisher                   = (*capturePublisher)(nil)
	_ shared.IdempotencyStore                 = (*memIdempotencyStore)(nil)
)
