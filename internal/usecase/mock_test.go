//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"marketplace-payments/internal/domain"
	"marketplace-payments/internal/domain/model"
	"marketplace-payments/internal/domain/ports/adapter"
	"marketplace-payments/internal/domain/ports/repository"
)

// =============================
// Transaction manager
// =============================

// stateful is implemented by mock repos whose writes must be undone when a
// transaction callback returns an error.
type stateful interface {
	snapshot() any
	restore(any)
}

// MockTxManager serializes transaction callbacks and restores registered
// stores when the callback fails, so rollback-dependent flows behave like
// they do against a real database.
type MockTxManager struct {
	mu     sync.Mutex
	stores []stateful

	WithTxFunc func(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

func NewMockTxManager(stores ...stateful) *MockTxManager {
	return &MockTxManager{stores: stores}
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

func (m *MockTxManager) WithTx(ctx context.Context, opts pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, opts, fn)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	snaps := make([]any, len(m.stores))
	for i, s := range m.stores {
		snaps[i] = s.snapshot()
	}
	if err := fn(ctx, repository.NoTX); err != nil {
		for i, s := range m.stores {
			s.restore(snaps[i])
		}
		return err
	}
	return nil
}

// =============================
// Payments
// =============================

type MockPaymentRepo struct {
	mu       sync.Mutex
	store    map[string]*model.Payment
	byIntent map[string]string

	SaveFunc func(ctx context.Context, tx repository.Tx, p *model.Payment) error
}

func NewMockPaymentRepo() *MockPaymentRepo {
	return &MockPaymentRepo{store: map[string]*model.Payment{}, byIntent: map[string]string{}}
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Save(ctx context.Context, tx repository.Tx, p *model.Payment) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.store[p.ID] = &cp
	m.byIntent[p.ExternalIntentID] = p.ID
	return nil
}

func (m *MockPaymentRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByExternalIntentID(ctx context.Context, tx repository.Tx, intentID string) (*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byIntent[intentID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *m.store[id]
	return &cp, nil
}

func (m *MockPaymentRepo) UpdateStatusIfPending(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus, failureReason *string, completedAt *time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return false, nil
	}
	if p.Status != model.PaymentStatusPending && p.Status != model.PaymentStatusProcessing {
		return false, nil
	}
	p.Status = status
	if failureReason != nil {
		p.FailureReason = *failureReason
	}
	if completedAt != nil {
		t := *completedAt
		p.CompletedAt = &t
	}
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) UpdateStatusIfCompleted(ctx context.Context, tx repository.Tx, id string, status model.PaymentStatus) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok || p.Status != model.PaymentStatusCompleted {
		return false, nil
	}
	p.Status = status
	p.UpdatedAt = time.Now()
	return true, nil
}

func (m *MockPaymentRepo) StoreResult(ctx context.Context, tx repository.Tx, id string, res *model.ApplicationResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.store[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Result = res
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepo) ListPendingOlderThan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.Payment
	for _, p := range m.store {
		if p.Status == model.PaymentStatusPending && p.CreatedAt.Before(olderThan) {
			cp := *p
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPaymentRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.Payment, len(m.store))
	for id, p := range m.store {
		snap[id] = *p
	}
	return snap
}

func (m *MockPaymentRepo) restore(v any) {
	snap := v.(map[string]model.Payment)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.store = make(map[string]*model.Payment, len(snap))
	m.byIntent = make(map[string]string, len(snap))
	for id, p := range snap {
		cp := p
		m.store[id] = &cp
		m.byIntent[p.ExternalIntentID] = id
	}
}

// =============================
// Point ledger
// =============================

type MockPointLedgerRepo struct {
	mu       sync.Mutex
	accounts map[string]*model.PointAccount
	entries  map[string][]*model.PointTransaction

	AppendErr error // simulate a ledger write failure
}

func NewMockPointLedgerRepo() *MockPointLedgerRepo {
	return &MockPointLedgerRepo{
		accounts: map[string]*model.PointAccount{},
		entries:  map[string][]*model.PointTransaction{},
	}
}

var _ repository.PointLedgerRepository = (*MockPointLedgerRepo)(nil)

func (m *MockPointLedgerRepo) GetAccountForUpdate(ctx context.Context, tx repository.Tx, accountID string) (*model.PointAccount, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (m *MockPointLedgerRepo) CreateAccount(ctx context.Context, tx repository.Tx, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.accounts[accountID]; ok {
		return nil
	}
	now := time.Now()
	m.accounts[accountID] = &model.PointAccount{AccountID: accountID, CreatedAt: now, UpdatedAt: now}
	return nil
}

func (m *MockPointLedgerRepo) SetBalance(ctx context.Context, tx repository.Tx, accountID string, balance int64) error {
	if balance < 0 {
		return domain.ErrInvalidArgument
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.Balance = balance
	a.UpdatedAt = time.Now()
	return nil
}

func (m *MockPointLedgerRepo) AppendTransaction(ctx context.Context, tx repository.Tx, entry *model.PointTransaction) error {
	if m.AppendErr != nil {
		return m.AppendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *entry
	m.entries[entry.AccountID] = append(m.entries[entry.AccountID], &cp)
	return nil
}

func (m *MockPointLedgerRepo) ListTransactions(ctx context.Context, tx repository.Tx, accountID string, limit int, before *time.Time) ([]*model.PointTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*model.PointTransaction
	for _, e := range m.entries[accountID] {
		if before != nil && !e.CreatedAt.Before(*before) {
			continue
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MockPointLedgerRepo) ResetDailyUsage(ctx context.Context, tx repository.Tx, accountID string, day time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.FreeActionsUsed = 0
	a.LastReset = day
	return nil
}

func (m *MockPointLedgerRepo) IncrementDailyUsage(ctx context.Context, tx repository.Tx, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.accounts[accountID]
	if !ok {
		return domain.ErrNotFound
	}
	a.FreeActionsUsed++
	return nil
}

// Entries returns the raw ledger for an account in append order.
func (m *MockPointLedgerRepo) Entries(accountID string) []*model.PointTransaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.PointTransaction, 0, len(m.entries[accountID]))
	for _, e := range m.entries[accountID] {
		cp := *e
		out = append(out, &cp)
	}
	return out
}

// Seed installs an account with a balance, bypassing the ledger.
func (m *MockPointLedgerRepo) Seed(accountID string, balance int64, freeUsed int, lastReset time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	m.accounts[accountID] = &model.PointAccount{
		AccountID:       accountID,
		Balance:         balance,
		FreeActionsUsed: freeUsed,
		LastReset:       lastReset,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

type ledgerSnap struct {
	accounts map[string]model.PointAccount
	entries  map[string][]*model.PointTransaction
}

func (m *MockPointLedgerRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := ledgerSnap{
		accounts: make(map[string]model.PointAccount, len(m.accounts)),
		entries:  make(map[string][]*model.PointTransaction, len(m.entries)),
	}
	for id, a := range m.accounts {
		s.accounts[id] = *a
	}
	for id, es := range m.entries {
		s.entries[id] = append([]*model.PointTransaction(nil), es...)
	}
	return s
}

func (m *MockPointLedgerRepo) restore(v any) {
	s := v.(ledgerSnap)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts = make(map[string]*model.PointAccount, len(s.accounts))
	for id, a := range s.accounts {
		cp := a
		m.accounts[id] = &cp
	}
	m.entries = make(map[string][]*model.PointTransaction, len(s.entries))
	for id, es := range s.entries {
		m.entries[id] = append([]*model.PointTransaction(nil), es...)
	}
}

// =============================
// Catalog
// =============================

type MockCatalogRepo struct {
	mu            sync.Mutex
	packages      map[string]*model.PointPackage
	boostPrices   map[string]*model.BoostPricing
	verifPrices   map[string]*model.VerificationPricing
	premiumPrices map[string]*model.PremiumPricing
	extraListing  *model.ExtraListingPricing
}

func NewMockCatalogRepo() *MockCatalogRepo {
	return &MockCatalogRepo{
		packages:      map[string]*model.PointPackage{},
		boostPrices:   map[string]*model.BoostPricing{},
		verifPrices:   map[string]*model.VerificationPricing{},
		premiumPrices: map[string]*model.PremiumPricing{},
	}
}

var _ repository.CatalogRepository = (*MockCatalogRepo)(nil)

func (m *MockCatalogRepo) AddPackage(p *model.PointPackage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.ID] = p
}

func (m *MockCatalogRepo) AddBoostPricing(p *model.BoostPricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boostPrices[p.ID] = p
}

func (m *MockCatalogRepo) AddVerificationPricing(p *model.VerificationPricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifPrices[p.ID] = p
}

func (m *MockCatalogRepo) AddPremiumPricing(p *model.PremiumPricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.premiumPrices[p.ID] = p
}

func (m *MockCatalogRepo) SetExtraListingPricing(p *model.ExtraListingPricing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extraListing = p
}

func (m *MockCatalogRepo) PointPackage(ctx context.Context, id string) (*model.PointPackage, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.packages[id]
	if !ok || !p.Active {
		return nil, domain.ErrPricingNotFound
	}
	return p, nil
}

func (m *MockCatalogRepo) BoostPricing(ctx context.Context, id string) (*model.BoostPricing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.boostPrices[id]
	if !ok || !p.Active {
		return nil, domain.ErrPricingNotFound
	}
	return p, nil
}

func (m *MockCatalogRepo) VerificationPricing(ctx context.Context, id string) (*model.VerificationPricing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.verifPrices[id]
	if !ok || !p.Active {
		return nil, domain.ErrPricingNotFound
	}
	return p, nil
}

func (m *MockCatalogRepo) PremiumPricing(ctx context.Context, tier model.PremiumTier, durationDays int) (*model.PremiumPricing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.premiumPrices {
		if p.Tier == tier && p.DurationDays == durationDays && p.Active {
			return p, nil
		}
	}
	return nil, domain.ErrPricingNotFound
}

func (m *MockCatalogRepo) ExtraListingPricing(ctx context.Context) (*model.ExtraListingPricing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.extraListing == nil || !m.extraListing.Active {
		return nil, domain.ErrPricingNotFound
	}
	return m.extraListing, nil
}

// =============================
// Entitlements
// =============================

type MockBoostRepo struct {
	mu     sync.Mutex
	boosts map[string]*model.Boost // by boost id
}

func NewMockBoostRepo() *MockBoostRepo {
	return &MockBoostRepo{boosts: map[string]*model.Boost{}}
}

var _ repository.BoostRepository = (*MockBoostRepo)(nil)

func (m *MockBoostRepo) Save(ctx context.Context, tx repository.Tx, b *model.Boost) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *b
	m.boosts[b.ID] = &cp
	return nil
}

func (m *MockBoostRepo) FindActiveByPost(ctx context.Context, tx repository.Tx, postID string, now time.Time) (*model.Boost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.boosts {
		if b.PostID == postID && now.Before(b.ExpiresAt) {
			cp := *b
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *MockBoostRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.Boost, len(m.boosts))
	for id, b := range m.boosts {
		snap[id] = *b
	}
	return snap
}

func (m *MockBoostRepo) restore(v any) {
	snap := v.(map[string]model.Boost)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.boosts = make(map[string]*model.Boost, len(snap))
	for id, b := range snap {
		cp := b
		m.boosts[id] = &cp
	}
}

type MockVerificationRepo struct {
	mu       sync.Mutex
	byEscort map[string]*model.Verification
}

func NewMockVerificationRepo() *MockVerificationRepo {
	return &MockVerificationRepo{byEscort: map[string]*model.Verification{}}
}

var _ repository.VerificationRepository = (*MockVerificationRepo)(nil)

func (m *MockVerificationRepo) Save(ctx context.Context, tx repository.Tx, v *model.Verification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *v
	m.byEscort[v.EscortID] = &cp
	return nil
}

func (m *MockVerificationRepo) FindByEscort(ctx context.Context, tx repository.Tx, escortID string) (*model.Verification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.byEscort[escortID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (m *MockVerificationRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.Verification, len(m.byEscort))
	for id, v := range m.byEscort {
		snap[id] = *v
	}
	return snap
}

func (m *MockVerificationRepo) restore(v any) {
	snap := v.(map[string]model.Verification)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byEscort = make(map[string]*model.Verification, len(snap))
	for id, ver := range snap {
		cp := ver
		m.byEscort[id] = &cp
	}
}

type MockPremiumRepo struct {
	mu     sync.Mutex
	states map[string]*model.PremiumState
}

func NewMockPremiumRepo() *MockPremiumRepo {
	return &MockPremiumRepo{states: map[string]*model.PremiumState{}}
}

var _ repository.PremiumRepository = (*MockPremiumRepo)(nil)

func premiumKey(subjectType model.PayerType, subjectID string) string {
	return string(subjectType) + "/" + subjectID
}

func (m *MockPremiumRepo) Find(ctx context.Context, tx repository.Tx, subjectType model.PayerType, subjectID string) (*model.PremiumState, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.states[premiumKey(subjectType, subjectID)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MockPremiumRepo) Upsert(ctx context.Context, tx repository.Tx, s *model.PremiumState) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *s
	m.states[premiumKey(s.SubjectType, s.SubjectID)] = &cp
	return nil
}

func (m *MockPremiumRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.PremiumState, len(m.states))
	for k, s := range m.states {
		snap[k] = *s
	}
	return snap
}

func (m *MockPremiumRepo) restore(v any) {
	snap := v.(map[string]model.PremiumState)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.states = make(map[string]*model.PremiumState, len(snap))
	for k, s := range snap {
		cp := s
		m.states[k] = &cp
	}
}

// =============================
// Marketplace collaborators
// =============================

type MockPostRepo struct {
	mu    sync.Mutex
	posts map[string]*model.Post
}

func NewMockPostRepo() *MockPostRepo {
	return &MockPostRepo{posts: map[string]*model.Post{}}
}

var _ repository.PostRepository = (*MockPostRepo)(nil)

func (m *MockPostRepo) Add(p *model.Post) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *p
	m.posts[p.ID] = &cp
}

func (m *MockPostRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *MockPostRepo) IncrementScore(ctx context.Context, tx repository.Tx, id string, delta float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Score += delta
	return nil
}

func (m *MockPostRepo) MarkFeatured(ctx context.Context, tx repository.Tx, id string, featured bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return domain.ErrNotFound
	}
	p.Featured = featured
	return nil
}

func (m *MockPostRepo) CountActiveByOwner(ctx context.Context, tx repository.Tx, owner model.PayerRef) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, p := range m.posts {
		if p.Active && p.Owner.Equal(owner) {
			n++
		}
	}
	return n, nil
}

func (m *MockPostRepo) CreateFromDraft(ctx context.Context, tx repository.Tx, draft *model.ListingDraft) (*model.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := &model.Post{
		ID:        uuid.NewString(),
		Owner:     draft.Owner,
		Title:     draft.Title,
		Active:    true,
		CreatedAt: time.Now(),
	}
	m.posts[p.ID] = p
	cp := *p
	return &cp, nil
}

func (m *MockPostRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.Post, len(m.posts))
	for id, p := range m.posts {
		snap[id] = *p
	}
	return snap
}

func (m *MockPostRepo) restore(v any) {
	snap := v.(map[string]model.Post)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.posts = make(map[string]*model.Post, len(snap))
	for id, p := range snap {
		cp := p
		m.posts[id] = &cp
	}
}

type MockEscortRepo struct {
	mu      sync.Mutex
	escorts map[string]*model.Escort
}

func NewMockEscortRepo() *MockEscortRepo {
	return &MockEscortRepo{escorts: map[string]*model.Escort{}}
}

var _ repository.EscortRepository = (*MockEscortRepo)(nil)

func (m *MockEscortRepo) Add(e *model.Escort) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	m.escorts[e.ID] = &cp
}

func (m *MockEscortRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Escort, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escorts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (m *MockEscortRepo) SetVerified(ctx context.Context, tx repository.Tx, id string, verified bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.escorts[id]
	if !ok {
		return domain.ErrNotFound
	}
	e.Verified = verified
	if verified {
		now := time.Now()
		e.VerifiedAt = &now
	} else {
		e.VerifiedAt = nil
	}
	return nil
}

func (m *MockEscortRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.Escort, len(m.escorts))
	for id, e := range m.escorts {
		snap[id] = *e
	}
	return snap
}

func (m *MockEscortRepo) restore(v any) {
	snap := v.(map[string]model.Escort)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.escorts = make(map[string]*model.Escort, len(snap))
	for id, e := range snap {
		cp := e
		m.escorts[id] = &cp
	}
}

type MockAgencyRepo struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewMockAgencyRepo() *MockAgencyRepo {
	return &MockAgencyRepo{counts: map[string]int{}}
}

var _ repository.AgencyRepository = (*MockAgencyRepo)(nil)

func (m *MockAgencyRepo) IncrementVerifiedCount(ctx context.Context, tx repository.Tx, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts[id]++
	return nil
}

func (m *MockAgencyRepo) VerifiedCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counts[id]
}

func (m *MockAgencyRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]int, len(m.counts))
	for k, v := range m.counts {
		snap[k] = v
	}
	return snap
}

func (m *MockAgencyRepo) restore(v any) {
	snap := v.(map[string]int)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counts = make(map[string]int, len(snap))
	for k, n := range snap {
		m.counts[k] = n
	}
}

type MockListingDraftRepo struct {
	mu     sync.Mutex
	drafts map[string]*model.ListingDraft
}

func NewMockListingDraftRepo() *MockListingDraftRepo {
	return &MockListingDraftRepo{drafts: map[string]*model.ListingDraft{}}
}

var _ repository.ListingDraftRepository = (*MockListingDraftRepo)(nil)

func (m *MockListingDraftRepo) Add(d *model.ListingDraft) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *d
	m.drafts[d.ID] = &cp
}

func (m *MockListingDraftRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.ListingDraft, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (m *MockListingDraftRepo) MarkConsumed(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.drafts[id]
	if !ok || d.Consumed {
		return false, nil
	}
	d.Consumed = true
	return true, nil
}

func (m *MockListingDraftRepo) snapshot() any {
	m.mu.Lock()
	defer m.mu.Unlock()
	snap := make(map[string]model.ListingDraft, len(m.drafts))
	for id, d := range m.drafts {
		snap[id] = *d
	}
	return snap
}

func (m *MockListingDraftRepo) restore(v any) {
	snap := v.(map[string]model.ListingDraft)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drafts = make(map[string]*model.ListingDraft, len(snap))
	for id, d := range snap {
		cp := d
		m.drafts[id] = &cp
	}
}

// =============================
// Processor
// =============================

// MockProcessor is an in-memory payment processor. Intent statuses are
// flipped by tests to simulate the customer completing or abandoning the
// checkout.
type MockProcessor struct {
	mu      sync.Mutex
	intents map[string]adapter.IntentStatus

	CreateIntentFunc   func(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*adapter.Intent, error)
	RetrieveIntentFunc func(ctx context.Context, id string) (*adapter.Intent, error)

	Created []string // intent ids in creation order
}

func NewMockProcessor() *MockProcessor {
	return &MockProcessor{intents: map[string]adapter.IntentStatus{}}
}

var _ adapter.PaymentProcessor = (*MockProcessor)(nil)

func (m *MockProcessor) Name() string { return "mock" }

func (m *MockProcessor) CreateIntent(ctx context.Context, amountMinor int64, currency string, metadata map[string]string) (*adapter.Intent, error) {
	if m.CreateIntentFunc != nil {
		return m.CreateIntentFunc(ctx, amountMinor, currency, metadata)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	id := "pi_" + uuid.NewString()
	m.intents[id] = adapter.IntentStatusRequiresPayment
	m.Created = append(m.Created, id)
	return &adapter.Intent{ID: id, ClientSecret: id + "_secret", Status: adapter.IntentStatusRequiresPayment}, nil
}

func (m *MockProcessor) RetrieveIntent(ctx context.Context, id string) (*adapter.Intent, error) {
	if m.RetrieveIntentFunc != nil {
		return m.RetrieveIntentFunc(ctx, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	st, ok := m.intents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &adapter.Intent{ID: id, ClientSecret: id + "_secret", Status: st}, nil
}

// SetIntentStatus simulates the processor-side state change.
func (m *MockProcessor) SetIntentStatus(id string, st adapter.IntentStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intents[id] = st
}

// newTestLogger creates a silent zerolog.Logger so test output stays clean.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}
