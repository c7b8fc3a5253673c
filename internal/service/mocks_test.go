package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/yourusername/verification-api/internal/domain/entity"
	"github.com/yourusername/verification-api/internal/domain/repository"
	"github.com/yourusername/verification-api/internal/notify"
	apperrors "github.com/yourusername/verification-api/internal/pkg/errors"
	"github.com/yourusername/verification-api/pkg/logger"
)

func init() {
	logger.Discard()
}

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// MockVerificationRepository implements repository.VerificationRepository
type MockVerificationRepository struct {
	mock.Mock
}

func (m *MockVerificationRepository) Create(ctx context.Context, v *entity.Verification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

func (m *MockVerificationRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Verification, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Verification), args.Error(1)
}

func (m *MockVerificationRepository) FindFirst(ctx context.Context, filter repository.VerificationFilter) (*entity.Verification, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Verification), args.Error(1)
}

func (m *MockVerificationRepository) MarkVerified(ctx context.Context, code string, now time.Time) (*entity.Verification, error) {
	args := m.Called(ctx, code, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Verification), args.Error(1)
}

func (m *MockVerificationRepository) List(ctx context.Context, opts repository.ListOptions) ([]entity.Verification, int64, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.Verification), args.Get(1).(int64), args.Error(2)
}

// MockVerificationPurposeRepository implements repository.VerificationPurposeRepository
type MockVerificationPurposeRepository struct {
	mock.Mock
}

func (m *MockVerificationPurposeRepository) Create(ctx context.Context, p *entity.VerificationPurpose) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockVerificationPurposeRepository) Update(ctx context.Context, p *entity.VerificationPurpose) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

func (m *MockVerificationPurposeRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.VerificationPurpose, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationPurpose), args.Error(1)
}

func (m *MockVerificationPurposeRepository) GetByCode(ctx context.Context, code string) (*entity.VerificationPurpose, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.VerificationPurpose), args.Error(1)
}

func (m *MockVerificationPurposeRepository) List(ctx context.Context, opts repository.ListOptions) ([]entity.VerificationPurpose, int64, error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]entity.VerificationPurpose), args.Get(1).(int64), args.Error(2)
}

// MockOutboxRepository implements repository.OutboxRepository
type MockOutboxRepository struct {
	mock.Mock
}

func (m *MockOutboxRepository) Create(ctx context.Context, event *entity.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxRepository) ClaimUnpublished(ctx context.Context, claim repository.OutboxClaim) ([]entity.OutboxEvent, error) {
	args := m.Called(ctx, claim)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entity.OutboxEvent), args.Error(1)
}

func (m *MockOutboxRepository) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

func (m *MockOutboxRepository) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	args := m.Called(ctx, id, reason)
	return args.Error(0)
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	args := m.Called(ctx, topic, payload)
	return args.Error(0)
}

type MockDispatcher struct {
	mock.Mock
}

func (m *MockDispatcher) SendVerificationCode(ctx context.Context, v *entity.Verification) error {
	args := m.Called(ctx, v)
	return args.Error(0)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Send(ctx context.Context, msg notify.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// fakeTx runs fn directly and counts units of work.
type fakeTx struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	return fn(ctx)
}

// memVerificationRepo is an in-memory store with the same conditional-update semantics as postgres.
type memVerificationRepo struct {
	mu     sync.Mutex
	items  []*entity.Verification
	writes int
	clock  time.Time
}

func (r *memVerificationRepo) Create(ctx context.Context, v *entity.Verification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	r.clock = r.clock.Add(time.Millisecond)
	v.CreatedAt, v.UpdatedAt = r.clock, r.clock
	stored := *v
	r.items = append(r.items, &stored)
	r.writes++
	return nil
}

func (r *memVerificationRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.items {
		if v.ID == id {
			cp := *v
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memVerificationRepo) FindFirst(ctx context.Context, f repository.VerificationFilter) (*entity.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sorted() {
		if f.Code != "" && v.VerificationCode != f.Code {
			continue
		}
		if f.UserID != uuid.Nil && v.UserID != f.UserID {
			continue
		}
		if f.Status != "" && v.Status != f.Status {
			continue
		}
		if f.ActiveAt != nil && !v.ExpiresAt.After(*f.ActiveAt) {
			continue
		}
		cp := *v
		return &cp, nil
	}
	return nil, apperrors.ErrNotFound
}

func (r *memVerificationRepo) MarkVerified(ctx context.Context, code string, now time.Time) (*entity.Verification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, v := range r.sorted() {
		if v.VerificationCode == code && v.Status == entity.VerificationStatusPending && v.ExpiresAt.After(now) {
			v.Status = entity.VerificationStatusVerified
			at := now
			v.VerifiedAt = &at
			v.AttemptCount++
			v.UpdatedAt = now
			r.writes++
			cp := *v
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memVerificationRepo) List(ctx context.Context, opts repository.ListOptions) ([]entity.Verification, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.Verification, 0, len(r.items))
	for _, v := range r.items {
		out = append(out, *v)
	}
	return out, int64(len(out)), nil
}

func (r *memVerificationRepo) sorted() []*entity.Verification {
	out := append([]*entity.Verification(nil), r.items...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// memPurposeRepo keys purposes by id. The first readers GetByID calls wait for each other, so every
// caller sees the id as free before anyone inserts.
type memPurposeRepo struct {
	mu      sync.Mutex
	items   map[uuid.UUID]*entity.VerificationPurpose
	readers sync.WaitGroup
	pending int
}

func newMemPurposeRepo(readers int) *memPurposeRepo {
	r := &memPurposeRepo{items: map[uuid.UUID]*entity.VerificationPurpose{}, pending: readers}
	r.readers.Add(readers)
	return r
}

func (r *memPurposeRepo) Create(ctx context.Context, p *entity.VerificationPurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; ok {
		return apperrors.ErrConflict
	}
	for _, existing := range r.items {
		if existing.Code == p.Code {
			return apperrors.ErrConflict
		}
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *memPurposeRepo) Update(ctx context.Context, p *entity.VerificationPurpose) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[p.ID]; !ok {
		return apperrors.ErrNotFound
	}
	cp := *p
	r.items[p.ID] = &cp
	return nil
}

func (r *memPurposeRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.VerificationPurpose, error) {
	r.mu.Lock()
	first := r.pending > 0
	var found *entity.VerificationPurpose
	if p, ok := r.items[id]; ok {
		cp := *p
		found = &cp
	}
	if first {
		r.pending--
	}
	r.mu.Unlock()

	if first {
		r.readers.Done()
		r.readers.Wait()
	}
	if found == nil {
		return nil, apperrors.ErrNotFound
	}
	return found, nil
}

func (r *memPurposeRepo) GetByCode(ctx context.Context, code string) (*entity.VerificationPurpose, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.items {
		if p.Code == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (r *memPurposeRepo) List(ctx context.Context, opts repository.ListOptions) ([]entity.VerificationPurpose, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]entity.VerificationPurpose, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, *p)
	}
	return out, int64(len(out)), nil
}

func (r *memPurposeRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.items)
}

// memOutbox records events and their publish state.
type memOutbox struct {
	mu     sync.Mutex
	events []*entity.OutboxEvent
}

func (o *memOutbox) Create(ctx context.Context, e *entity.OutboxEvent) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	o.events = append(o.events, e)
	return nil
}

func (o *memOutbox) ClaimUnpublished(ctx context.Context, claim repository.OutboxClaim) ([]entity.OutboxEvent, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	var out []entity.OutboxEvent
	for _, e := range o.events {
		if len(out) >= claim.Limit {
			break
		}
		if e.PublishedAt != nil || !e.CreatedAt.Before(claim.CreatedBefore) {
			continue
		}
		if e.ClaimedUntil != nil && !e.ClaimedUntil.Before(claim.Now) {
			continue
		}
		until := claim.Until
		e.ClaimedUntil = &until
		out = append(out, *e)
	}
	return out, nil
}

func (o *memOutbox) MarkPublished(ctx context.Context, id uuid.UUID, at time.Time) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.events {
		if e.ID == id {
			e.PublishedAt = &at
			e.Attempts++
		}
	}
	return nil
}

func (o *memOutbox) MarkFailed(ctx context.Context, id uuid.UUID, reason string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	for _, e := range o.events {
		if e.ID == id {
			e.Attempts++
			e.LastError = reason
		}
	}
	return nil
}

// recordingPublisher captures every publish.
type recordingPublisher struct {
	mu       sync.Mutex
	payloads [][]byte
	err      error
}

func (p *recordingPublisher) Publish(ctx context.Context, topic string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.payloads = append(p.payloads, payload)
	return nil
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.payloads)
}
