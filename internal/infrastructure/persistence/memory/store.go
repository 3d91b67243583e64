// Package memory is a process-local implementation of the domain stores. It backs
// `serve --in-memory` and the service tests; the guarded status update has the same
// compare-and-set semantics as the Postgres implementation.
package memory

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/DanielPopoola/eventpay/internal/domain"
)

type data struct {
	transactions  map[string]domain.Transaction
	refunds       map[string]domain.Refund
	registrations map[string]domain.Registration
	events        map[string]domain.Event
	webhooks      map[string]domain.WebhookEvent
	webhookKeys   map[string]string
}

func newData() *data {
	return &data{
		transactions:  make(map[string]domain.Transaction),
		refunds:       make(map[string]domain.Refund),
		registrations: make(map[string]domain.Registration),
		events:        make(map[string]domain.Event),
		webhooks:      make(map[string]domain.WebhookEvent),
		webhookKeys:   make(map[string]string),
	}
}

func (d *data) clone() *data {
	return &data{
		transactions:  maps.Clone(d.transactions),
		refunds:       maps.Clone(d.refunds),
		registrations: maps.Clone(d.registrations),
		events:        maps.Clone(d.events),
		webhooks:      maps.Clone(d.webhooks),
		webhookKeys:   maps.Clone(d.webhookKeys),
	}
}

// Store serializes units of work with txMu. Writes made outside WithTx also take
// txMu so a rollback never discards them.
type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *data
}

func NewStore() *Store {
	return &Store{data: newData()}
}

func (s *Store) Repositories() domain.Repositories {
	return s.repositories(false)
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, repos domain.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.RLock()
	snapshot := s.data.clone()
	s.mu.RUnlock()

	if err := fn(ctx, s.repositories(true)); err != nil {
		s.mu.Lock()
		s.data = snapshot
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Store) repositories(inTx bool) domain.Repositories {
	b := base{store: s, inTx: inTx}
	return domain.Repositories{
		Transactions:  &transactionRepo{b},
		Refunds:       &refundRepo{b},
		Registrations: &registrationRepo{b},
		Events:        &eventRepo{b},
		Webhooks:      &webhookRepo{b},
	}
}

// AddEvent seeds an event owned by the registration platform.
func (s *Store) AddEvent(e domain.Event) {
	s.write(false, func(d *data) { d.events[e.ID] = e })
}

// AddRegistration seeds a registration owned by the registration platform.
func (s *Store) AddRegistration(r domain.Registration) {
	s.write(false, func(d *data) { d.registrations[r.ID] = r })
}

func (s *Store) Event(id string) (domain.Event, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.data.events[id]
	return e, ok
}

func (s *Store) write(inTx bool, fn func(d *data)) {
	if !inTx {
		s.txMu.Lock()
		defer s.txMu.Unlock()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.data)
}

func (s *Store) read(fn func(d *data)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.data)
}

type base struct {
	store *Store
	inTx  bool
}

type transactionRepo struct{ base }

func (r *transactionRepo) Create(_ context.Context, t *domain.Transaction) error {
	var err error
	r.store.write(r.inTx, func(d *data) {
		for _, existing := range d.transactions {
			if existing.RegistrationID == t.RegistrationID && existing.Status.IsActive() {
				err = domain.ErrActiveTransactionExists
				return
			}
		}
		d.transactions[t.ID] = *t
	})
	return err
}

func (r *transactionRepo) FindByID(_ context.Context, id string) (*domain.Transaction, error) {
	var out *domain.Transaction
	r.store.read(func(d *data) {
		if t, ok := d.transactions[id]; ok {
			out = &t
		}
	})
	if out == nil {
		return nil, domain.ErrTransactionNotFound
	}
	return out, nil
}

// FindByIDForUpdate relies on WithTx holding the store-wide lock.
func (r *transactionRepo) FindByIDForUpdate(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.FindByID(ctx, id)
}

func (r *transactionRepo) FindByGatewayTransactionID(_ context.Context, gateway domain.Gateway, gatewayTransactionID string) (*domain.Transaction, error) {
	return r.findOne(func(t domain.Transaction) bool {
		return t.Gateway == gateway && t.GatewayTransactionID != nil && *t.GatewayTransactionID == gatewayTransactionID
	})
}

func (r *transactionRepo) FindActiveByRegistration(_ context.Context, registrationID string) (*domain.Transaction, error) {
	return r.findOne(func(t domain.Transaction) bool {
		return t.RegistrationID == registrationID && t.Status.IsActive()
	})
}

func (r *transactionRepo) CompareAndSetStatus(_ context.Context, id string, from []domain.TransactionStatus, u domain.StatusUpdate) (bool, error) {
	var applied bool
	var err error
	r.store.write(r.inTx, func(d *data) {
		t, ok := d.transactions[id]
		if !ok || !slices.Contains(from, t.Status) {
			return
		}
		if u.To.IsActive() && !t.Status.IsActive() {
			for _, other := range d.transactions {
				if other.ID != id && other.RegistrationID == t.RegistrationID && other.Status.IsActive() {
					err = domain.ErrActiveTransactionExists
					return
				}
			}
		}
		if err = t.Apply(u); err != nil {
			return
		}
		d.transactions[id] = t
		applied = true
	})
	return applied, err
}

func (r *transactionRepo) FlagForReview(_ context.Context, id string, reason string, at time.Time) error {
	var err error
	r.store.write(r.inTx, func(d *data) {
		t, ok := d.transactions[id]
		if !ok {
			err = domain.ErrTransactionNotFound
			return
		}
		t.ReviewRequired = true
		t.FailureReason = &reason
		t.UpdatedAt = at
		d.transactions[id] = t
	})
	return err
}

func (r *transactionRepo) AttachGatewayReference(_ context.Context, id string, gatewayTransactionID string, at time.Time) (bool, error) {
	var applied bool
	r.store.write(r.inTx, func(d *data) {
		t, ok := d.transactions[id]
		if !ok || t.GatewayTransactionID != nil {
			return
		}
		t.GatewayTransactionID = &gatewayTransactionID
		t.UpdatedAt = at
		d.transactions[id] = t
		applied = true
	})
	return applied, nil
}

func (r *transactionRepo) FindRetryable(_ context.Context, maxRetries int, lastRetryBefore time.Time, limit int) ([]*domain.Transaction, error) {
	out := r.filter(func(t domain.Transaction) bool {
		return t.Status == domain.StatusFailed &&
			!t.ReviewRequired &&
			t.RetryCount < maxRetries &&
			(t.LastRetryAt == nil || t.LastRetryAt.Before(lastRetryBefore))
	})
	sort.Slice(out, func(i, j int) bool { return retryOrder(out[i]).Before(retryOrder(out[j])) })
	return truncate(out, limit), nil
}

func (r *transactionRepo) FindExpired(_ context.Context, now time.Time, limit int) ([]*domain.Transaction, error) {
	out := r.filter(func(t domain.Transaction) bool {
		return t.Status.IsActive() && t.ExpiresAt.Before(now)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	return truncate(out, limit), nil
}

func (r *transactionRepo) ListByGateway(_ context.Context, gateway domain.Gateway, from, to time.Time) ([]*domain.Transaction, error) {
	out := r.filter(func(t domain.Transaction) bool {
		return t.Gateway == gateway && !t.CreatedAt.Before(from) && !t.CreatedAt.After(to)
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *transactionRepo) findOne(match func(domain.Transaction) bool) (*domain.Transaction, error) {
	if found := r.filter(match); len(found) > 0 {
		return found[0], nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (r *transactionRepo) filter(match func(domain.Transaction) bool) []*domain.Transaction {
	var out []*domain.Transaction
	r.store.read(func(d *data) {
		for _, t := range d.transactions {
			if match(t) {
				out = append(out, &t)
			}
		}
	})
	return out
}

func retryOrder(t *domain.Transaction) time.Time {
	switch {
	case t.LastRetryAt != nil:
		return *t.LastRetryAt
	case t.FailedAt != nil:
		return *t.FailedAt
	default:
		return t.CreatedAt
	}
}

func truncate[T any](s []T, limit int) []T {
	if limit > 0 && len(s) > limit {
		return s[:limit]
	}
	return s
}

type refundRepo struct{ base }

func (r *refundRepo) Create(_ context.Context, ref *domain.Refund) error {
	r.store.write(r.inTx, func(d *data) { d.refunds[ref.ID] = *ref })
	return nil
}

func (r *refundRepo) Update(_ context.Context, ref *domain.Refund) error {
	var err error
	r.store.write(r.inTx, func(d *data) {
		if _, ok := d.refunds[ref.ID]; !ok {
			err = domain.ErrRefundNotFound
			return
		}
		d.refunds[ref.ID] = *ref
	})
	return err
}

func (r *refundRepo) FindByID(_ context.Context, id string) (*domain.Refund, error) {
	var out *domain.Refund
	r.store.read(func(d *data) {
		if ref, ok := d.refunds[id]; ok {
			out = &ref
		}
	})
	if out == nil {
		return nil, domain.ErrRefundNotFound
	}
	return out, nil
}

func (r *refundRepo) ListByTransaction(_ context.Context, transactionID string) ([]*domain.Refund, error) {
	var out []*domain.Refund
	r.store.read(func(d *data) {
		for _, ref := range d.refunds {
			if ref.TransactionID == transactionID {
				out = append(out, &ref)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *refundRepo) FindOutstanding(_ context.Context, limit int) ([]*domain.Refund, error) {
	var out []*domain.Refund
	r.store.read(func(d *data) {
		for _, ref := range d.refunds {
			if ref.IsOutstanding() {
				out = append(out, &ref)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.Before(out[j].UpdatedAt) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type registrationRepo struct{ base }

func (r *registrationRepo) Get(_ context.Context, id string) (*domain.Registration, error) {
	var out *domain.Registration
	r.store.read(func(d *data) {
		if reg, ok := d.registrations[id]; ok {
			out = &reg
		}
	})
	if out == nil {
		return nil, domain.ErrRegistrationNotFound
	}
	return out, nil
}

func (r *registrationRepo) SetStatus(_ context.Context, id string, from, to domain.RegistrationStatus) (bool, error) {
	var applied bool
	r.store.write(r.inTx, func(d *data) {
		reg, ok := d.registrations[id]
		if !ok || reg.Status != from {
			return
		}
		reg.Status = to
		reg.UpdatedAt = time.Now().UTC()
		d.registrations[id] = reg
		applied = true
	})
	return applied, nil
}

type eventRepo struct{ base }

func (r *eventRepo) IncrementOccupancy(_ context.Context, eventID string) error {
	var err error
	r.store.write(r.inTx, func(d *data) {
		e, ok := d.events[eventID]
		if !ok {
			err = domain.ErrEventNotFound
			return
		}
		e.Occupancy++
		d.events[eventID] = e
	})
	return err
}

type webhookRepo struct{ base }

func webhookKey(g domain.Gateway, providerEventID string) string {
	return string(g) + "|" + providerEventID
}

func (r *webhookRepo) Record(_ context.Context, e *domain.WebhookEvent) (*domain.WebhookEvent, bool, error) {
	var out *domain.WebhookEvent
	var inserted bool
	r.store.write(r.inTx, func(d *data) {
		key := webhookKey(e.Gateway, e.ProviderEventID)
		if id, ok := d.webhookKeys[key]; ok {
			existing := d.webhooks[id]
			out = &existing
			return
		}
		d.webhooks[e.ID] = *e
		d.webhookKeys[key] = e.ID
		stored := *e
		out, inserted = &stored, true
	})
	return out, inserted, nil
}

func (r *webhookRepo) MarkProcessed(_ context.Context, id string, at time.Time) error {
	r.store.write(r.inTx, func(d *data) {
		if e, ok := d.webhooks[id]; ok {
			e.ProcessedAt = &at
			e.Attempts++
			e.LastError = nil
			d.webhooks[id] = e
		}
	})
	return nil
}

func (r *webhookRepo) MarkFailed(_ context.Context, id string, reason string) error {
	r.store.write(r.inTx, func(d *data) {
		if e, ok := d.webhooks[id]; ok {
			e.Attempts++
			e.LastError = &reason
			d.webhooks[id] = e
		}
	})
	return nil
}

func (r *webhookRepo) FindUnprocessed(_ context.Context, maxAttempts int, limit int) ([]*domain.WebhookEvent, error) {
	var out []*domain.WebhookEvent
	r.store.read(func(d *data) {
		for _, e := range d.webhooks {
			if e.ProcessedAt == nil && e.Attempts < maxAttempts {
				out = append(out, &e)
			}
		}
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedAt.Before(out[j].ReceivedAt) })
	return truncate(out, limit), nil
}

var _ domain.Store = (*Store)(nil)
