package order

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"sync"

	"github.com/gigpass/gp-checkout/internal/module/customerapp/event"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/midtrans"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/ticket"
	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

// memState is the shared in-memory datastore behind the repository
// fakes. BeginTx snapshots it and Rollback restores the snapshot, so
// the use case's all-or-nothing contract is observable in tests.
type memState struct {
	mu        sync.Mutex
	events    map[string]event.Event
	tiers     map[string]ticket.TicketTier
	promos    map[string]PromoCode
	orders    map[string]Order
	items     []Item
	attendees []ticket.Attendee

	snapshot *memSnapshot
}

type memSnapshot struct {
	tiers     map[string]ticket.TicketTier
	promos    map[string]PromoCode
	orders    map[string]Order
	items     []Item
	attendees []ticket.Attendee
}

func newMemState() *memState {
	return &memState{
		events: map[string]event.Event{},
		tiers:  map[string]ticket.TicketTier{},
		promos: map[string]PromoCode{},
		orders: map[string]Order{},
	}
}

func (s *memState) takeSnapshot() {
	snap := &memSnapshot{
		tiers:     map[string]ticket.TicketTier{},
		promos:    map[string]PromoCode{},
		orders:    map[string]Order{},
		items:     append([]Item(nil), s.items...),
		attendees: append([]ticket.Attendee(nil), s.attendees...),
	}
	for k, v := range s.tiers {
		snap.tiers[k] = v
	}
	for k, v := range s.promos {
		snap.promos[k] = v
	}
	for k, v := range s.orders {
		snap.orders[k] = v
	}

	s.snapshot = snap
}

func (s *memState) restoreSnapshot() {
	if s.snapshot == nil {
		return
	}

	s.tiers = s.snapshot.tiers
	s.promos = s.snapshot.promos
	s.orders = s.snapshot.orders
	s.items = s.snapshot.items
	s.attendees = s.snapshot.attendees
	s.snapshot = nil
}

type fakeEventRepository struct {
	s *memState
}

func (r *fakeEventRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (event.Event, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	e, ok := r.s.events[ID]
	if !ok {
		return event.Event{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("event with id '%s' is not found", ID))
	}

	return e, nil
}

type fakeTicketTierRepository struct {
	s *memState
}

func (r *fakeTicketTierRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (ticket.TicketTier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tiers[ID]
	if !ok {
		return ticket.TicketTier{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket tier with id '%s' is not found", ID))
	}

	return t, nil
}

func (r *fakeTicketTierRepository) FindManyByEventID(ctx context.Context, eventID string, tx *sql.Tx) ([]ticket.TicketTier, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var data []ticket.TicketTier
	for _, t := range r.s.tiers {
		if t.EventID == eventID {
			data = append(data, t)
		}
	}

	return data, nil
}

func (r *fakeTicketTierRepository) IncrementSold(ctx context.Context, ID string, quantity int64, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	t, ok := r.s.tiers[ID]
	if !ok {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("ticket tier with id '%s' is not found", ID))
	}

	if t.SoldCount+quantity > t.Capacity {
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("ticket tier with id '%s' does not have enough remaining capacity", ID))
	}

	t.SoldCount += quantity
	r.s.tiers[ID] = t

	return nil
}

type fakeAttendeeRepository struct {
	s *memState
}

func (r *fakeAttendeeRepository) Save(ctx context.Context, a ticket.Attendee, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.attendees = append(r.s.attendees, a)

	return nil
}

func (r *fakeAttendeeRepository) FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]ticket.Attendee, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var data []ticket.Attendee
	for _, a := range r.s.attendees {
		if a.OrderID == orderID {
			data = append(data, a)
		}
	}

	return data, nil
}

type fakeOrderRepository struct {
	s *memState
}

func (r *fakeOrderRepository) BeginTx(ctx context.Context) (*sql.Tx, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.takeSnapshot()

	return nil, nil
}

func (r *fakeOrderRepository) CommitTx(ctx context.Context, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.snapshot = nil

	return nil
}

func (r *fakeOrderRepository) Rollback(ctx context.Context, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.restoreSnapshot()

	return nil
}

func (r *fakeOrderRepository) Save(ctx context.Context, o Order, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.orders[o.ID] = o

	return nil
}

func (r *fakeOrderRepository) FindByID(ctx context.Context, ID string, tx *sql.Tx) (Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	o, ok := r.s.orders[ID]
	if !ok {
		return Order{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("order with id '%s' is not found", ID))
	}

	return o, nil
}

func (r *fakeOrderRepository) FindByGatewaySessionIDForUpdate(ctx context.Context, gatewaySessionID string, tx *sql.Tx) (Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, o := range r.s.orders {
		if o.GatewaySessionID != nil && *o.GatewaySessionID == gatewaySessionID {
			return o, nil
		}
	}

	return Order{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("order with gateway session id '%s' is not found", gatewaySessionID))
}

func (r *fakeOrderRepository) FindMany(ctx context.Context, customerID int64, offset, limit int64, tx *sql.Tx) ([]Order, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var data []Order
	for _, o := range r.s.orders {
		if o.CustomerID != nil && *o.CustomerID == customerID {
			data = append(data, o)
		}
	}

	return data, nil
}

func (r *fakeOrderRepository) Count(ctx context.Context, customerID int64, tx *sql.Tx) (int64, error) {
	data, _ := r.FindMany(ctx, customerID, 0, 0, tx)
	return int64(len(data)), nil
}

func (r *fakeOrderRepository) Update(ctx context.Context, ID string, o Order, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[ID]
	if !ok {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("order with id '%s' is not found", ID))
	}

	stored.Status = o.Status
	stored.LinkedAttendeeID = o.LinkedAttendeeID
	stored.UpdatedAt = o.UpdatedAt
	r.s.orders[ID] = stored

	return nil
}

func (r *fakeOrderRepository) SetGatewaySessionID(ctx context.Context, ID string, gatewaySessionID string, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	stored, ok := r.s.orders[ID]
	if !ok {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("order with id '%s' is not found", ID))
	}

	stored.GatewaySessionID = &gatewaySessionID
	r.s.orders[ID] = stored

	return nil
}

type fakeItemRepository struct {
	s *memState
}

func (r *fakeItemRepository) Save(ctx context.Context, item Item, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	item.ID = int64(len(r.s.items) + 1)
	r.s.items = append(r.s.items, item)

	return nil
}

func (r *fakeItemRepository) FindManyByOrderID(ctx context.Context, orderID string, tx *sql.Tx) ([]Item, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var data []Item
	for _, item := range r.s.items {
		if item.OrderID == orderID {
			data = append(data, item)
		}
	}

	return data, nil
}

type fakePromoCodeRepository struct {
	s *memState
}

func (r *fakePromoCodeRepository) FindByEventIDAndCode(ctx context.Context, eventID, code string, tx *sql.Tx) (PromoCode, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, pc := range r.s.promos {
		if pc.EventID == eventID && pc.Code == code {
			return pc, nil
		}
	}

	return PromoCode{}, errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("promo code '%s' is not found", code))
}

func (r *fakePromoCodeRepository) IncrementUsage(ctx context.Context, ID string, tx *sql.Tx) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	pc, ok := r.s.promos[ID]
	if !ok {
		return errors.New(http.StatusNotFound, status.NOT_FOUND, fmt.Sprintf("promo code with id '%s' is not found", ID))
	}

	if pc.UsageCount >= pc.UsageCap {
		return errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("promo code with id '%s' has reached its usage cap", ID))
	}

	pc.UsageCount++
	r.s.promos[ID] = pc

	return nil
}

type fakeMidtransRepository struct {
	mu       sync.Mutex
	response midtrans.CreateTransactionResponse
	err      error
	requests []midtrans.CreateTransactionRequest
}

func (r *fakeMidtransRepository) CreateTransaction(ctx context.Context, req midtrans.CreateTransactionRequest) (midtrans.CreateTransactionResponse, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.requests = append(r.requests, req)

	if r.err != nil {
		return midtrans.CreateTransactionResponse{}, r.err
	}

	return r.response, nil
}

type fakePublisher struct {
	mu     sync.Mutex
	topics []string
	values [][]byte
}

func (p *fakePublisher) Publish(ctx context.Context, topic string, key string, headers map[string]string, value []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.topics = append(p.topics, topic)
	p.values = append(p.values, value)

	return nil
}

func (p *fakePublisher) Close() {}

type fakeCacheInvalidator struct {
	mu          sync.Mutex
	eventIDs    []string
	customerIDs []int64
}

func (c *fakeCacheInvalidator) InvalidateEventPage(ctx context.Context, eventID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.eventIDs = append(c.eventIDs, eventID)
}

func (c *fakeCacheInvalidator) InvalidateCustomerTickets(ctx context.Context, customerID int64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.customerIDs = append(c.customerIDs, customerID)
}
