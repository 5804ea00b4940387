package order

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gigpass/gp-checkout/internal/module/customerapp/event"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/midtrans"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/ticket"
	"github.com/gigpass/gp-checkout/internal/pkg/session"
	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/pubsub"
	"github.com/gigpass/gp-checkout/pkg/status"
	"github.com/gigpass/gp-checkout/pkg/util"
)

type OrderUseCase interface {
	PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error)
	OnPaymentNotification(ctx context.Context, e PaymentNotificationEvent) error
	GetOrderStatus(ctx context.Context, orderID string) (GetOrderStatusResponse, error)
	GetManyOrder(ctx context.Context, req GetManyOrderRequest) (GetManyOrderResponse, error)
}

type orderUseCase struct {
	logger                  *logrus.Logger
	timeout                 time.Duration
	baseURL                 string
	serviceChargePercentage float64
	taxPercentage           float64
	eventRepository         event.EventRepository
	ticketTierRepository    ticket.TicketTierRepository
	attendeeRepository      ticket.AttendeeRepository
	orderRepository         OrderRepository
	itemRepository          ItemRepository
	promoCodeRepository     PromoCodeRepository
	midtransRepository      midtrans.MidtransRepository
	publisher               pubsub.Publisher
	cacheInvalidator        CacheInvalidator
}

type OrderUseCaseProperty struct {
	Logger                  *logrus.Logger
	Timeout                 time.Duration
	BaseURL                 string
	ServiceChargePercentage float64
	TaxPercentage           float64
	EventRepository         event.EventRepository
	TicketTierRepository    ticket.TicketTierRepository
	AttendeeRepository      ticket.AttendeeRepository
	OrderRepository         OrderRepository
	ItemRepository          ItemRepository
	PromoCodeRepository     PromoCodeRepository
	MidtransRepository      midtrans.MidtransRepository
	Publisher               pubsub.Publisher
	CacheInvalidator        CacheInvalidator
}

func NewOrderUseCase(props OrderUseCaseProperty) OrderUseCase {
	return &orderUseCase{
		logger:                  props.Logger,
		timeout:                 props.Timeout,
		baseURL:                 props.BaseURL,
		serviceChargePercentage: props.ServiceChargePercentage,
		taxPercentage:           props.TaxPercentage,
		eventRepository:         props.EventRepository,
		ticketTierRepository:    props.TicketTierRepository,
		attendeeRepository:      props.AttendeeRepository,
		orderRepository:         props.OrderRepository,
		itemRepository:          props.ItemRepository,
		promoCodeRepository:     props.PromoCodeRepository,
		midtransRepository:      props.MidtransRepository,
		publisher:               props.Publisher,
		cacheInvalidator:        props.CacheInvalidator,
	}
}

// PlaceOrder implements OrderUseCase.
//
// The pending order is committed before the gateway is called; no
// database transaction stays open across the outbound network call.
// Inventory is not touched here. Capacity is consumed at payment
// confirmation, so an abandoned checkout never holds seats hostage.
func (u *orderUseCase) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (PlaceOrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	var customerID *int64
	if acc, err := session.GetAccountFromCtx(ctx); err == nil {
		customerID = &acc.ID
	}

	e, err := u.eventRepository.FindByID(ctx, req.EventID, nil)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	if e.Status != event.StatusPublished {
		return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "event is not open for orders")
	}

	if e.SettlementAccountID == nil {
		return PlaceOrderResponse{}, errors.New(http.StatusNotFound, status.NOT_FOUND, "event does not have a configured settlement account")
	}

	now := time.Now()
	order := Order{
		ID:         util.GenerateOpaqueID("ORD"),
		EventID:    e.ID,
		Status:     StatusPending,
		BuyerName:  req.BuyerName,
		BuyerEmail: req.BuyerEmail,
		CustomerID: customerID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	var subtotal float64
	var totalQuantity int64
	items := make([]Item, len(req.Items))
	itemDetails := make([]midtrans.ItemDetail, len(req.Items))

	for k, itemReq := range req.Items {
		t, err := u.ticketTierRepository.FindByID(ctx, itemReq.TicketTierID, nil)
		if err != nil {
			return PlaceOrderResponse{}, err
		}

		if t.EventID != e.ID {
			return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "invalid ticket tier id")
		}

		if t.UnitPrice != itemReq.UnitPrice {
			return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, fmt.Sprintf("ticket tier '%s' price has changed, please refresh and try again", t.Name))
		}

		// Advisory only. The binding capacity check happens inside the
		// reconciliation transaction; this keeps obviously sold-out
		// tiers from reaching the payment page.
		if t.SoldCount+itemReq.Quantity > t.Capacity {
			return PlaceOrderResponse{}, errors.New(http.StatusConflict, status.CONFLICT, fmt.Sprintf("ticket tier '%s' is sold out", t.Name))
		}

		subtotal += t.UnitPrice * float64(itemReq.Quantity)
		totalQuantity += itemReq.Quantity

		items[k] = Item{
			OrderID:      order.ID,
			TicketTierID: t.ID,
			EventID:      e.ID,
			TierName:     t.Name,
			UnitPrice:    t.UnitPrice,
			Quantity:     itemReq.Quantity,
		}

		itemDetails[k] = midtrans.ItemDetail{
			ID:       t.ID,
			Name:     fmt.Sprintf("%s - %s", e.Name, t.Name),
			Price:    int64(t.UnitPrice),
			Quantity: itemReq.Quantity,
		}
	}

	var discount float64
	if req.PromoCode != "" {
		pc, err := u.promoCodeRepository.FindByEventIDAndCode(ctx, e.ID, req.PromoCode, nil)
		if err != nil {
			if errors.Destruct(err).HTTPStatusCode == http.StatusNotFound {
				return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "promo code is not valid for this event")
			}
			return PlaceOrderResponse{}, err
		}

		if !pc.Redeemable() {
			return PlaceOrderResponse{}, errors.New(http.StatusBadRequest, status.BAD_REQUEST, "promo code has reached its usage cap")
		}

		discount = pc.DiscountFor(subtotal)
		order.PromoCodeID = &pc.ID
	}

	serviceCharge := (subtotal - discount) * u.serviceChargePercentage / 100
	tax := (subtotal - discount) * u.taxPercentage / 100

	order.Subtotal = subtotal
	order.Discount = discount
	order.ServiceCharge = serviceCharge
	order.Tax = tax
	order.TotalAmount = math.Round(subtotal - discount + serviceCharge + tax)
	order.Quantity = totalQuantity
	order.Items = items

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	if err := u.orderRepository.Save(ctx, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	for _, item := range order.Items {
		if err := u.itemRepository.Save(ctx, item, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return PlaceOrderResponse{}, err
		}
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return PlaceOrderResponse{}, err
	}

	gatewayRequest := midtrans.CreateTransactionRequest{
		TransactionDetails: midtrans.TransactionDetails{
			OrderID:     order.ID,
			GrossAmount: int64(order.TotalAmount),
		},
		ItemDetails: itemDetails,
		CustomerDetails: midtrans.CustomerDetails{
			FirstName: order.BuyerName,
			Email:     order.BuyerEmail,
		},
		Callbacks: midtrans.Callbacks{
			Finish: fmt.Sprintf("%s/checkout/finish?order_id=%s&event_id=%s", u.baseURL, order.ID, order.EventID),
			Error:  fmt.Sprintf("%s/checkout/error?order_id=%s&event_id=%s", u.baseURL, order.ID, order.EventID),
		},
		SettlementAccountID: *e.SettlementAccountID,
	}

	// A gateway failure leaves the order PENDING without a session id.
	// Such rows are never reconciled and are left behind.
	gatewayResponse, err := u.midtransRepository.CreateTransaction(ctx, gatewayRequest)
	if err != nil {
		return PlaceOrderResponse{}, err
	}

	if err := u.orderRepository.SetGatewaySessionID(ctx, order.ID, gatewayResponse.TransactionID, nil); err != nil {
		return PlaceOrderResponse{}, err
	}

	order.GatewaySessionID = &gatewayResponse.TransactionID

	resp := PlaceOrderResponse{}
	resp.PopulateFromEntity(order)
	resp.RedirectURL = gatewayResponse.RedirectURL

	return resp, nil
}

// OnPaymentNotification implements OrderUseCase.
//
// Deliveries are idempotent per gateway session. The order row lock
// serializes replays; a terminal order short-circuits to a no-op.
// Materialization, sold-count increments, promo usage and the status
// transition commit or roll back as one unit.
func (u *orderUseCase) OnPaymentNotification(ctx context.Context, e PaymentNotificationEvent) error {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	tx, err := u.orderRepository.BeginTx(ctx)
	if err != nil {
		return err
	}

	order, err := u.orderRepository.FindByGatewaySessionIDForUpdate(ctx, e.TransactionID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if order.Status != StatusPending {
		u.orderRepository.Rollback(ctx, tx)
		return nil
	}

	switch e.TransactionStatus {
	case midtrans.StatusSettlement, midtrans.StatusCapture:
		return u.completeOrder(ctx, order, tx)
	case midtrans.StatusDeny, midtrans.StatusCancel, midtrans.StatusExpire:
		order.Status = StatusFailed
		order.UpdatedAt = time.Now()

		if err := u.orderRepository.Update(ctx, order.ID, order, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			return err
		}

		return u.orderRepository.CommitTx(ctx, tx)
	default:
		// Intermediate statuses carry no outcome yet.
		u.orderRepository.Rollback(ctx, tx)
		return nil
	}
}

// completeOrder runs the materialization transaction: attendees are
// created, sold counts and promo usage move under their caps, and the
// order turns COMPLETED, all within the caller's transaction. Losing a
// capacity or promo-cap race turns the order FAILED instead; nothing
// else is applied.
func (u *orderUseCase) completeOrder(ctx context.Context, order Order, tx *sql.Tx) error {
	items, err := u.itemRepository.FindManyByOrderID(ctx, order.ID, tx)
	if err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	for _, item := range items {
		if err := u.ticketTierRepository.IncrementSold(ctx, item.TicketTierID, item.Quantity, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			if errors.Destruct(err).HTTPStatusCode == http.StatusConflict {
				return u.failOrder(ctx, order, err)
			}
			return err
		}
	}

	if order.PromoCodeID != nil {
		if err := u.promoCodeRepository.IncrementUsage(ctx, *order.PromoCodeID, tx); err != nil {
			u.orderRepository.Rollback(ctx, tx)
			if errors.Destruct(err).HTTPStatusCode == http.StatusConflict {
				return u.failOrder(ctx, order, err)
			}
			return err
		}
	}

	now := time.Now()
	var firstAttendeeID string

	for _, item := range items {
		for i := int64(0); i < item.Quantity; i++ {
			attendee := ticket.Attendee{
				ID:           util.GenerateOpaqueID("ATT"),
				EventID:      order.EventID,
				TicketTierID: item.TicketTierID,
				OrderID:      order.ID,
				Name:         order.BuyerName,
				Email:        &order.BuyerEmail,
				CustomerID:   order.CustomerID,
				CheckedIn:    false,
				CreatedAt:    now,
			}

			if err := u.attendeeRepository.Save(ctx, attendee, tx); err != nil {
				u.orderRepository.Rollback(ctx, tx)
				return err
			}

			if firstAttendeeID == "" {
				firstAttendeeID = attendee.ID
			}
		}
	}

	order.Status = StatusCompleted
	order.LinkedAttendeeID = &firstAttendeeID
	order.UpdatedAt = now

	if err := u.orderRepository.Update(ctx, order.ID, order, tx); err != nil {
		u.orderRepository.Rollback(ctx, tx)
		return err
	}

	if err := u.orderRepository.CommitTx(ctx, tx); err != nil {
		return err
	}

	u.publishOrderCompleted(ctx, order)
	u.cacheInvalidator.InvalidateEventPage(ctx, order.EventID)
	if order.CustomerID != nil {
		u.cacheInvalidator.InvalidateCustomerTickets(ctx, *order.CustomerID)
	}

	return nil
}

// failOrder records a terminal FAILED outcome after the materialization
// transaction rolled back. It returns nil: the outcome is final and the
// gateway must not redeliver. The refund of the captured payment is an
// operational process outside this service.
func (u *orderUseCase) failOrder(ctx context.Context, order Order, cause error) error {
	u.logger.WithContext(ctx).WithError(cause).WithField("orderId", order.ID).Warn("order could not be materialized and will be marked as failed")

	order.Status = StatusFailed
	order.UpdatedAt = time.Now()

	return u.orderRepository.Update(ctx, order.ID, order, nil)
}

// GetOrderStatus implements OrderUseCase.
func (u *orderUseCase) GetOrderStatus(ctx context.Context, orderID string) (GetOrderStatusResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	order, err := u.orderRepository.FindByID(ctx, orderID, nil)
	if err != nil {
		return GetOrderStatusResponse{}, err
	}

	return GetOrderStatusResponse{
		ID:         order.ID,
		Status:     order.Status,
		AttendeeID: order.LinkedAttendeeID,
	}, nil
}

// GetManyOrder implements OrderUseCase.
func (u *orderUseCase) GetManyOrder(ctx context.Context, req GetManyOrderRequest) (GetManyOrderResponse, error) {
	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	acc, err := session.GetAccountFromCtx(ctx)
	if err != nil {
		return nil, err
	}

	offset := (req.Page - 1) * req.Size

	orders, err := u.orderRepository.FindMany(ctx, acc.ID, offset, req.Size, nil)
	if err != nil {
		return nil, err
	}

	resp := make(GetManyOrderResponse, len(orders))
	for k, o := range orders {
		items, err := u.itemRepository.FindManyByOrderID(ctx, o.ID, nil)
		if err != nil {
			return nil, err
		}
		o.Items = items

		r := OrderResponse{}
		r.PopulateFromEntity(o)
		resp[k] = r
	}

	return resp, nil
}

func (u *orderUseCase) publishOrderCompleted(ctx context.Context, order Order) {
	orderBuff, _ := json.Marshal(order)
	if err := u.publisher.Publish(ctx, "order-completed", order.ID, nil, orderBuff); err != nil {
		u.logger.WithContext(ctx).WithError(err).Warn("order-completed event was not published")
	}
}
