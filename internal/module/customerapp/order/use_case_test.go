package order

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gigpass/gp-checkout/internal/module/customerapp/event"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/midtrans"
	"github.com/gigpass/gp-checkout/internal/module/customerapp/ticket"
	"github.com/gigpass/gp-checkout/internal/pkg/session"
	"github.com/gigpass/gp-checkout/pkg/errors"
	"github.com/gigpass/gp-checkout/pkg/status"
)

func newTestOrderUseCase(s *memState, gw *fakeMidtransRepository) (OrderUseCase, *fakePublisher, *fakeCacheInvalidator) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	publisher := &fakePublisher{}
	cacheInvalidator := &fakeCacheInvalidator{}

	useCase := NewOrderUseCase(OrderUseCaseProperty{
		Logger:                  logger,
		Timeout:                 5 * time.Second,
		BaseURL:                 "https://gigpass.id",
		ServiceChargePercentage: 5,
		TaxPercentage:           10,
		EventRepository:         &fakeEventRepository{s: s},
		TicketTierRepository:    &fakeTicketTierRepository{s: s},
		AttendeeRepository:      &fakeAttendeeRepository{s: s},
		OrderRepository:         &fakeOrderRepository{s: s},
		ItemRepository:          &fakeItemRepository{s: s},
		PromoCodeRepository:     &fakePromoCodeRepository{s: s},
		MidtransRepository:      gw,
		Publisher:               publisher,
		CacheInvalidator:        cacheInvalidator,
	})

	return useCase, publisher, cacheInvalidator
}

func seedPublishedEvent(s *memState) event.Event {
	settlementAccountID := "SA-001"
	e := event.Event{
		ID:                  "EVT-1",
		Name:                "Jakarta Jazz Night",
		Status:              event.StatusPublished,
		SettlementAccountID: &settlementAccountID,
	}
	s.events[e.ID] = e

	return e
}

func seedTier(s *memState, ID string, capacity, sold int64, price float64) ticket.TicketTier {
	t := ticket.TicketTier{
		ID:        ID,
		EventID:   "EVT-1",
		Name:      "Tier " + ID,
		Capacity:  capacity,
		SoldCount: sold,
		UnitPrice: price,
	}
	s.tiers[t.ID] = t

	return t
}

func placeOrderRequest(tierID string, quantity int64, price float64) PlaceOrderRequest {
	return PlaceOrderRequest{
		EventID:    "EVT-1",
		BuyerName:  "Dewi Lestari",
		BuyerEmail: "dewi@example.com",
		Items: []ItemRequest{
			{TicketTierID: tierID, Quantity: quantity, UnitPrice: price},
		},
	}
}

func TestPlaceOrder(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{
		response: midtrans.CreateTransactionResponse{
			TransactionID: "MT-SESSION-1",
			Token:         "snap-token",
			RedirectURL:   "https://app.sandbox.midtrans.com/snap/v3/redirection/snap-token",
		},
	}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	resp, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 2, 150000))
	require.NoError(t, err)

	assert.Equal(t, StatusPending, resp.Status)
	assert.Equal(t, "https://app.sandbox.midtrans.com/snap/v3/redirection/snap-token", resp.RedirectURL)
	assert.Equal(t, float64(300000), resp.Subtotal)
	assert.Equal(t, float64(15000), resp.ServiceCharge)
	assert.Equal(t, float64(30000), resp.Tax)
	assert.Equal(t, float64(345000), resp.TotalAmount)
	assert.Equal(t, int64(2), resp.Quantity)

	stored := s.orders[resp.ID]
	assert.Equal(t, StatusPending, stored.Status)
	require.NotNil(t, stored.GatewaySessionID)
	assert.Equal(t, "MT-SESSION-1", *stored.GatewaySessionID)

	items, err := (&fakeItemRepository{s: s}).FindManyByOrderID(context.Background(), resp.ID, nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, int64(2), items[0].Quantity)

	// Capacity is untouched until the payment settles.
	assert.Equal(t, int64(0), s.tiers["TIER-GA"].SoldCount)
	assert.Empty(t, s.attendees)

	require.Len(t, gw.requests, 1)
	assert.Equal(t, "SA-001", gw.requests[0].SettlementAccountID)
	assert.Equal(t, int64(345000), gw.requests[0].TransactionDetails.GrossAmount)
	assert.Equal(t, resp.ID, gw.requests[0].TransactionDetails.OrderID)
}

func TestPlaceOrderEventNotFound(t *testing.T) {
	s := newMemState()
	useCase, _, _ := newTestOrderUseCase(s, &fakeMidtransRepository{})

	_, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 1, 150000))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.Destruct(err).HTTPStatusCode)
}

func TestPlaceOrderEventNotPublished(t *testing.T) {
	s := newMemState()
	e := seedPublishedEvent(s)
	e.Status = event.StatusDraft
	s.events[e.ID] = e
	seedTier(s, "TIER-GA", 100, 0, 150000)

	useCase, _, _ := newTestOrderUseCase(s, &fakeMidtransRepository{})

	_, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 1, 150000))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.Destruct(err).HTTPStatusCode)
}

func TestPlaceOrderWithoutSettlementAccount(t *testing.T) {
	s := newMemState()
	e := seedPublishedEvent(s)
	e.SettlementAccountID = nil
	s.events[e.ID] = e
	seedTier(s, "TIER-GA", 100, 0, 150000)

	useCase, _, _ := newTestOrderUseCase(s, &fakeMidtransRepository{})

	_, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 1, 150000))
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.Destruct(err).HTTPStatusCode)
}

func TestPlaceOrderPriceChanged(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 175000)

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	_, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 1, 150000))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.Destruct(err).HTTPStatusCode)
	assert.Empty(t, gw.requests)
	assert.Empty(t, s.orders)
}

func TestPlaceOrderSoldOut(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 10, 10, 150000)

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	_, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 1, 150000))
	require.Error(t, err)
	assert.Equal(t, http.StatusConflict, errors.Destruct(err).HTTPStatusCode)
	assert.Empty(t, gw.requests)
	assert.Empty(t, s.orders)
}

func TestPlaceOrderWithPromoCode(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)
	s.promos["PROMO-1"] = PromoCode{
		ID:            "PROMO-1",
		EventID:       "EVT-1",
		Code:          "JAZZ10",
		DiscountKind:  DiscountKindPercentage,
		DiscountValue: 10,
		UsageCap:      100,
	}

	gw := &fakeMidtransRepository{
		response: midtrans.CreateTransactionResponse{TransactionID: "MT-SESSION-1", RedirectURL: "https://pay"},
	}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	req := placeOrderRequest("TIER-GA", 2, 150000)
	req.PromoCode = "JAZZ10"

	resp, err := useCase.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, float64(300000), resp.Subtotal)
	assert.Equal(t, float64(30000), resp.Discount)
	assert.Equal(t, float64(13500), resp.ServiceCharge)
	assert.Equal(t, float64(27000), resp.Tax)
	assert.Equal(t, float64(310500), resp.TotalAmount)

	// Usage is redeemed at settlement, not at checkout.
	assert.Equal(t, int64(0), s.promos["PROMO-1"].UsageCount)

	stored := s.orders[resp.ID]
	require.NotNil(t, stored.PromoCodeID)
	assert.Equal(t, "PROMO-1", *stored.PromoCodeID)
}

func TestPlaceOrderUnknownPromoCode(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	useCase, _, _ := newTestOrderUseCase(s, &fakeMidtransRepository{})

	req := placeOrderRequest("TIER-GA", 1, 150000)
	req.PromoCode = "NOPE"

	_, err := useCase.PlaceOrder(context.Background(), req)
	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, errors.Destruct(err).HTTPStatusCode)
}

func TestPlaceOrderGatewayFailure(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{
		err: errors.New(http.StatusBadGateway, status.BAD_GATEWAY, "an error occurred trying to create payment transaction"),
	}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	_, err := useCase.PlaceOrder(context.Background(), placeOrderRequest("TIER-GA", 1, 150000))
	require.Error(t, err)
	assert.Equal(t, http.StatusBadGateway, errors.Destruct(err).HTTPStatusCode)

	// The pending order survives without a gateway session; it will
	// never receive a notification and stays inert.
	require.Len(t, s.orders, 1)
	for _, o := range s.orders {
		assert.Equal(t, StatusPending, o.Status)
		assert.Nil(t, o.GatewaySessionID)
	}
}

func placePendingOrder(t *testing.T, useCase OrderUseCase, gw *fakeMidtransRepository, sessionID string, req PlaceOrderRequest) PlaceOrderResponse {
	t.Helper()

	gw.mu.Lock()
	gw.response = midtrans.CreateTransactionResponse{TransactionID: sessionID, RedirectURL: "https://pay"}
	gw.mu.Unlock()

	resp, err := useCase.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	return resp
}

func TestOnPaymentNotificationSettlement(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{}
	useCase, publisher, cacheInvalidator := newTestOrderUseCase(s, gw)

	placed := placePendingOrder(t, useCase, gw, "MT-SESSION-1", placeOrderRequest("TIER-GA", 2, 150000))

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusSettlement,
	})
	require.NoError(t, err)

	stored := s.orders[placed.ID]
	assert.Equal(t, StatusCompleted, stored.Status)
	require.NotNil(t, stored.LinkedAttendeeID)

	require.Len(t, s.attendees, 2)
	assert.Equal(t, *stored.LinkedAttendeeID, s.attendees[0].ID)
	for _, a := range s.attendees {
		assert.Equal(t, placed.ID, a.OrderID)
		assert.Equal(t, "Dewi Lestari", a.Name)
		assert.False(t, a.CheckedIn)
	}

	assert.Equal(t, int64(2), s.tiers["TIER-GA"].SoldCount)

	statusResp, err := useCase.GetOrderStatus(context.Background(), placed.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, statusResp.Status)
	require.NotNil(t, statusResp.AttendeeID)
	assert.Equal(t, *stored.LinkedAttendeeID, *statusResp.AttendeeID)

	require.Len(t, publisher.topics, 1)
	assert.Equal(t, "order-completed", publisher.topics[0])
	assert.Equal(t, []string{"EVT-1"}, cacheInvalidator.eventIDs)
}

func TestOnPaymentNotificationReplay(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{}
	useCase, publisher, _ := newTestOrderUseCase(s, gw)

	placed := placePendingOrder(t, useCase, gw, "MT-SESSION-1", placeOrderRequest("TIER-GA", 1, 150000))

	notification := PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusSettlement,
	}

	require.NoError(t, useCase.OnPaymentNotification(context.Background(), notification))
	require.NoError(t, useCase.OnPaymentNotification(context.Background(), notification))
	require.NoError(t, useCase.OnPaymentNotification(context.Background(), notification))

	assert.Equal(t, StatusCompleted, s.orders[placed.ID].Status)
	assert.Len(t, s.attendees, 1)
	assert.Equal(t, int64(1), s.tiers["TIER-GA"].SoldCount)
	assert.Len(t, publisher.topics, 1)
}

func TestOnPaymentNotificationFailureOutcome(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{}
	useCase, publisher, _ := newTestOrderUseCase(s, gw)

	placed := placePendingOrder(t, useCase, gw, "MT-SESSION-1", placeOrderRequest("TIER-GA", 1, 150000))

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusExpire,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, s.orders[placed.ID].Status)
	assert.Empty(t, s.attendees)
	assert.Equal(t, int64(0), s.tiers["TIER-GA"].SoldCount)
	assert.Empty(t, publisher.topics)

	// A failed order never resurrects, even if a success arrives late.
	err = useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusSettlement,
	})
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, s.orders[placed.ID].Status)
	assert.Empty(t, s.attendees)
}

func TestOnPaymentNotificationIntermediateStatus(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	placed := placePendingOrder(t, useCase, gw, "MT-SESSION-1", placeOrderRequest("TIER-GA", 1, 150000))

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusPending,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, s.orders[placed.ID].Status)
	assert.Empty(t, s.attendees)
}

func TestOnPaymentNotificationUnknownSession(t *testing.T) {
	s := newMemState()
	useCase, _, _ := newTestOrderUseCase(s, &fakeMidtransRepository{})

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-UNKNOWN",
		TransactionStatus: midtrans.StatusSettlement,
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.Destruct(err).HTTPStatusCode)
}

func TestOnPaymentNotificationCapacityRace(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-LAST", 1, 0, 150000)

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	// Both checkouts pass the advisory availability check while the
	// seat is still free.
	first := placePendingOrder(t, useCase, gw, "MT-SESSION-A", placeOrderRequest("TIER-LAST", 1, 150000))
	second := placePendingOrder(t, useCase, gw, "MT-SESSION-B", placeOrderRequest("TIER-LAST", 1, 150000))

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-A",
		TransactionStatus: midtrans.StatusSettlement,
	})
	require.NoError(t, err)

	// The second settlement loses the capacity check. The delivery is
	// still acknowledged; the order turns FAILED instead.
	err = useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-B",
		TransactionStatus: midtrans.StatusSettlement,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, s.orders[first.ID].Status)
	assert.Equal(t, StatusFailed, s.orders[second.ID].Status)
	assert.Equal(t, int64(1), s.tiers["TIER-LAST"].SoldCount)

	require.Len(t, s.attendees, 1)
	assert.Equal(t, first.ID, s.attendees[0].OrderID)

	statusResp, err := useCase.GetOrderStatus(context.Background(), second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusFailed, statusResp.Status)
	assert.Nil(t, statusResp.AttendeeID)
}

func TestOnPaymentNotificationPromoCapExhausted(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)
	s.promos["PROMO-1"] = PromoCode{
		ID:            "PROMO-1",
		EventID:       "EVT-1",
		Code:          "JAZZ10",
		DiscountKind:  DiscountKindPercentage,
		DiscountValue: 10,
		UsageCap:      1,
	}

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	req := placeOrderRequest("TIER-GA", 1, 150000)
	req.PromoCode = "JAZZ10"
	placed := placePendingOrder(t, useCase, gw, "MT-SESSION-1", req)

	// The last redemption goes to someone else between checkout and
	// settlement.
	pc := s.promos["PROMO-1"]
	pc.UsageCount = 1
	s.promos["PROMO-1"] = pc

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusSettlement,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusFailed, s.orders[placed.ID].Status)
	assert.Empty(t, s.attendees)

	// The sold-count increment from the same transaction rolled back
	// with it.
	assert.Equal(t, int64(0), s.tiers["TIER-GA"].SoldCount)
	assert.Equal(t, int64(1), s.promos["PROMO-1"].UsageCount)
}

func TestOnPaymentNotificationMultiTier(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)
	seedTier(s, "TIER-VIP", 20, 0, 500000)

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	req := PlaceOrderRequest{
		EventID:    "EVT-1",
		BuyerName:  "Dewi Lestari",
		BuyerEmail: "dewi@example.com",
		Items: []ItemRequest{
			{TicketTierID: "TIER-GA", Quantity: 2, UnitPrice: 150000},
			{TicketTierID: "TIER-VIP", Quantity: 1, UnitPrice: 500000},
		},
	}
	placed := placePendingOrder(t, useCase, gw, "MT-SESSION-1", req)

	require.Equal(t, float64(800000), placed.Subtotal)

	err := useCase.OnPaymentNotification(context.Background(), PaymentNotificationEvent{
		TransactionID:     "MT-SESSION-1",
		TransactionStatus: midtrans.StatusCapture,
	})
	require.NoError(t, err)

	assert.Equal(t, StatusCompleted, s.orders[placed.ID].Status)
	assert.Equal(t, int64(2), s.tiers["TIER-GA"].SoldCount)
	assert.Equal(t, int64(1), s.tiers["TIER-VIP"].SoldCount)
	require.Len(t, s.attendees, 3)
}

func TestGetOrderStatusNotFound(t *testing.T) {
	s := newMemState()
	useCase, _, _ := newTestOrderUseCase(s, &fakeMidtransRepository{})

	_, err := useCase.GetOrderStatus(context.Background(), "ORD-missing")
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, errors.Destruct(err).HTTPStatusCode)
}

func TestGetManyOrder(t *testing.T) {
	s := newMemState()
	seedPublishedEvent(s)
	seedTier(s, "TIER-GA", 100, 0, 150000)

	gw := &fakeMidtransRepository{}
	useCase, _, _ := newTestOrderUseCase(s, gw)

	ctx := session.SetAccountToCtx(context.Background(), session.Account{
		ID:    42,
		Name:  "Dewi Lestari",
		Email: "dewi@example.com",
		Role:  session.RoleCustomer,
	})

	gw.response = midtrans.CreateTransactionResponse{TransactionID: "MT-SESSION-1", RedirectURL: "https://pay"}
	placed, err := useCase.PlaceOrder(ctx, placeOrderRequest("TIER-GA", 1, 150000))
	require.NoError(t, err)

	resp, err := useCase.GetManyOrder(ctx, GetManyOrderRequest{Page: 1, Size: 10})
	require.NoError(t, err)
	require.Len(t, resp, 1)
	assert.Equal(t, placed.ID, resp[0].ID)
	require.Len(t, resp[0].Items, 1)

	_, err = useCase.GetManyOrder(context.Background(), GetManyOrderRequest{Page: 1, Size: 10})
	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, errors.Destruct(err).HTTPStatusCode)
}

func TestPromoCodeDiscountFor(t *testing.T) {
	percentage := PromoCode{DiscountKind: DiscountKindPercentage, DiscountValue: 25}
	assert.Equal(t, float64(50000), percentage.DiscountFor(200000))

	fixed := PromoCode{DiscountKind: DiscountKindFixed, DiscountValue: 20000}
	assert.Equal(t, float64(20000), fixed.DiscountFor(200000))

	// A fixed discount never pushes the total below zero.
	assert.Equal(t, float64(15000), fixed.DiscountFor(15000))
}
