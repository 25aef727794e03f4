package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"storefront/internal/auth"
	"storefront/internal/order/entity"
	"storefront/internal/order/repository"
	"storefront/internal/order/service"
)

type fakePlacer struct {
	gotCredential string
	gotKey        string
	gotInput      service.PlaceOrderInput
	order         *entity.Order
	err           error
}

func (f *fakePlacer) PlaceOrder(_ context.Context, in service.PlaceOrderInput) (*entity.Order, error) {
	f.gotCredential = in.Credential
	f.gotKey = in.IdempotencyKey
	f.gotInput = in
	if f.err != nil {
		return nil, f.err
	}
	return f.order, nil
}

type fakeReader struct {
	orders map[int]*entity.Order
}

func (f *fakeReader) GetOrderByID(_ context.Context, id int) (*entity.Order, error) {
	order, ok := f.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (f *fakeReader) ListOrdersByUser(_ context.Context, userID int) ([]*entity.Order, error) {
	var out []*entity.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

type staticVerifier struct {
	identity auth.Identity
	err      error
}

func (s *staticVerifier) Verify(string) (auth.Identity, error) {
	if s.err != nil {
		return auth.Identity{}, s.err
	}
	return s.identity, nil
}

func doPlacement(t *testing.T, h *OrderHandler, body string) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	h.Register(e)

	req := httptest.NewRequest(http.MethodPost, "/order-requests", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set("Idempotency-Key", "idem-1")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrderRequest_Success(t *testing.T) {
	t.Parallel()

	createdAt := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	placer := &fakePlacer{order: &entity.Order{
		ID:          1,
		ProductID:   7,
		UserID:      42,
		Quantity:    3,
		TotalPrice:  30.00,
		ProductName: "X",
		CreatedAt:   createdAt,
	}}
	h := NewOrderHandler(placer, &fakeReader{}, &staticVerifier{})

	rec := doPlacement(t, h, `{"productId":7,"quantity":3}`)
	if rec.Code != 200 {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["quantity"] != float64(3) {
		t.Fatalf("expected quantity 3, got %v", resp["quantity"])
	}
	if resp["productName"] != "X" {
		t.Fatalf("expected productName X, got %v", resp["productName"])
	}
	if resp["totalPrice"] != float64(30) {
		t.Fatalf("expected totalPrice 30, got %v", resp["totalPrice"])
	}
	if resp["userId"] != float64(42) {
		t.Fatalf("expected userId 42, got %v", resp["userId"])
	}
	if _, ok := resp["createdAt"]; !ok {
		t.Fatalf("expected createdAt field")
	}

	if placer.gotCredential != "Bearer token" {
		t.Fatalf("expected bearer credential forwarded, got %q", placer.gotCredential)
	}
	if placer.gotKey != "idem-1" {
		t.Fatalf("expected idempotency key forwarded, got %q", placer.gotKey)
	}
	if placer.gotInput.ProductID != 7 || placer.gotInput.Quantity != 3 {
		t.Fatalf("unexpected input %+v", placer.gotInput)
	}
}

func TestCreateOrderRequest_ErrorMapping(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"unauthorized", fmt.Errorf("%w: bad token", entity.ErrUnauthorized), 401, "unauthorized"},
		{"product not found", entity.ErrProductNotFound, 400, "product_not_found"},
		{"insufficient stock", &entity.InsufficientStockError{Available: 5}, 400, "insufficient_stock"},
		{"invalid quantity", entity.ErrInvalidQuantity, 400, "invalid_quantity"},
		{"idempotency replay", entity.ErrIdempotencyReplay, 409, "idempotency_replay"},
		{"dependency unavailable", fmt.Errorf("%w: status 503", entity.ErrDependencyUnavailable), 502, "dependency_unavailable"},
		{"inconsistent state", fmt.Errorf("%w: details", entity.ErrInconsistentState), 500, "inconsistent_state"},
		{"storage failure", fmt.Errorf("%w: disk full", entity.ErrStorageFailure), 500, "storage_failure"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewOrderHandler(&fakePlacer{err: tt.err}, &fakeReader{}, &staticVerifier{})
			rec := doPlacement(t, h, `{"productId":7,"quantity":3}`)
			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}

			var resp map[string]interface{}
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp["code"] != tt.wantCode {
				t.Fatalf("expected code %q, got %v", tt.wantCode, resp["code"])
			}
		})
	}
}

func TestCreateOrderRequest_InsufficientStockReportsAvailable(t *testing.T) {
	t.Parallel()

	h := NewOrderHandler(&fakePlacer{err: &entity.InsufficientStockError{Available: 5}}, &fakeReader{}, &staticVerifier{})
	rec := doPlacement(t, h, `{"productId":7,"quantity":6}`)
	if rec.Code != 400 {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	var resp map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp["available"] != float64(5) {
		t.Fatalf("expected available 5, got %v", resp["available"])
	}
}

func TestGetOrder(t *testing.T) {
	t.Parallel()

	orders := map[int]*entity.Order{
		1: {ID: 1, UserID: 42, ProductID: 7, Quantity: 3},
		2: {ID: 2, UserID: 99, ProductID: 7, Quantity: 1},
	}

	get := func(h *OrderHandler, path string) *httptest.ResponseRecorder {
		e := echo.New()
		h.Register(e)
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer token")
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	t.Run("own order", func(t *testing.T) {
		h := NewOrderHandler(&fakePlacer{}, &fakeReader{orders: orders}, &staticVerifier{identity: auth.Identity{UserID: 42, Role: auth.RoleUser}})
		rec := get(h, "/orders/1")
		if rec.Code != 200 {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("foreign order hidden", func(t *testing.T) {
		h := NewOrderHandler(&fakePlacer{}, &fakeReader{orders: orders}, &staticVerifier{identity: auth.Identity{UserID: 42, Role: auth.RoleUser}})
		rec := get(h, "/orders/2")
		if rec.Code != 404 {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("admin sees all", func(t *testing.T) {
		h := NewOrderHandler(&fakePlacer{}, &fakeReader{orders: orders}, &staticVerifier{identity: auth.Identity{UserID: 1, Role: auth.RoleAdmin}})
		rec := get(h, "/orders/2")
		if rec.Code != 200 {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		h := NewOrderHandler(&fakePlacer{}, &fakeReader{orders: orders}, &staticVerifier{err: auth.ErrInvalidToken})
		rec := get(h, "/orders/1")
		if rec.Code != 401 {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("missing order", func(t *testing.T) {
		h := NewOrderHandler(&fakePlacer{}, &fakeReader{orders: orders}, &staticVerifier{identity: auth.Identity{UserID: 42}})
		rec := get(h, "/orders/999")
		if rec.Code != 404 {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}
