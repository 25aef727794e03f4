package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/order/entity"
)

func TestInventory_FetchProduct(t *testing.T) {
	t.Parallel()

	t.Run("decodes product", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/inventory/products/7" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(entity.Product{ID: 7, Name: "X", Price: 10.00, Quantity: 5})
		}))
		defer srv.Close()

		product, err := NewInventory(srv.URL, time.Second).FetchProduct(context.Background(), 7)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if product.ID != 7 || product.Name != "X" || product.Price != 10.00 || product.Quantity != 5 {
			t.Fatalf("unexpected product %+v", product)
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		_, err := NewInventory(srv.URL, time.Second).FetchProduct(context.Background(), 7)
		if !errors.Is(err, entity.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("persistent 5xx maps to dependency failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewInventory(srv.URL, time.Second).FetchProduct(context.Background(), 7)
		if !errors.Is(err, entity.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	})

	t.Run("retries a transient 5xx", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if hits.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			json.NewEncoder(w).Encode(entity.Product{ID: 7, Name: "X", Price: 10.00, Quantity: 5})
		}))
		defer srv.Close()

		product, err := NewInventory(srv.URL, time.Second).FetchProduct(context.Background(), 7)
		if err != nil {
			t.Fatalf("expected retry to recover, got %v", err)
		}
		if product.ID != 7 {
			t.Fatalf("unexpected product %+v", product)
		}
		if hits.Load() != 2 {
			t.Fatalf("expected 2 attempts, got %d", hits.Load())
		}
	})

	t.Run("unreachable host maps to dependency failure", func(t *testing.T) {
		_, err := NewInventory("http://127.0.0.1:1", 100*time.Millisecond).FetchProduct(context.Background(), 7)
		if !errors.Is(err, entity.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	})
}

func TestInventory_AdjustQuantity(t *testing.T) {
	t.Parallel()

	t.Run("sends quantity and operation", func(t *testing.T) {
		var got struct {
			Quantity  int    `json:"quantity"`
			Operation string `json:"operation"`
		}
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPut {
				t.Errorf("expected PUT, got %s", r.Method)
			}
			if r.URL.Path != "/inventory/products/7/quantity" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewDecoder(r.Body).Decode(&got)
			json.NewEncoder(w).Encode(map[string]string{"message": "Quantity updated"})
		}))
		defer srv.Close()

		err := NewInventory(srv.URL, time.Second).AdjustQuantity(context.Background(), 7, 3, OpDecrease)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.Quantity != 3 || got.Operation != "subtract" {
			t.Fatalf("unexpected payload %+v", got)
		}
	})

	t.Run("409 maps to insufficient stock", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusConflict)
		}))
		defer srv.Close()

		err := NewInventory(srv.URL, time.Second).AdjustQuantity(context.Background(), 7, 3, OpDecrease)
		if !errors.Is(err, entity.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}
	})

	t.Run("404 maps to not found", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		err := NewInventory(srv.URL, time.Second).AdjustQuantity(context.Background(), 7, 3, OpDecrease)
		if !errors.Is(err, entity.ErrProductNotFound) {
			t.Fatalf("expected ErrProductNotFound, got %v", err)
		}
	})

	t.Run("400 is not a stock refusal", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadRequest)
		}))
		defer srv.Close()

		err := NewInventory(srv.URL, time.Second).AdjustQuantity(context.Background(), 7, 3, OpDecrease)
		if errors.Is(err, entity.ErrInsufficientStock) {
			t.Fatalf("a remote 400 must not map to ErrInsufficientStock")
		}
		if !errors.Is(err, entity.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	})

	t.Run("5xx maps to dependency failure and is not retried", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			w.WriteHeader(http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		err := NewInventory(srv.URL, time.Second).AdjustQuantity(context.Background(), 7, 3, OpDecrease)
		if !errors.Is(err, entity.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
		if hits.Load() != 1 {
			t.Fatalf("mutating call must not be retried, got %d attempts", hits.Load())
		}
	})
}

func TestUsers_UserExists(t *testing.T) {
	t.Parallel()

	t.Run("200 means exists", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/users/42" {
				t.Errorf("unexpected path %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 42})
		}))
		defer srv.Close()

		exists, err := NewUsers(srv.URL, time.Second).UserExists(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !exists {
			t.Fatalf("expected exists=true")
		}
	})

	t.Run("404 is a normal false", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		}))
		defer srv.Close()

		exists, err := NewUsers(srv.URL, time.Second).UserExists(context.Background(), 42)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if exists {
			t.Fatalf("expected exists=false")
		}
	})

	t.Run("persistent 5xx maps to dependency failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		_, err := NewUsers(srv.URL, time.Second).UserExists(context.Background(), 42)
		if !errors.Is(err, entity.ErrDependencyUnavailable) {
			t.Fatalf("expected ErrDependencyUnavailable, got %v", err)
		}
	})

	t.Run("idempotent reads return identical results", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]interface{}{"id": 42})
		}))
		defer srv.Close()

		c := NewUsers(srv.URL, time.Second)
		first, err1 := c.UserExists(context.Background(), 42)
		second, err2 := c.UserExists(context.Background(), 42)
		if err1 != nil || err2 != nil {
			t.Fatalf("expected no errors, got %v, %v", err1, err2)
		}
		if first != second {
			t.Fatalf("expected identical results, got %v then %v", first, second)
		}
	})
}

func TestInventory_FetchProduct_Idempotent(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(entity.Product{ID: 7, Name: "X", Price: 10.00, Quantity: 5})
	}))
	defer srv.Close()

	c := NewInventory(srv.URL, time.Second)
	first, err1 := c.FetchProduct(context.Background(), 7)
	second, err2 := c.FetchProduct(context.Background(), 7)
	if err1 != nil || err2 != nil {
		t.Fatalf("expected no errors, got %v, %v", err1, err2)
	}
	if *first != *second {
		t.Fatalf("expected identical snapshots, got %+v then %+v", first, second)
	}
}
