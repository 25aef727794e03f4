package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"storefront/internal/auth"
	"storefront/internal/clock"
	"storefront/internal/order/client"
	"storefront/internal/order/entity"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("service", "order").Logger()

// compensationTimeout bounds the corrective re-increment issued when the
// order write fails after stock was already decremented.
const compensationTimeout = 5 * time.Second

// CredentialVerifier extracts a caller identity from a bearer credential.
type CredentialVerifier interface {
	Verify(raw string) (auth.Identity, error)
}

// InventoryClient is the remote inventory surface the orchestrator needs.
type InventoryClient interface {
	FetchProduct(ctx context.Context, id int) (*entity.Product, error)
	AdjustQuantity(ctx context.Context, id, quantity int, op client.QuantityOp) error
}

// UserClient is the remote identity surface the orchestrator needs.
type UserClient interface {
	UserExists(ctx context.Context, userID int) (bool, error)
}

// OrderStore durably persists orders.
type OrderStore interface {
	CreateOrder(ctx context.Context, order *entity.Order) (*entity.Order, error)
}

// IdempotencyStore claims placement idempotency keys. Release frees a claim
// after a failed placement so the same key can be retried. A nil store
// disables the check.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

// OrderService orchestrates order placement across the identity and
// inventory collaborators and the order store. It holds no durable state and
// no locks; every dependency is injected at construction.
type OrderService struct {
	verifier  CredentialVerifier
	inventory InventoryClient
	users     UserClient
	store     OrderStore
	idem      IdempotencyStore
	clock     clock.Clock
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(verifier CredentialVerifier, inventory InventoryClient, users UserClient, store OrderStore, idem IdempotencyStore, clk clock.Clock) *OrderService {
	return &OrderService{
		verifier:  verifier,
		inventory: inventory,
		users:     users,
		store:     store,
		idem:      idem,
		clock:     clk,
	}
}

// PlaceOrderInput is one placement request.
type PlaceOrderInput struct {
	Credential     string
	IdempotencyKey string // optional
	ProductID      int
	Quantity       int
}

// PlaceOrder drives a placement through its fixed step sequence:
// authenticate, validate user, fetch product, advisory stock check,
// authoritative stock decrement, order persistence. Stock is never
// decremented before the caller and product are confirmed, and an order is
// never recorded unless the decrement succeeded. If the order write fails
// after the decrement, a compensating re-increment restores stock before the
// failure is surfaced; if that re-increment fails too the outcome is
// entity.ErrInconsistentState so operators can reconcile manually.
func (s *OrderService) PlaceOrder(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	if in.Quantity <= 0 {
		return nil, entity.ErrInvalidQuantity
	}

	claimed := false
	if s.idem != nil && in.IdempotencyKey != "" {
		fresh, err := s.idem.Reserve(ctx, in.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("%w: idempotency store: %v", entity.ErrDependencyUnavailable, err)
		}
		if !fresh {
			return nil, entity.ErrIdempotencyReplay
		}
		claimed = true
	}

	order, err := s.place(ctx, in)
	if err != nil && claimed {
		// A failed placement frees the key; only a recorded order makes a
		// replay of the same key an error.
		s.releaseKey(ctx, in.IdempotencyKey)
	}
	return order, err
}

func (s *OrderService) place(ctx context.Context, in PlaceOrderInput) (*entity.Order, error) {
	// Step 1: authenticate the caller from the supplied credential.
	var caller auth.Identity
	err := s.step("authenticate_caller", in.ProductID, func() error {
		id, err := s.verifier.Verify(in.Credential)
		if err != nil {
			return fmt.Errorf("%w: %v", entity.ErrUnauthorized, err)
		}
		caller = id
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 2: confirm the caller with the identity collaborator. An
	// unreachable collaborator maps to the same outward outcome as an
	// unknown user.
	err = s.step("validate_user", in.ProductID, func() error {
		exists, err := s.users.UserExists(ctx, caller.UserID)
		if err != nil {
			return fmt.Errorf("%w: %v", entity.ErrUnauthorized, err)
		}
		if !exists {
			return fmt.Errorf("%w: user %d not recognized", entity.ErrUnauthorized, caller.UserID)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 3: fetch a fresh product snapshot. Name and price are fixed here
	// for the rest of the placement.
	var product *entity.Product
	err = s.step("fetch_product", in.ProductID, func() error {
		p, err := s.inventory.FetchProduct(ctx, in.ProductID)
		if err != nil {
			return err
		}
		product = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 4: advisory availability check against the snapshot. The
	// authoritative check is the guarded decrement in step 5.
	err = s.step("check_availability", in.ProductID, func() error {
		if product.Quantity < in.Quantity {
			return &entity.InsufficientStockError{Available: product.Quantity}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Step 5: reserve stock. From here on a failure requires compensation.
	err = s.step("reserve_stock", in.ProductID, func() error {
		err := s.inventory.AdjustQuantity(ctx, in.ProductID, in.Quantity, client.OpDecrease)
		switch {
		case err == nil:
			return nil
		case errors.Is(err, entity.ErrProductNotFound):
			return fmt.Errorf("%w: product vanished during placement", entity.ErrDependencyUnavailable)
		default:
			// An insufficient-stock refusal here carries no available count.
			// When the guard refuses, the step 3 snapshot is stale by
			// definition and must not be reported.
			return err
		}
	})
	if err != nil {
		return nil, err
	}

	// Step 6: persist the order. The price and name come from the step 3
	// snapshot, never refetched.
	order := &entity.Order{
		ProductID:   in.ProductID,
		UserID:      caller.UserID,
		Quantity:    in.Quantity,
		TotalPrice:  product.Price * float64(in.Quantity),
		ProductName: product.Name,
		CreatedAt:   s.clock.Now(),
	}
	err = s.step("persist_order", in.ProductID, func() error {
		created, err := s.store.CreateOrder(ctx, order)
		if err != nil {
			return err
		}
		order = created
		return nil
	})
	if err != nil {
		return nil, s.compensate(ctx, in, err)
	}

	logger.Info().
		Int("order_id", order.ID).
		Int("product_id", order.ProductID).
		Int("user_id", order.UserID).
		Int("quantity", order.Quantity).
		Msg("order placed")
	return order, nil
}

// compensate undoes the step 5 decrement after a failed order write. It runs
// on a context detached from the request so a client disconnect cannot skip
// it.
func (s *OrderService) compensate(ctx context.Context, in PlaceOrderInput, cause error) error {
	compCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	err := s.step("compensate_stock", in.ProductID, func() error {
		return s.inventory.AdjustQuantity(compCtx, in.ProductID, in.Quantity, client.OpIncrease)
	})
	if err != nil {
		logger.Error().
			Int("product_id", in.ProductID).
			Int("quantity", in.Quantity).
			AnErr("persist_error", cause).
			AnErr("compensation_error", err).
			Msg("stock decremented without order; manual reconciliation required")
		return fmt.Errorf("%w: persist failed (%v), compensation failed (%v)", entity.ErrInconsistentState, cause, err)
	}

	return fmt.Errorf("%w: order persistence failed, stock restored: %v", entity.ErrDependencyUnavailable, cause)
}

// releaseKey frees a claimed idempotency key after a failed placement. Like
// compensation it runs detached from the request context so a client
// disconnect cannot leave the key burned for the full TTL.
func (s *OrderService) releaseKey(ctx context.Context, key string) {
	relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	if err := s.idem.Release(relCtx, key); err != nil {
		logger.Warn().Err(err).Msg("failed to release idempotency key after failed placement")
	}
}

// step runs one placement step and emits a structured trace event with its
// name, duration and outcome.
func (s *OrderService) step(name string, productID int, fn func() error) error {
	start := time.Now()
	err := fn()

	evt := logger.Info()
	outcome := "ok"
	if err != nil {
		evt = logger.Warn()
		outcome = err.Error()
	}
	evt.Str("step", name).
		Int("product_id", productID).
		Dur("duration", time.Since(start)).
		Str("outcome", outcome).
		Msg("placement step")

	return err
}
