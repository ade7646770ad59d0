package cart

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/kv"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

const cartKey = "cart"

// QueueAppender receives the finalized cart.
type QueueAppender interface {
	Enqueue(ctx context.Context, order types.Order) error
}

// AddLineInput carries one confirmed item+quantity.
type AddLineInput struct {
	ItemCode    string
	Description string
	UnitPrice   types.Money
	Quantity    int
	Latitude    *float64
	Longitude   *float64
}

// Selection is the in-memory picker state restored from the persisted cart
// on startup.
type Selection struct {
	BusinessUnit    int    `json:"zid"`
	CustomerCode    string `json:"xcus"`
	CustomerName    string `json:"xcusname"`
	CustomerAddress string `json:"xcusadd"`
}

// ServiceParams groups the cart manager dependencies.
type ServiceParams struct {
	KV     kv.Store
	Queue  QueueAppender
	Logger *logger.Logger
}

// Service owns the single in-progress order. Mutations persist the whole
// cart document after every change; removing the last line deletes the key
// entirely, which is the "cart is gone" signal.
type Service struct {
	kv    kv.Store
	queue QueueAppender
	logg  *logger.Logger

	mu  sync.Mutex
	sel Selection

	busy atomic.Bool
}

// NewService builds the cart manager and restores the selection from any
// persisted cart.
func NewService(ctx context.Context, params ServiceParams) (*Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Queue == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "order queue is required")
	}
	s := &Service{
		kv:    params.KV,
		queue: params.Queue,
		logg:  params.Logger,
	}
	if cart, err := s.loadCart(ctx); err == nil && cart != nil {
		s.sel = Selection{
			BusinessUnit:    cart.BusinessUnit,
			CustomerCode:    cart.CustomerCode,
			CustomerName:    cart.CustomerName,
			CustomerAddress: cart.CustomerAddress,
		}
	}
	return s, nil
}

// Selection returns the current picker state.
func (s *Service) Selection() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sel
}

// Current returns the persisted cart or NOT_FOUND when none exists.
func (s *Service) Current(ctx context.Context) (*types.Cart, error) {
	cart, err := s.loadCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}
	return cart, nil
}

// SelectBusinessUnit switches the tenant scope. This is a reset, not a
// failure: customer, item selection and every cart line are dropped and the
// persisted cart key is deleted.
func (s *Service) SelectBusinessUnit(ctx context.Context, businessUnit int) error {
	if businessUnit <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "business unit must be positive")
	}
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	if err := s.kv.Delete(ctx, cartKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear persisted cart")
	}

	s.mu.Lock()
	s.sel = Selection{BusinessUnit: businessUnit}
	s.mu.Unlock()
	return nil
}

// SelectCustomer sets the customer header fields. Rejected once lines exist
// for a different customer, so a cart can never mix customers.
func (s *Service) SelectCustomer(ctx context.Context, customer types.CustomerPayload) error {
	if strings.TrimSpace(customer.Code) == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "customer code is required")
	}
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()

	if sel.BusinessUnit == 0 {
		return pkgerrors.New(pkgerrors.CodeGuardRejected, "select a business unit first")
	}
	if customer.BusinessUnit != 0 && customer.BusinessUnit != sel.BusinessUnit {
		return pkgerrors.New(pkgerrors.CodeGuardRejected, "customer belongs to a different business unit")
	}

	cart, err := s.loadCart(ctx)
	if err != nil {
		return err
	}
	if cart != nil && len(cart.Lines) > 0 && cart.CustomerCode != customer.Code {
		return pkgerrors.New(pkgerrors.CodeGuardRejected, "cart already has lines for another customer")
	}

	s.mu.Lock()
	s.sel.CustomerCode = customer.Code
	s.sel.CustomerName = customer.OrgName
	s.sel.CustomerAddress = customer.Address
	s.mu.Unlock()
	return nil
}

// AddLine appends a line or, when the item code is already present,
// replaces that line's quantity and recomputes the total.
func (s *Service) AddLine(ctx context.Context, input AddLineInput) (*types.Cart, error) {
	if strings.TrimSpace(input.ItemCode) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item code is required")
	}
	if input.Quantity <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	if input.UnitPrice.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unit price cannot be negative")
	}
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	s.mu.Lock()
	sel := s.sel
	s.mu.Unlock()

	if sel.BusinessUnit == 0 || sel.CustomerCode == "" {
		return nil, pkgerrors.New(pkgerrors.CodeGuardRejected, "business unit and customer must be selected")
	}

	cart, err := s.loadCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		cart = &types.Cart{
			BusinessUnit:    sel.BusinessUnit,
			CustomerCode:    sel.CustomerCode,
			CustomerName:    sel.CustomerName,
			CustomerAddress: sel.CustomerAddress,
		}
	}

	lineTotal := input.UnitPrice.MulInt(input.Quantity)
	if idx := cart.LineIndex(input.ItemCode); idx >= 0 {
		cart.Lines[idx].Quantity = input.Quantity
		cart.Lines[idx].LineTotal = lineTotal
	} else {
		cart.Lines = append(cart.Lines, types.CartLine{
			ItemCode:    input.ItemCode,
			Description: input.Description,
			Quantity:    input.Quantity,
			UnitPrice:   input.UnitPrice,
			RowOrder:    len(cart.Lines) + 1,
			EntryDate:   time.Now().Format("2006-01-02"),
			LineSerial:  uuid.NewString()[:8],
			Latitude:    input.Latitude,
			Longitude:   input.Longitude,
			LineTotal:   lineTotal,
		})
	}

	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// RemoveLine drops the matching line. Removing the last line deletes the
// persisted key instead of writing an empty list.
func (s *Service) RemoveLine(ctx context.Context, itemCode string) (*types.Cart, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	cart, err := s.loadCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no active cart")
	}

	kept := cart.Lines[:0]
	for _, line := range cart.Lines {
		if line.ItemCode != itemCode {
			kept = append(kept, line)
		}
	}
	cart.Lines = kept

	if len(cart.Lines) == 0 {
		if err := s.kv.Delete(ctx, cartKey); err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete persisted cart")
		}
		return nil, nil
	}
	if err := s.saveCart(ctx, cart); err != nil {
		return nil, err
	}
	return cart, nil
}

// Finalize moves the cart into the durable order queue, deletes the cart
// key and resets the selection. Rejected when there is nothing to queue.
func (s *Service) Finalize(ctx context.Context) (*types.Order, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	cart, err := s.loadCart(ctx)
	if err != nil {
		return nil, err
	}
	if cart == nil || len(cart.Lines) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGuardRejected, "cart has no lines")
	}

	order := types.Order(*cart)
	if err := s.queue.Enqueue(ctx, order); err != nil {
		return nil, err
	}
	if err := s.kv.Delete(ctx, cartKey); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete persisted cart")
	}

	s.mu.Lock()
	s.sel = Selection{}
	s.mu.Unlock()
	return &order, nil
}

// acquire rejects re-entrant mutations with a typed busy error instead of
// relying on the shell to disable controls.
func (s *Service) acquire() (func(), error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, pkgerrors.New(pkgerrors.CodeBusy, "cart operation already in progress")
	}
	return func() { s.busy.Store(false) }, nil
}

func (s *Service) loadCart(ctx context.Context) (*types.Cart, error) {
	data, err := s.kv.Get(ctx, cartKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read cart")
	}
	var cart types.Cart
	if err := json.Unmarshal(data, &cart); err != nil {
		// Corrupt cache self-heals as an empty cart.
		if s.logg != nil {
			s.logg.Warn(ctx, "persisted cart is malformed, starting empty")
		}
		return nil, nil
	}
	return &cart, nil
}

func (s *Service) saveCart(ctx context.Context, cart *types.Cart) error {
	data, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	if err := s.kv.Set(ctx, cartKey, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist cart")
	}
	return nil
}
