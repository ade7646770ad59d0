package orderqueue

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"

	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/kv"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/metrics"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

const queueKey = "orders"

const (
	sendModeSingle = "single"
	sendModeBulk   = "bulk"
)

// queueDoc mirrors the persisted shape: {"orders": [...]}.
type queueDoc struct {
	Orders []types.Order `json:"orders"`
}

// Sender submits order batches to the remote API.
type Sender interface {
	CreateBulkOrder(ctx context.Context, orders []types.Order) ([]types.OrderConfirmation, error)
}

// ServiceParams groups the queue manager dependencies.
type ServiceParams struct {
	KV      kv.Store
	Sender  Sender
	Metrics *metrics.CoreMetrics
	Logger  *logger.Logger
}

// Service is the durable holding area for finalized orders. Queued orders
// are immutable; they leave the queue by submission or deletion only.
type Service struct {
	kv      kv.Store
	sender  Sender
	metrics *metrics.CoreMetrics
	logg    *logger.Logger
	busy    atomic.Bool
}

// NewService builds the order queue manager.
func NewService(params ServiceParams) (*Service, error) {
	if params.KV == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "kv store is required")
	}
	if params.Sender == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sender is required")
	}
	return &Service{
		kv:      params.KV,
		sender:  params.Sender,
		metrics: params.Metrics,
		logg:    params.Logger,
	}, nil
}

// Load returns the queued orders. A missing or malformed document is an
// empty queue, never an error.
func (s *Service) Load(ctx context.Context) ([]types.Order, error) {
	data, err := s.kv.Get(ctx, queueKey)
	if err != nil {
		if errors.Is(err, kv.ErrNotFound) {
			return []types.Order{}, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read order queue")
	}
	var doc queueDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "persisted order queue is malformed, starting empty")
		}
		return []types.Order{}, nil
	}
	if doc.Orders == nil {
		return []types.Order{}, nil
	}
	return doc.Orders, nil
}

// Enqueue appends a finalized order.
func (s *Service) Enqueue(ctx context.Context, order types.Order) error {
	if len(order.Lines) == 0 {
		return pkgerrors.New(pkgerrors.CodeGuardRejected, "order has no lines")
	}
	orders, err := s.Load(ctx)
	if err != nil {
		return err
	}
	orders = append(orders, order)
	return s.save(ctx, orders)
}

// SendOne submits a single queued order as a one-element batch. Only a
// confirmed submission removes it from the queue.
func (s *Service) SendOne(ctx context.Context, key string) ([]types.OrderConfirmation, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	idx := -1
	for i, order := range orders {
		if order.Key() == key {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "queued order not found")
	}

	confirmations, err := s.sender.CreateBulkOrder(ctx, []types.Order{orders[idx]})
	if err != nil {
		s.metrics.IncSendFailure(sendModeSingle)
		return nil, err
	}

	remaining := append(orders[:idx:idx], orders[idx+1:]...)
	if err := s.save(ctx, remaining); err != nil {
		return nil, err
	}
	s.metrics.IncOrdersSent(sendModeSingle, 1)
	return confirmations, nil
}

// SendAll submits the whole queue as one batch and clears it on success. A
// failed call leaves the queue untouched.
func (s *Service) SendAll(ctx context.Context) ([]types.OrderConfirmation, error) {
	release, err := s.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	orders, err := s.Load(ctx)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeGuardRejected, "order queue is empty")
	}

	confirmations, err := s.sender.CreateBulkOrder(ctx, orders)
	if err != nil {
		s.metrics.IncSendFailure(sendModeBulk)
		return nil, err
	}

	if err := s.save(ctx, []types.Order{}); err != nil {
		return nil, err
	}
	s.metrics.IncOrdersSent(sendModeBulk, len(orders))
	return confirmations, nil
}

// DeleteOne removes a queued order without submitting it. Irreversible.
func (s *Service) DeleteOne(ctx context.Context, key string) error {
	release, err := s.acquire()
	if err != nil {
		return err
	}
	defer release()

	orders, err := s.Load(ctx)
	if err != nil {
		return err
	}
	remaining := orders[:0]
	for _, order := range orders {
		if order.Key() != key {
			remaining = append(remaining, order)
		}
	}
	if len(remaining) == len(orders) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "queued order not found")
	}
	return s.save(ctx, remaining)
}

func (s *Service) acquire() (func(), error) {
	if !s.busy.CompareAndSwap(false, true) {
		return nil, pkgerrors.New(pkgerrors.CodeBusy, "queue operation already in progress")
	}
	return func() { s.busy.Store(false) }, nil
}

func (s *Service) save(ctx context.Context, orders []types.Order) error {
	data, err := json.Marshal(queueDoc{Orders: orders})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode order queue")
	}
	if err := s.kv.Set(ctx, queueKey, data); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist order queue")
	}
	s.metrics.SetQueueDepth(len(orders))
	return nil
}
