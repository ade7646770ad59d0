package cart

import (
	"context"
	"testing"

	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/kv"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

type stubQueue struct {
	orders []types.Order
	err    error
	onCall func(ctx context.Context)
}

func (s *stubQueue) Enqueue(ctx context.Context, order types.Order) error {
	if s.onCall != nil {
		s.onCall(ctx)
	}
	if s.err != nil {
		return s.err
	}
	s.orders = append(s.orders, order)
	return nil
}

func newTestService(t *testing.T) (*Service, *kv.MemoryStore, *stubQueue) {
	t.Helper()
	store := kv.NewMemoryStore()
	queue := &stubQueue{}
	svc, err := NewService(context.Background(), ServiceParams{KV: store, Queue: queue})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, store, queue
}

func mustSelect(t *testing.T, svc *Service, businessUnit int, code string) {
	t.Helper()
	ctx := context.Background()
	if err := svc.SelectBusinessUnit(ctx, businessUnit); err != nil {
		t.Fatalf("select business unit: %v", err)
	}
	customer := types.CustomerPayload{BusinessUnit: businessUnit, Code: code, OrgName: "Org " + code}
	if err := svc.SelectCustomer(ctx, customer); err != nil {
		t.Fatalf("select customer: %v", err)
	}
}

func assertCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != code {
		t.Fatalf("expected code %s, got %v", code, err)
	}
}

func TestAddLineReplacesSameItem(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 5, UnitPrice: types.MoneyFromFloat(12.5)}); err != nil {
		t.Fatalf("first add: %v", err)
	}
	cart, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 3, UnitPrice: types.MoneyFromFloat(12.5)})
	if err != nil {
		t.Fatalf("second add: %v", err)
	}

	if len(cart.Lines) != 1 {
		t.Fatalf("expected one line, got %d", len(cart.Lines))
	}
	if cart.Lines[0].Quantity != 3 {
		t.Fatalf("expected quantity replaced with 3, got %d", cart.Lines[0].Quantity)
	}
	if !cart.Lines[0].LineTotal.Equal(types.MoneyFromFloat(37.5)) {
		t.Fatalf("expected line total 37.5, got %s", cart.Lines[0].LineTotal)
	}
}

func TestRemoveLastLineDeletesCart(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 1, UnitPrice: types.MoneyFromFloat(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	cart, err := svc.RemoveLine(ctx, "FZ001")
	if err != nil {
		t.Fatalf("remove: %v", err)
	}
	if cart != nil {
		t.Fatalf("expected nil cart after last removal, got %+v", cart)
	}
	if store.Len() != 0 {
		t.Fatalf("expected cart key deleted, %d keys remain", store.Len())
	}

	_, err = svc.Current(ctx)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestSelectBusinessUnitResetsEverything(t *testing.T) {
	t.Parallel()

	svc, store, _ := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 2, UnitPrice: types.MoneyFromFloat(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	if err := svc.SelectBusinessUnit(ctx, 200); err != nil {
		t.Fatalf("switch business unit: %v", err)
	}

	if store.Len() != 0 {
		t.Fatalf("expected persisted cart cleared")
	}
	sel := svc.Selection()
	if sel.BusinessUnit != 200 || sel.CustomerCode != "" {
		t.Fatalf("expected fresh selection for unit 200, got %+v", sel)
	}
}

func TestSelectCustomerGuards(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	err := svc.SelectCustomer(ctx, types.CustomerPayload{Code: "CUS-001"})
	assertCode(t, err, pkgerrors.CodeGuardRejected)

	if err := svc.SelectBusinessUnit(ctx, 100); err != nil {
		t.Fatalf("select business unit: %v", err)
	}

	err = svc.SelectCustomer(ctx, types.CustomerPayload{BusinessUnit: 200, Code: "CUS-001"})
	assertCode(t, err, pkgerrors.CodeGuardRejected)
}

func TestSelectCustomerRejectedWithForeignLines(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 1, UnitPrice: types.MoneyFromFloat(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	err := svc.SelectCustomer(ctx, types.CustomerPayload{BusinessUnit: 100, Code: "CUS-002"})
	assertCode(t, err, pkgerrors.CodeGuardRejected)

	// Reselecting the same customer stays allowed.
	if err := svc.SelectCustomer(ctx, types.CustomerPayload{BusinessUnit: 100, Code: "CUS-001"}); err != nil {
		t.Fatalf("reselect same customer: %v", err)
	}
}

func TestAddLineRequiresSelection(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 1, UnitPrice: types.MoneyFromFloat(10)})
	assertCode(t, err, pkgerrors.CodeGuardRejected)
}

func TestFinalizeMovesCartToQueue(t *testing.T) {
	t.Parallel()

	svc, store, queue := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 2, UnitPrice: types.MoneyFromFloat(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	order, err := svc.Finalize(ctx)
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if len(queue.orders) != 1 {
		t.Fatalf("expected one queued order, got %d", len(queue.orders))
	}
	if order.Key() == "" {
		t.Fatal("expected a composite order key")
	}
	if store.Len() != 0 {
		t.Fatal("expected cart key deleted after finalize")
	}
	if sel := svc.Selection(); sel.BusinessUnit != 0 {
		t.Fatalf("expected selection reset, got %+v", sel)
	}
}

func TestFinalizeEmptyCartRejected(t *testing.T) {
	t.Parallel()

	svc, _, _ := newTestService(t)
	_, err := svc.Finalize(context.Background())
	assertCode(t, err, pkgerrors.CodeGuardRejected)
}

func TestFinalizeKeepsCartWhenEnqueueFails(t *testing.T) {
	t.Parallel()

	svc, _, queue := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 2, UnitPrice: types.MoneyFromFloat(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	queue.err = pkgerrors.New(pkgerrors.CodeDependency, "queue write failed")
	if _, err := svc.Finalize(ctx); err == nil {
		t.Fatal("expected finalize to fail")
	}

	cart, err := svc.Current(ctx)
	if err != nil {
		t.Fatalf("expected cart to survive failed finalize: %v", err)
	}
	if len(cart.Lines) != 1 {
		t.Fatalf("expected line preserved, got %d", len(cart.Lines))
	}
}

func TestReentrantMutationRejectedBusy(t *testing.T) {
	t.Parallel()

	svc, _, queue := newTestService(t)
	ctx := context.Background()
	mustSelect(t, svc, 100, "CUS-001")

	if _, err := svc.AddLine(ctx, AddLineInput{ItemCode: "FZ001", Quantity: 1, UnitPrice: types.MoneyFromFloat(10)}); err != nil {
		t.Fatalf("add: %v", err)
	}

	var nested error
	queue.onCall = func(ctx context.Context) {
		_, nested = svc.AddLine(ctx, AddLineInput{ItemCode: "FZ002", Quantity: 1, UnitPrice: types.MoneyFromFloat(5)})
	}

	if _, err := svc.Finalize(ctx); err != nil {
		t.Fatalf("finalize: %v", err)
	}
	assertCode(t, nested, pkgerrors.CodeBusy)
}

func TestMalformedCartSelfHeals(t *testing.T) {
	t.Parallel()

	store := kv.NewMemoryStore()
	ctx := context.Background()
	if err := store.Set(ctx, "cart", []byte("{not json")); err != nil {
		t.Fatalf("seed: %v", err)
	}
	svc, err := NewService(ctx, ServiceParams{KV: store, Queue: &stubQueue{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.Current(ctx)
	assertCode(t, err, pkgerrors.CodeNotFound)
}

func TestSelectionRestoredFromPersistedCart(t *testing.T) {
	t.Parallel()

	store := kv.NewMemoryStore()
	ctx := context.Background()
	seed := []byte(`{"zid":100,"xcus":"CUS-001","xcusname":"Org","xcusadd":"Addr","items":[{"xitem":"FZ001","xqty":1,"xprice":10,"xroword":1,"xsl":"abc12345","xlinetotal":10}]}`)
	if err := store.Set(ctx, "cart", seed); err != nil {
		t.Fatalf("seed: %v", err)
	}

	svc, err := NewService(ctx, ServiceParams{KV: store, Queue: &stubQueue{}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sel := svc.Selection()
	if sel.BusinessUnit != 100 || sel.CustomerCode != "CUS-001" {
		t.Fatalf("expected selection restored, got %+v", sel)
	}
}
