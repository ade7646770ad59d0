package customers

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/sajidhasan/fieldorder/pkg/db"
	"github.com/sajidhasan/fieldorder/pkg/db/models"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

type stubPager struct {
	pages [][]types.CustomerPayload
	calls int
	err   error
}

func (s *stubPager) PullCustomers(ctx context.Context, employeeID string, limit, offset int) ([]types.CustomerPayload, error) {
	if s.err != nil {
		return nil, s.err
	}
	idx := offset / limit
	s.calls++
	if idx >= len(s.pages) {
		return nil, nil
	}
	return s.pages[idx], nil
}

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(&models.CustomerRecord{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return conn
}

func newSyncService(t *testing.T, pageSize int, pager *stubPager) (*Service, *Repository) {
	t.Helper()
	conn := openTestDB(t)
	repo := NewRepository(conn)
	svc, err := NewService(ServiceParams{
		Repo:     repo,
		Tx:       db.NewFromGorm(conn),
		Remote:   pager,
		PageSize: pageSize,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return svc, repo
}

func customer(businessUnit int, code, org string) types.CustomerPayload {
	return types.CustomerPayload{
		BusinessUnit: businessUnit,
		Code:         code,
		OrgName:      org,
		City:         "Dhaka",
	}
}

func TestSyncInsertsNewRows(t *testing.T) {
	t.Parallel()

	pager := &stubPager{pages: [][]types.CustomerPayload{{
		customer(100, "CUS-001", "Alpha Traders"),
		customer(100, "CUS-002", "Beta Stores"),
	}}}
	svc, repo := newSyncService(t, 100, pager)

	result, err := svc.Sync(context.Background(), "EMP-9")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Fetched != 2 || result.Upserted != 2 {
		t.Fatalf("unexpected result: %+v", result)
	}

	count, err := repo.Count(context.Background())
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 cached rows, got %d", count)
	}
}

func TestSyncIsIdempotentOnUnchangedRows(t *testing.T) {
	t.Parallel()

	rows := []types.CustomerPayload{
		customer(100, "CUS-001", "Alpha Traders"),
		customer(100, "CUS-002", "Beta Stores"),
	}
	pager := &stubPager{pages: [][]types.CustomerPayload{rows}}
	svc, _ := newSyncService(t, 100, pager)

	if _, err := svc.Sync(context.Background(), "EMP-9"); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	result, err := svc.Sync(context.Background(), "EMP-9")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Fetched != 2 || result.Upserted != 0 {
		t.Fatalf("expected no upserts on unchanged data, got %+v", result)
	}
}

func TestSyncUpdatesChangedRow(t *testing.T) {
	t.Parallel()

	pager := &stubPager{pages: [][]types.CustomerPayload{{
		customer(100, "CUS-001", "Alpha Traders"),
	}}}
	svc, repo := newSyncService(t, 100, pager)
	ctx := context.Background()

	if _, err := svc.Sync(ctx, "EMP-9"); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	changed := customer(100, "CUS-001", "Alpha Traders Ltd")
	pager.pages = [][]types.CustomerPayload{{changed}}

	result, err := svc.Sync(ctx, "EMP-9")
	if err != nil {
		t.Fatalf("second sync: %v", err)
	}
	if result.Upserted != 1 {
		t.Fatalf("expected changed row upserted, got %+v", result)
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single row after update, got %d", count)
	}

	found, err := repo.Search(ctx, 100, "Alpha", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].OrgName != "Alpha Traders Ltd" {
		t.Fatalf("expected updated org name, got %+v", found)
	}
}

func TestSyncPaginatesUntilShortPage(t *testing.T) {
	t.Parallel()

	pager := &stubPager{pages: [][]types.CustomerPayload{
		{customer(100, "CUS-001", "One"), customer(100, "CUS-002", "Two")},
		{customer(100, "CUS-003", "Three"), customer(100, "CUS-004", "Four")},
		{customer(100, "CUS-005", "Five")},
	}}
	svc, _ := newSyncService(t, 2, pager)

	result, err := svc.Sync(context.Background(), "EMP-9")
	if err != nil {
		t.Fatalf("sync: %v", err)
	}
	if result.Fetched != 5 {
		t.Fatalf("expected 5 fetched across pages, got %d", result.Fetched)
	}
	if pager.calls != 3 {
		t.Fatalf("expected pagination to stop after the short page, got %d calls", pager.calls)
	}
}

func TestSyncFailureKeepsCacheUntouched(t *testing.T) {
	t.Parallel()

	pager := &stubPager{pages: [][]types.CustomerPayload{{
		customer(100, "CUS-001", "Alpha Traders"),
	}}}
	svc, repo := newSyncService(t, 100, pager)
	ctx := context.Background()

	if _, err := svc.Sync(ctx, "EMP-9"); err != nil {
		t.Fatalf("seed sync: %v", err)
	}

	pager.err = pkgerrors.New(pkgerrors.CodeDependency, "api unreachable")
	if _, err := svc.Sync(ctx, "EMP-9"); err == nil {
		t.Fatal("expected sync failure")
	}

	count, err := repo.Count(ctx)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected cache unchanged after failed run, got %d", count)
	}
}

func TestSyncRequiresEmployeeID(t *testing.T) {
	t.Parallel()

	svc, _ := newSyncService(t, 100, &stubPager{})
	_, err := svc.Sync(context.Background(), "")
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestSearchScopesToBusinessUnit(t *testing.T) {
	t.Parallel()

	pager := &stubPager{pages: [][]types.CustomerPayload{{
		customer(100, "CUS-001", "Alpha Traders"),
		customer(200, "CUS-001", "Alpha North"),
	}}}
	svc, _ := newSyncService(t, 100, pager)
	ctx := context.Background()

	if _, err := svc.Sync(ctx, "EMP-9"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	found, err := svc.Search(ctx, 100, "Alpha", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 1 || found[0].BusinessUnit != 100 {
		t.Fatalf("expected only unit 100 match, got %+v", found)
	}
}

func TestSearchMatchesCodeAndName(t *testing.T) {
	t.Parallel()

	var seed []types.CustomerPayload
	for i := 1; i <= 3; i++ {
		seed = append(seed, customer(100, fmt.Sprintf("CUS-00%d", i), fmt.Sprintf("Shop %d", i)))
	}
	pager := &stubPager{pages: [][]types.CustomerPayload{seed}}
	svc, _ := newSyncService(t, 100, pager)
	ctx := context.Background()

	if _, err := svc.Sync(ctx, "EMP-9"); err != nil {
		t.Fatalf("sync: %v", err)
	}

	byCode, err := svc.Search(ctx, 100, "CUS-002", 10)
	if err != nil {
		t.Fatalf("search by code: %v", err)
	}
	if len(byCode) != 1 || byCode[0].Code != "CUS-002" {
		t.Fatalf("expected code match, got %+v", byCode)
	}

	byName, err := svc.Search(ctx, 100, "Shop", 2)
	if err != nil {
		t.Fatalf("search by name: %v", err)
	}
	if len(byName) != 2 {
		t.Fatalf("expected limit applied, got %d", len(byName))
	}
}
