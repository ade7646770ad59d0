package customers

import (
	"context"
	"encoding/json"
	"sync/atomic"
	"time"

	"gorm.io/gorm"

	"github.com/sajidhasan/fieldorder/pkg/db/models"
	pkgerrors "github.com/sajidhasan/fieldorder/pkg/errors"
	"github.com/sajidhasan/fieldorder/pkg/logger"
	"github.com/sajidhasan/fieldorder/pkg/metrics"
	"github.com/sajidhasan/fieldorder/pkg/types"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type pager interface {
	PullCustomers(ctx context.Context, employeeID string, limit, offset int) ([]types.CustomerPayload, error)
}

// SyncResult summarizes one sync run.
type SyncResult struct {
	Fetched  int `json:"fetched"`
	Upserted int `json:"upserted"`
}

// ServiceParams groups the sync engine dependencies.
type ServiceParams struct {
	Repo     *Repository
	Tx       txRunner
	Remote   pager
	PageSize int
	Metrics  *metrics.CoreMetrics
	Logger   *logger.Logger
}

// Service mirrors the remote customer table into the local cache so the
// picker keeps working offline.
type Service struct {
	repo     *Repository
	tx       txRunner
	remote   pager
	pageSize int
	metrics  *metrics.CoreMetrics
	logg     *logger.Logger
	busy     atomic.Bool
}

// NewService builds the sync engine.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "customer repo is required")
	}
	if params.Tx == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction runner is required")
	}
	if params.Remote == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "remote pager is required")
	}
	pageSize := params.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	return &Service{
		repo:     params.Repo,
		tx:       params.Tx,
		remote:   params.Remote,
		pageSize: pageSize,
		metrics:  params.Metrics,
		logg:     params.Logger,
	}, nil
}

// Sync pulls the employee's full customer list in fixed-size pages and
// upserts only rows that differ from the local cache, in one transaction.
// A mid-pagination failure aborts the whole run; re-running is safe since
// the upsert is idempotent on full-row equality.
func (s *Service) Sync(ctx context.Context, employeeID string) (SyncResult, error) {
	if employeeID == "" {
		return SyncResult{}, pkgerrors.New(pkgerrors.CodeValidation, "employee id is required")
	}
	if !s.busy.CompareAndSwap(false, true) {
		return SyncResult{}, pkgerrors.New(pkgerrors.CodeBusy, "sync already in progress")
	}
	defer s.busy.Store(false)

	started := time.Now()
	result, err := s.run(ctx, employeeID)
	s.metrics.ObserveSyncDuration(time.Since(started))
	if err != nil {
		s.metrics.IncSyncRun("failure")
		return SyncResult{}, err
	}
	s.metrics.IncSyncRun("success")
	s.metrics.AddSyncUpserts(result.Upserted)
	return result, nil
}

func (s *Service) run(ctx context.Context, employeeID string) (SyncResult, error) {
	fetched, err := s.fetchAll(ctx, employeeID)
	if err != nil {
		return SyncResult{}, err
	}

	existing, err := s.repo.ListAll(ctx)
	if err != nil {
		return SyncResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cached customers")
	}
	present := make(map[string]struct{}, len(existing))
	for _, row := range existing {
		present[fingerprint(payloadFromRecord(row))] = struct{}{}
	}

	var toUpsert []models.CustomerRecord
	for _, payload := range fetched {
		if _, ok := present[fingerprint(payload)]; ok {
			continue
		}
		toUpsert = append(toUpsert, recordFromPayload(payload))
	}

	if len(toUpsert) > 0 {
		err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
			return s.repo.WithTx(tx).UpsertMany(ctx, toUpsert)
		})
		if err != nil {
			return SyncResult{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "upsert customers")
		}
	}

	if s.logg != nil {
		lctx := s.logg.WithFields(ctx, map[string]any{
			"fetched":  len(fetched),
			"upserted": len(toUpsert),
		})
		s.logg.Info(lctx, "customer sync completed")
	}
	return SyncResult{Fetched: len(fetched), Upserted: len(toUpsert)}, nil
}

// fetchAll pages until a short or empty page; no total-count header exists.
func (s *Service) fetchAll(ctx context.Context, employeeID string) ([]types.CustomerPayload, error) {
	var all []types.CustomerPayload
	offset := 0
	for {
		page, err := s.remote.PullCustomers(ctx, employeeID, s.pageSize, offset)
		if err != nil {
			return nil, err
		}
		all = append(all, page...)
		if len(page) < s.pageSize {
			return all, nil
		}
		offset += s.pageSize
	}
}

// Search serves the offline fallback for the customer picker.
func (s *Service) Search(ctx context.Context, businessUnit int, query string, limit int) ([]types.CustomerPayload, error) {
	if businessUnit <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "business unit is required")
	}
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.repo.Search(ctx, businessUnit, query, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search cached customers")
	}
	payloads := make([]types.CustomerPayload, 0, len(rows))
	for _, row := range rows {
		payloads = append(payloads, payloadFromRecord(row))
	}
	return payloads, nil
}

// fingerprint is the whole-row structural-equality key: any differing field
// makes the row count as new.
func fingerprint(payload types.CustomerPayload) string {
	data, _ := json.Marshal(payload)
	return string(data)
}

func recordFromPayload(p types.CustomerPayload) models.CustomerRecord {
	return models.CustomerRecord{
		BusinessUnit: p.BusinessUnit,
		Code:         p.Code,
		OrgName:      p.OrgName,
		Address:      p.Address,
		City:         p.City,
		State:        p.State,
		Mobile:       p.Mobile,
		TaxNumber:    p.TaxNumber,
		Salesman:     p.Salesman,
		Salesman1:    p.Salesman1,
		Salesman2:    p.Salesman2,
		Salesman3:    p.Salesman3,
	}
}

func payloadFromRecord(r models.CustomerRecord) types.CustomerPayload {
	return types.CustomerPayload{
		BusinessUnit: r.BusinessUnit,
		Code:         r.Code,
		OrgName:      r.OrgName,
		Address:      r.Address,
		City:         r.City,
		State:        r.State,
		Mobile:       r.Mobile,
		TaxNumber:    r.TaxNumber,
		Salesman:     r.Salesman,
		Salesman1:    r.Salesman1,
		Salesman2:    r.Salesman2,
		Salesman3:    r.Salesman3,
	}
}
