package customers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sajidhasan/fieldorder/pkg/db/models"
)

func seedRecord(businessUnit int, code, org string) models.CustomerRecord {
	return models.CustomerRecord{
		BusinessUnit: businessUnit,
		Code:         code,
		OrgName:      org,
		City:         "Dhaka",
	}
}

func TestUpsertManyInsertsAndReplaces(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []models.CustomerRecord{
		seedRecord(100, "CUS-001", "Alpha Traders"),
		seedRecord(100, "CUS-002", "Beta Stores"),
	}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	// Same natural key replaces in place instead of duplicating.
	require.NoError(t, repo.UpsertMany(ctx, []models.CustomerRecord{
		seedRecord(100, "CUS-001", "Alpha Traders Ltd"),
	}))

	count, err = repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rows, err := repo.Search(ctx, 100, "CUS-001", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha Traders Ltd", rows[0].OrgName)
}

func TestUpsertManyEmptyIsNoop(t *testing.T) {
	t.Parallel()

	repo := NewRepository(openTestDB(t))
	require.NoError(t, repo.UpsertMany(context.Background(), nil))
}

func TestSameCodeAcrossBusinessUnits(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	// The same customer code can exist in two business units.
	require.NoError(t, repo.UpsertMany(ctx, []models.CustomerRecord{
		seedRecord(100, "CUS-001", "Alpha South"),
		seedRecord(200, "CUS-001", "Alpha North"),
	}))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	rows, err := repo.Search(ctx, 200, "CUS-001", 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "Alpha North", rows[0].OrgName)
}

func TestListAllReturnsEverything(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []models.CustomerRecord{
		seedRecord(100, "CUS-001", "One"),
		seedRecord(100, "CUS-002", "Two"),
		seedRecord(200, "CUS-003", "Three"),
	}))

	rows, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, rows, 3)
}

func TestSearchOrdersByCode(t *testing.T) {
	t.Parallel()

	conn := openTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	require.NoError(t, repo.UpsertMany(ctx, []models.CustomerRecord{
		seedRecord(100, "CUS-003", "Gamma"),
		seedRecord(100, "CUS-001", "Alpha"),
		seedRecord(100, "CUS-002", "Beta"),
	}))

	rows, err := repo.Search(ctx, 100, "CUS", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "CUS-001", rows[0].Code)
	assert.Equal(t, "CUS-003", rows[2].Code)
}
