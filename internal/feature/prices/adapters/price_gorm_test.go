package adapters

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"stock_etl/internal/feature/prices/domain/entity"
)

const testTable = "stock_prices"

// setupTestDB prepares an in-memory SQLite database with the price table.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err, "failed to initialize test database")

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// :memory: databases are per connection.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, Migrate(db, testTable), "failed to migrate table")
	return db
}

func seedRows(t *testing.T, db *gorm.DB, rows ...PriceModel) {
	t.Helper()
	require.NoError(t, db.Table(testTable).Create(&rows).Error, "failed to seed rows")
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Table(testTable).Count(&n).Error)
	return n
}

func row(ticker, date string, close float64) entity.PriceRow {
	return entity.PriceRow{Ticker: ticker, Date: date, Open: close - 1, High: close + 1, Low: close - 2, Close: close, Volume: 1000}
}

func TestNewPriceRepository(t *testing.T) {
	db := setupTestDB(t)

	repo := NewPriceRepository(db, testTable)

	assert.NotNil(t, repo, "repository is nil")
	assert.NotNil(t, repo.db, "database connection is nil")
	assert.Equal(t, testTable, repo.table)
}

func TestMigrate_CreatesExpectedColumns(t *testing.T) {
	db := setupTestDB(t)

	for _, col := range []string{"company", "date", "open", "high", "low", "close", "volume"} {
		assert.True(t, db.Migrator().HasColumn(testTable, col), "missing column %s", col)
	}
	assert.False(t, db.Migrator().HasColumn(testTable, "id"))
}

func TestPriceGorm_MaxDate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		seed []PriceModel
		want entity.Watermark
	}{
		{
			name: "empty table has no watermark",
			want: entity.Watermark{},
		},
		{
			name: "max across companies",
			seed: []PriceModel{
				{Company: "AAPL", Date: "2024-01-02"},
				{Company: "MSFT", Date: "2024-01-05"},
				{Company: "AAPL", Date: "2024-01-03"},
			},
			want: entity.Watermark{Date: "2024-01-05", Valid: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			if len(tt.seed) > 0 {
				seedRows(t, db, tt.seed...)
			}
			repo := NewPriceRepository(db, testTable)

			got, err := repo.MaxDate(context.Background())
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPriceGorm_MaxDate_MissingTable(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPriceRepository(db, "no_such_table")

	_, err := repo.MaxDate(context.Background())
	assert.ErrorContains(t, err, "read max date")
}

func TestPriceGorm_AppendBatch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		rows      []entity.PriceRow
		runs      int
		wantCount int64
	}{
		{"empty slice writes nothing", nil, 1, 0},
		{"single row", []entity.PriceRow{row("AAPL", "2024-01-02", 1.5)}, 1, 1},
		{"multiple rows", []entity.PriceRow{row("AAPL", "2024-01-02", 1.5), row("AAPL", "2024-01-03", 2)}, 1, 2},
		{"rerun duplicates rows", []entity.PriceRow{row("AAPL", "2024-01-02", 1.5)}, 2, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			db := setupTestDB(t)
			repo := NewPriceRepository(db, testTable)

			for i := 0; i < tt.runs; i++ {
				require.NoError(t, repo.AppendBatch(context.Background(), tt.rows))
			}
			assert.Equal(t, tt.wantCount, countRows(t, db))
		})
	}
}

func TestPriceGorm_AppendBatch_StoresAllFields(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPriceRepository(db, testTable)

	in := entity.PriceRow{Ticker: "AAPL", Date: "2024-01-02", Open: 1.0, High: 2.0, Low: 0.5, Close: 1.5, Volume: 1000}
	require.NoError(t, repo.AppendBatch(context.Background(), []entity.PriceRow{in}))

	var got PriceModel
	require.NoError(t, db.Table(testTable).First(&got).Error)
	assert.Equal(t, PriceModel{Company: "AAPL", Date: "2024-01-02", Open: 1.0, High: 2.0, Low: 0.5, Close: 1.5, Volume: 1000}, got)
}

func TestPriceGorm_ReplaceBatch_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	seedRows(t, db,
		PriceModel{Company: "AAPL", Date: "2024-01-02", Close: 100},
		PriceModel{Company: "AAPL", Date: "2024-01-02", Close: 100},
		PriceModel{Company: "MSFT", Date: "2024-01-02", Close: 300},
	)
	repo := NewPriceRepository(db, testTable)

	rows := []entity.PriceRow{row("AAPL", "2024-01-02", 1.5), row("AAPL", "2024-01-03", 2)}
	for i := 0; i < 2; i++ {
		require.NoError(t, repo.ReplaceBatch(context.Background(), rows))
	}

	// two AAPL rows replaced by the new pair, MSFT untouched
	assert.Equal(t, int64(3), countRows(t, db))

	var aapl []PriceModel
	require.NoError(t, db.Table(testTable).Where("company = ?", "AAPL").Order("date").Find(&aapl).Error)
	require.Len(t, aapl, 2)
	assert.Equal(t, 1.5, aapl[0].Close)
	assert.Equal(t, 2.0, aapl[1].Close)

	var msft PriceModel
	require.NoError(t, db.Table(testTable).Where("company = ?", "MSFT").First(&msft).Error)
	assert.Equal(t, 300.0, msft.Close)
}

func TestPriceGorm_ReplaceBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	repo := NewPriceRepository(db, testTable)

	require.NoError(t, repo.ReplaceBatch(context.Background(), nil))
	assert.Equal(t, int64(0), countRows(t, db))
}

func TestPriceGorm_Find(t *testing.T) {
	db := setupTestDB(t)
	seedRows(t, db,
		PriceModel{Company: "AAPL", Date: "2024-01-02", Close: 1},
		PriceModel{Company: "AAPL", Date: "2024-01-04", Close: 3},
		PriceModel{Company: "AAPL", Date: "2024-01-03", Close: 2},
		PriceModel{Company: "MSFT", Date: "2024-01-04", Close: 9},
	)
	repo := NewPriceRepository(db, testTable)

	t.Run("newest first", func(t *testing.T) {
		got, err := repo.Find(context.Background(), "AAPL", 0)
		require.NoError(t, err)
		require.Len(t, got, 3)
		assert.Equal(t, []string{"2024-01-04", "2024-01-03", "2024-01-02"}, []string{got[0].Date, got[1].Date, got[2].Date})
		assert.Equal(t, "AAPL", got[0].Ticker)
	})

	t.Run("limit", func(t *testing.T) {
		got, err := repo.Find(context.Background(), "AAPL", 2)
		require.NoError(t, err)
		assert.Len(t, got, 2)
	})

	t.Run("unknown ticker", func(t *testing.T) {
		got, err := repo.Find(context.Background(), "XXXX", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestNormalizeDate(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "2024-01-02", normalizeDate("2024-01-02"))
	assert.Equal(t, "2024-01-02", normalizeDate("2024-01-02T00:00:00Z"))
	assert.Equal(t, "2024-01-02", normalizeDate("2024-01-02 00:00:00"))
	assert.Equal(t, "not a date at all", normalizeDate("not a date at all"))
}
