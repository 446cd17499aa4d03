package adapters

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"stock_etl/internal/feature/prices/domain/entity"
	"stock_etl/internal/feature/prices/usecase"
)

const (
	insertBatchSize = 500

	// SQL Server rejects statements binding more than 2100 parameters.
	sqlServerMaxParams = 2100
	priceColumns       = 7
)

type priceGorm struct {
	db    *gorm.DB
	table string
}

var _ usecase.PriceRepository = (*priceGorm)(nil)

// NewPriceRepository returns a repository over the named table.
func NewPriceRepository(db *gorm.DB, table string) *priceGorm {
	return &priceGorm{db: db, table: table}
}

// PriceModel is the row layout of the price table. The table has no surrogate
// key; (company, date) is indexed but not unique so append mode can duplicate.
type PriceModel struct {
	Company string  `gorm:"column:company;size:32;not null;index:idx_price_company_date,priority:1"`
	Date    string  `gorm:"column:date;size:10;not null;index:idx_price_company_date,priority:2"`
	Open    float64 `gorm:"column:open"`
	High    float64 `gorm:"column:high"`
	Low     float64 `gorm:"column:low"`
	Close   float64 `gorm:"column:close"`
	Volume  float64 `gorm:"column:volume"`
}

// Migrate creates or updates the price table.
func Migrate(db *gorm.DB, table string) error {
	return db.Table(table).AutoMigrate(&PriceModel{})
}

func toModel(r entity.PriceRow) PriceModel {
	return PriceModel{
		Company: r.Ticker,
		Date:    r.Date,
		Open:    r.Open,
		High:    r.High,
		Low:     r.Low,
		Close:   r.Close,
		Volume:  r.Volume,
	}
}

func toModels(rows []entity.PriceRow) []PriceModel {
	ms := make([]PriceModel, 0, len(rows))
	for _, r := range rows {
		ms = append(ms, toModel(r))
	}
	return ms
}

// MaxDate reads MAX(date). An empty table yields an invalid watermark.
func (r *priceGorm) MaxDate(ctx context.Context) (entity.Watermark, error) {
	var maxDate sql.NullString
	row := r.db.WithContext(ctx).
		Table(r.table).
		Select("MAX(?)", clause.Column{Name: "date"}).
		Row()
	if err := row.Scan(&maxDate); err != nil {
		return entity.Watermark{}, fmt.Errorf("read max date from %s: %w", r.table, err)
	}
	if !maxDate.Valid || maxDate.String == "" {
		return entity.Watermark{}, nil
	}
	return entity.Watermark{Date: normalizeDate(maxDate.String), Valid: true}, nil
}

// AppendBatch inserts rows as they are.
func (r *priceGorm) AppendBatch(ctx context.Context, rows []entity.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}
	ms := toModels(rows)
	return r.db.WithContext(ctx).Table(r.table).CreateInBatches(&ms, r.batchSize()).Error
}

// ReplaceBatch deletes stored rows sharing a (company, date) with rows and
// inserts rows, in one transaction.
func (r *priceGorm) ReplaceBatch(ctx context.Context, rows []entity.PriceRow) error {
	if len(rows) == 0 {
		return nil
	}

	datesByCompany := map[string][]any{}
	var order []string
	for _, row := range rows {
		if _, ok := datesByCompany[row.Ticker]; !ok {
			order = append(order, row.Ticker)
		}
		datesByCompany[row.Ticker] = append(datesByCompany[row.Ticker], row.Date)
	}

	ms := toModels(rows)
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, company := range order {
			err := tx.Table(r.table).
				Where(clause.Eq{Column: clause.Column{Name: "company"}, Value: company}).
				Where(clause.IN{Column: clause.Column{Name: "date"}, Values: datesByCompany[company]}).
				Delete(&PriceModel{}).Error
			if err != nil {
				return fmt.Errorf("delete existing rows for %s: %w", company, err)
			}
		}
		return tx.Table(r.table).CreateInBatches(&ms, r.batchSize()).Error
	})
}

// Find returns up to limit rows for ticker, newest first. limit <= 0 means no limit.
func (r *priceGorm) Find(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error) {
	var ms []PriceModel
	q := r.db.WithContext(ctx).
		Table(r.table).
		Where(clause.Eq{Column: clause.Column{Name: "company"}, Value: ticker}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&ms).Error; err != nil {
		return nil, err
	}

	out := make([]entity.PriceRow, 0, len(ms))
	for _, m := range ms {
		out = append(out, entity.PriceRow{
			Ticker: m.Company,
			Date:   normalizeDate(m.Date),
			Open:   m.Open,
			High:   m.High,
			Low:    m.Low,
			Close:  m.Close,
			Volume: m.Volume,
		})
	}
	return out, nil
}

// batchSize returns the rows per INSERT for the connected dialect.
func (r *priceGorm) batchSize() int {
	if r.db.Dialector.Name() == "sqlserver" {
		return (sqlServerMaxParams - 1) / priceColumns
	}
	return insertBatchSize
}

// normalizeDate trims timestamp renderings of DATE columns (e.g. RFC 3339) to YYYY-MM-DD.
func normalizeDate(s string) string {
	if len(s) <= len(time.DateOnly) {
		return s
	}
	if _, err := time.Parse(time.DateOnly, s[:len(time.DateOnly)]); err == nil {
		return s[:len(time.DateOnly)]
	}
	return s
}
