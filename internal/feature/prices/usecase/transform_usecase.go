package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strconv"
	"strings"

	"stock_etl/internal/feature/prices/domain/entity"
)

// TransformOptions controls row selection and partitioning.
type TransformOptions struct {
	// WatermarkFilter keeps only rows dated after the stored watermark.
	WatermarkFilter bool
	Shards          int
}

// TransformUsecase はAPIの生データを PriceRow に平坦化し、シャードに分割します。
type TransformUsecase struct {
	watermark WatermarkReader
	opts      TransformOptions
}

// NewTransformUsecase は新しい TransformUsecase を作成します。
func NewTransformUsecase(watermark WatermarkReader, opts TransformOptions) *TransformUsecase {
	return &TransformUsecase{watermark: watermark, opts: opts}
}

// Transform reads the watermark and flattens series into a dataset.
// It returns a nil dataset when there is nothing to load.
func (tu *TransformUsecase) Transform(ctx context.Context, series []entity.TickerSeries) (*entity.PriceDataset, entity.Watermark, error) {
	wm, err := tu.watermark.MaxDate(ctx)
	if err != nil {
		return nil, entity.Watermark{}, fmt.Errorf("read watermark: %w", err)
	}
	slog.Info("watermark read", "max_date", wm.Date, "valid", wm.Valid, "filter", tu.opts.WatermarkFilter)

	if len(series) == 0 {
		slog.Warn("no data to transform")
		return nil, wm, nil
	}

	filter := entity.Watermark{}
	if tu.opts.WatermarkFilter {
		filter = wm
	}

	rows, err := Flatten(series, filter)
	if err != nil {
		return nil, wm, err
	}
	if len(rows) == 0 {
		slog.Warn("no rows after transform", "tickers", len(series))
		return nil, wm, nil
	}

	ds := entity.NewPriceDataset(rows, tu.opts.Shards)
	slog.Info("transform finished", "rows", ds.Len(), "shards", len(ds.Shards))
	return ds, wm, nil
}

// Flatten turns each (ticker, date) record admitted by wm into one PriceRow.
// Tickers keep their input order and dates are ascending within a ticker.
func Flatten(series []entity.TickerSeries, wm entity.Watermark) ([]entity.PriceRow, error) {
	var rows []entity.PriceRow
	for _, ts := range series {
		dates := make([]string, 0, len(ts.Series))
		for d := range ts.Series {
			if wm.Admits(d) {
				dates = append(dates, d)
			}
		}
		slices.Sort(dates)

		for _, d := range dates {
			r, err := toPriceRow(ts.Ticker, d, ts.Series[d])
			if err != nil {
				return nil, err
			}
			rows = append(rows, r)
		}
	}
	return rows, nil
}

func toPriceRow(ticker, date string, fields map[string]string) (entity.PriceRow, error) {
	r := entity.PriceRow{Ticker: ticker, Date: date}
	targets := []struct {
		key string
		dst *float64
	}{
		{entity.FieldOpen, &r.Open},
		{entity.FieldHigh, &r.High},
		{entity.FieldLow, &r.Low},
		{entity.FieldClose, &r.Close},
		{entity.FieldVolume, &r.Volume},
	}
	for _, tg := range targets {
		v, err := parseField(fields, tg.key)
		if err != nil {
			return entity.PriceRow{}, fmt.Errorf("%s %s: %w", ticker, date, err)
		}
		*tg.dst = v
	}
	return r, nil
}

// parseField returns 0 for an absent key.
func parseField(fields map[string]string, key string) (float64, error) {
	s, ok := fields[key]
	if !ok {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("field %q: %w", key, err)
	}
	return v, nil
}
