package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewPriceDataset_RoundRobin(t *testing.T) {
	t.Parallel()

	rows := make([]PriceRow, 10)
	for i := range rows {
		rows[i] = PriceRow{Ticker: "AAPL", Close: float64(i)}
	}

	ds := NewPriceDataset(rows, 4)

	assert.Equal(t, 10, ds.Len())
	assert.Len(t, ds.Shards, 4)
	sizes := []int{len(ds.Shards[0]), len(ds.Shards[1]), len(ds.Shards[2]), len(ds.Shards[3])}
	assert.Equal(t, []int{3, 3, 2, 2}, sizes)

	total := 0
	for _, s := range ds.Shards {
		total += len(s)
	}
	assert.Equal(t, len(rows), total)
}

func TestNewPriceDataset_MinimumOneShard(t *testing.T) {
	t.Parallel()

	ds := NewPriceDataset([]PriceRow{{Ticker: "IBM"}}, 0)
	assert.Len(t, ds.Shards, 1)
	assert.Len(t, ds.Shards[0], 1)
}

func TestPriceDataset_LenNil(t *testing.T) {
	t.Parallel()

	var ds *PriceDataset
	assert.Equal(t, 0, ds.Len())
}

func TestWatermark_Admits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		w    Watermark
		date string
		want bool
	}{
		{"invalid watermark admits all", Watermark{}, "2020-01-01", true},
		{"later date admitted", Watermark{Date: "2024-01-02", Valid: true}, "2024-01-03", true},
		{"same date rejected", Watermark{Date: "2024-01-02", Valid: true}, "2024-01-02", false},
		{"earlier date rejected", Watermark{Date: "2024-01-02", Valid: true}, "2023-12-29", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.w.Admits(tt.date))
		})
	}
}
