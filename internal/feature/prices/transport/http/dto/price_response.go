// Package dto defines the JSON shapes of the price read API.
package dto

// PriceResponse は株価データのレスポンスDTOです。
type PriceResponse struct {
	Company string  `json:"company"` // 銘柄
	Date    string  `json:"date"`    // 日付
	Open    float64 `json:"open"`    // 始値
	High    float64 `json:"high"`    // 高値
	Low     float64 `json:"low"`     // 安値
	Close   float64 `json:"close"`   // 終値
	Volume  float64 `json:"volume"`  // 出来高
}

// WatermarkResponse はテーブルに保存済みの最新日付です。テーブルが空の場合 MaxDate は null。
type WatermarkResponse struct {
	MaxDate *string `json:"max_date"`
}

// ErrorResponse はエラーレスポンスDTOです。
type ErrorResponse struct {
	Error string `json:"error"`
}
