// Package handler はpricesフィーチャーのHTTPハンドラーを提供します。
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"stock_etl/internal/feature/prices/domain/entity"
	"stock_etl/internal/feature/prices/transport/http/dto"
)

// PricesUsecase は株価参照のユースケースインターフェースです。
// Goの慣例に従い、インターフェースは利用者（handler）側で定義します。
type PricesUsecase interface {
	GetPrices(ctx context.Context, ticker string, limit int) ([]entity.PriceRow, error)
	GetWatermark(ctx context.Context) (entity.Watermark, error)
}

// PricesHandler は株価データのHTTPリクエストを処理します。
type PricesHandler struct {
	uc PricesUsecase
}

// NewPricesHandler は指定されたusecaseでPricesHandlerの新しいインスタンスを生成します。
func NewPricesHandler(uc PricesUsecase) *PricesHandler {
	return &PricesHandler{uc: uc}
}

// GetPrices は銘柄コードを受け取り、保存済みの日足を新しい順にJSONで返します。
//
// エンドポイント例:
// GET /prices/:ticker?limit=100
func (h *PricesHandler) GetPrices(c *gin.Context) {
	ticker := strings.ToUpper(strings.TrimSpace(c.Param("ticker")))
	if ticker == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Error: "ticker is required"})
		return
	}
	// 不正な値は0になり、usecase側でデフォルト値に補正される
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := h.uc.GetPrices(c.Request.Context(), ticker, limit)
	if err != nil {
		slog.Error("failed to read prices", "ticker", ticker, "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to read prices"})
		return
	}

	out := make([]dto.PriceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.PriceResponse{
			Company: r.Ticker,
			Date:    r.Date,
			Open:    r.Open,
			High:    r.High,
			Low:     r.Low,
			Close:   r.Close,
			Volume:  r.Volume,
		})
	}
	c.JSON(http.StatusOK, out)
}

// GetWatermark はテーブルの MAX(date) を返します。
//
// GET /watermark
func (h *PricesHandler) GetWatermark(c *gin.Context) {
	wm, err := h.uc.GetWatermark(c.Request.Context())
	if err != nil {
		slog.Error("failed to read watermark", "error", err)
		c.JSON(http.StatusInternalServerError, dto.ErrorResponse{Error: "failed to read watermark"})
		return
	}

	var res dto.WatermarkResponse
	if wm.Valid {
		res.MaxDate = &wm.Date
	}
	c.JSON(http.StatusOK, res)
}
