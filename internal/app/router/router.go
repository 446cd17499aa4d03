// Package router wires the read API routes.
package router

import (
	"log/slog"

	"github.com/gin-gonic/gin"

	priceshandler "stock_etl/internal/feature/prices/transport/handler"
	"stock_etl/internal/platform/http/handler"
	jwtmw "stock_etl/internal/platform/jwt"
)

// NewRouter builds the gin engine. When jwtSecret is empty the data routes
// are served without authentication.
func NewRouter(health *handler.HealthHandler, prices *priceshandler.PricesHandler, jwtSecret string) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	// 認証不要
	// 導通確認用
	r.GET("/healthz", health.Health)
	r.HEAD("/healthz", health.Health)

	data := r.Group("/")
	if jwtSecret != "" {
		// リクエストヘッダーに JWT が必要になる
		data.Use(jwtmw.AuthRequired(jwtSecret))
	} else {
		slog.Warn("JWT_SECRET is not set; price routes are unauthenticated")
	}
	{
		data.GET("/watermark", prices.GetWatermark)
		data.GET("/prices/:ticker", prices.GetPrices)
	}

	return r
}
