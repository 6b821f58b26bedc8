package server

import (
	"app/internal/config"
	"app/internal/handler"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
)

// ルート登録に必要なhandler一式
type Handlers struct {
	Auth         *handler.AuthHandler
	Product      *handler.ProductHandler
	AdminProduct *handler.AdminProductHandler
	Location     *handler.LocationHandler
	Inventory    *handler.InventoryHandler
	AuditLog     *handler.AuditLogHandler
}

// New はechoを組み立ててルートを登録する。
func New(cfg config.Config, h Handlers) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())

	h.Auth.RegisterRoutes(e)
	h.Product.RegisterRoutes(e)
	h.AdminProduct.RegisterRoutes(e, cfg)
	h.Location.RegisterRoutes(e, cfg)
	h.Inventory.RegisterRoutes(e, cfg)
	h.AuditLog.RegisterRoutes(e, cfg)

	return e
}
