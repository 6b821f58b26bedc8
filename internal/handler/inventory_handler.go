package handler

import (
	"net/http"
	"strconv"

	"app/internal/config"
	"app/internal/middleware"
	"app/internal/usecase"

	"github.com/labstack/echo/v4"
)

// InventoryCreateRequest は在庫レコード作成の入力です。
type InventoryCreateRequest struct {
	ProductID  int64 `json:"product_id"`
	LocationID int64 `json:"location_id"`
	Quantity   int64 `json:"quantity"`
}

// StockAdjustRequest は在庫補正の入力です。
type StockAdjustRequest struct {
	Adjustment int64  `json:"adjustment"`
	Reason     string `json:"reason"`
}

// StockQuantityRequest は予約・確定・解放の入力です。
type StockQuantityRequest struct {
	Quantity int64 `json:"quantity"`
}

// /inventory と /admin/inventory をまとめる
type InventoryHandler struct {
	uc *usecase.InventoryUsecase
}

// DI
func NewInventoryHandler(uc *usecase.InventoryUsecase) *InventoryHandler {
	return &InventoryHandler{uc: uc}
}

// 認証付きの在庫ルートと、admin専用ルートを登録
func (h *InventoryHandler) RegisterRoutes(e *echo.Echo, cfg config.Config) {
	inv := e.Group("/inventory")
	inv.Use(middleware.AuthJWT(cfg))

	inv.GET("", h.list)
	inv.GET("/:id", h.get)
	inv.POST("/:id/reserve", h.reserve)
	inv.POST("/:id/commit", h.commit)
	inv.POST("/:id/release", h.release)

	admin := e.Group("/admin/inventory")
	admin.Use(middleware.AuthJWT(cfg))
	admin.Use(middleware.AdminRoleGuard())

	admin.POST("", h.create)
	admin.POST("/:id/adjust", h.adjust)
}

// GET /inventory?product_id= または ?location_id=
func (h *InventoryHandler) list(c echo.Context) error {
	ctx := c.Request().Context()

	if v := c.QueryParam("product_id"); v != "" {
		productID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid product_id"})
		}
		outs, err := h.uc.ListByProduct(ctx, productID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, outs)
	}

	if v := c.QueryParam("location_id"); v != "" {
		locationID, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid location_id"})
		}
		outs, err := h.uc.ListByLocation(ctx, locationID)
		if err != nil {
			return writeError(c, err)
		}
		return c.JSON(http.StatusOK, outs)
	}

	return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "product_id or location_id required"})
}

func (h *InventoryHandler) get(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	out, err := h.uc.GetInventory(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) reserve(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ReserveStock(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) commit(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.CommitReservation(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) release(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockQuantityRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.ReleaseReservation(c.Request().Context(), id, req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) create(c echo.Context) error {
	var req InventoryCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.CreateInventory(c.Request().Context(), adminID, usecase.CreateInventoryInput{
		ProductID:       req.ProductID,
		LocationID:      req.LocationID,
		InitialQuantity: req.Quantity,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *InventoryHandler) adjust(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid id"})
	}

	var req StockAdjustRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdjustStock(c.Request().Context(), adminID, id, req.Adjustment, req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
