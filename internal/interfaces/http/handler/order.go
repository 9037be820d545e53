package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/salesrecon/backend/internal/domain/order"
	"github.com/salesrecon/backend/internal/interfaces/http/dto"
)

// OrderRepositories is the read side the order endpoints need
type OrderRepositories interface {
	Canonical() order.CanonicalOrderRepository
	Curated() order.CuratedOrderRepository
	Quarantine() order.QuarantineRepository
}

// OrderHandler serves the silver, gold and quarantine tables
type OrderHandler struct {
	BaseHandler
	repos  OrderRepositories
	paging PageConfig
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(repos OrderRepositories, paging PageConfig) *OrderHandler {
	if paging.DefaultSize < 1 {
		paging = DefaultPageConfig()
	}
	return &OrderHandler{repos: repos, paging: paging}
}

// ListCanonical pages through canonical orders by order id
// GET /orders/canonical?page=&page_size=
func (h *OrderHandler) ListCanonical(c *gin.Context) {
	req, ok := h.bindList(c, h.paging)
	if !ok {
		return
	}
	rows, total, err := h.repos.Canonical().FindPage(c.Request.Context(), req.Offset(), req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.ToCanonicalOrderResponses(rows), total, req.Page, req.PageSize)
}

// GetCanonical returns one canonical order
// GET /orders/canonical/:order_id
func (h *OrderHandler) GetCanonical(c *gin.Context) {
	var req dto.OrderIDRequest
	if err := c.ShouldBindUri(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	row, err := h.repos.Canonical().FindByID(c.Request.Context(), req.OrderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToCanonicalOrderResponse(*row))
}

// ListCurated pages through curated orders by order id
// GET /orders/curated?page=&page_size=
func (h *OrderHandler) ListCurated(c *gin.Context) {
	req, ok := h.bindList(c, h.paging)
	if !ok {
		return
	}
	rows, total, err := h.repos.Curated().FindPage(c.Request.Context(), req.Offset(), req.PageSize)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, dto.ToCuratedOrderResponses(rows), total, req.Page, req.PageSize)
}

// ListQuarantine returns the quarantine of the latest run
// GET /orders/quarantine
func (h *OrderHandler) ListQuarantine(c *gin.Context) {
	rows, err := h.repos.Quarantine().FindAll(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToQuarantineResponses(rows))
}
