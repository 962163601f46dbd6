package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	orderapp "github.com/inkthread/storefront/internal/application/order"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// OrderService is the shop order use case set. *orderapp.OrderService implements it.
type OrderService interface {
	Checkout(ctx context.Context, req orderapp.CheckoutRequest) (*orderapp.CheckoutResponse, error)
	Lookup(ctx context.Context, req orderapp.LookupRequest) (*orderapp.OrderStatusResponse, error)
	List(ctx context.Context, filter orderapp.OrderListFilter) (*shared.Paginated[orderapp.OrderResponse], error)
	GetByID(ctx context.Context, id uuid.UUID) (*orderapp.OrderResponse, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, req orderapp.UpdateStatusRequest) (*orderapp.OrderResponse, error)
	Refund(ctx context.Context, id uuid.UUID, req orderapp.RefundRequest) (*orderapp.OrderResponse, error)
	PackingSlip(ctx context.Context, id uuid.UUID) ([]byte, string, error)
}

// OrderHandler handles checkout, tracking and admin order endpoints
type OrderHandler struct {
	BaseHandler
	orderService OrderService
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orderService OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// Checkout godoc
//
//	@ID				checkout
//	@Summary		Checkout
//	@Description	Prices the order server-side, creates it pending payment and returns the payment intent client secret
//	@Tags			orders
//	@Accept			json
//	@Produce		json
//	@Param			request	body	orderapp.CheckoutRequest	true	"Cart, contact and shipping address"
//	@Success		201	{object}	dto.Response{data=orderapp.CheckoutResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Failure		503	{object}	dto.Response
//	@Router			/api/orders [post]
func (h *OrderHandler) Checkout(c *gin.Context) {
	var req orderapp.CheckoutRequest
	if !h.bindJSON(c, &req) {
		return
	}

	resp, err := h.orderService.Checkout(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Created(c, resp)
}

// Lookup godoc
//
//	@ID				lookupOrder
//	@Summary		Look up order
//	@Description	Public status lookup. The email must match the order.
//	@Tags			orders
//	@Produce		json
//	@Param			order_number	query	string	true	"Order number"
//	@Param			email	query	string	true	"Customer email"
//	@Success		200	{object}	dto.Response{data=orderapp.OrderStatusResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Router			/api/orders/lookup [get]
func (h *OrderHandler) Lookup(c *gin.Context) {
	var req orderapp.LookupRequest
	if !h.bindQuery(c, &req) {
		return
	}

	status, err := h.orderService.Lookup(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, status)
}

// List godoc
//
//	@ID				adminListOrders
//	@Summary		List orders
//	@Description	Orders filtered by status, campaign, customer and date range
//	@Tags			admin-orders
//	@Produce		json
//	@Param			filter	query	orderapp.OrderListFilter	false	"Filter"
//	@Success		200	{object}	dto.Response{data=[]orderapp.OrderResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/orders [get]
func (h *OrderHandler) List(c *gin.Context) {
	var filter orderapp.OrderListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.orderService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
//
//	@ID				adminGetOrder
//	@Summary		Get order
//	@Description	Order with items and print locations
//	@Tags			admin-orders
//	@Produce		json
//	@Param			id	path	string	true	"Order ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=orderapp.OrderResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/orders/{id} [get]
func (h *OrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	order, err := h.orderService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// UpdateStatus godoc
//
//	@ID				updateOrderStatus
//	@Summary		Update order status
//	@Description	Moves an order along pending_payment, paid, in_production, shipped, delivered
//	@Tags			admin-orders
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Order ID"	format(uuid)
//	@Param			request	body	orderapp.UpdateStatusRequest	true	"Target status and tracking"
//	@Success		200	{object}	dto.Response{data=orderapp.OrderResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/orders/{id}/status [put]
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.UpdateStatusRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.UpdateStatus(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// Refund godoc
//
//	@ID				refundOrder
//	@Summary		Refund order
//	@Description	Refunds the given amount, or what remains when amount is omitted
//	@Tags			admin-orders
//	@Accept			json
//	@Produce		json
//	@Param			id	path	string	true	"Order ID"	format(uuid)
//	@Param			request	body	orderapp.RefundRequest	true	"Amount and reason"
//	@Success		200	{object}	dto.Response{data=orderapp.OrderResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Failure		409	{object}	dto.Response
//	@Failure		502	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/orders/{id}/refund [post]
func (h *OrderHandler) Refund(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req orderapp.RefundRequest
	if !h.bindJSON(c, &req) {
		return
	}

	order, err := h.orderService.Refund(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, order)
}

// PackingSlip godoc
//
//	@ID				orderPackingSlip
//	@Summary		Packing slip
//	@Description	PDF packing slip for the order
//	@Tags			admin-orders
//	@Produce		application/pdf
//	@Param			id	path	string	true	"Order ID"	format(uuid)
//	@Success		200	{file}	file
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/orders/{id}/packing-slip [get]
func (h *OrderHandler) PackingSlip(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	pdf, filename, err := h.orderService.PackingSlip(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.PDF(c, filename, pdf)
}
