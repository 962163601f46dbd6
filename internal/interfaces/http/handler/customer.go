package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	customerapp "github.com/inkthread/storefront/internal/application/customer"
	"github.com/inkthread/storefront/internal/domain/shared"
)

// CustomerService is the admin customer use case set. *customerapp.CustomerService implements it.
type CustomerService interface {
	GetByID(ctx context.Context, id uuid.UUID) (*customerapp.CustomerResponse, error)
	List(ctx context.Context, filter customerapp.CustomerListFilter) (*shared.Paginated[customerapp.CustomerResponse], error)
}

// CustomerHandler handles admin customer endpoints
type CustomerHandler struct {
	BaseHandler
	customerService CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// List godoc
//
//	@ID				adminListCustomers
//	@Summary		List customers
//	@Description	Customers with order counts and total spend
//	@Tags			admin-customers
//	@Produce		json
//	@Param			filter	query	customerapp.CustomerListFilter	false	"Filter"
//	@Success		200	{object}	dto.Response{data=[]customerapp.CustomerResponse,meta=dto.Meta}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/customers [get]
func (h *CustomerHandler) List(c *gin.Context) {
	var filter customerapp.CustomerListFilter
	if !h.bindQuery(c, &filter) {
		return
	}

	page, err := h.customerService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// GetByID godoc
//
//	@ID				adminGetCustomer
//	@Summary		Get customer
//	@Description	Customer by ID
//	@Tags			admin-customers
//	@Produce		json
//	@Param			id	path	string	true	"Customer ID"	format(uuid)
//	@Success		200	{object}	dto.Response{data=customerapp.CustomerResponse}
//	@Failure		400	{object}	dto.Response
//	@Failure		401	{object}	dto.Response
//	@Failure		403	{object}	dto.Response
//	@Failure		404	{object}	dto.Response
//	@Security		BearerAuth
//	@Router			/api/admin/customers/{id} [get]
func (h *CustomerHandler) GetByID(c *gin.Context) {
	id, ok := h.parseUUIDParam(c, "id")
	if !ok {
		return
	}

	customer, err := h.customerService.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	h.Success(c, customer)
}
