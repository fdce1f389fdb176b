package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/havano/pos-backend/internal/application/pos"
	"github.com/havano/pos-backend/internal/domain/partner"
	"github.com/havano/pos-backend/internal/interfaces/http/dto"
)

// CustomerHandler handles customer endpoints
type CustomerHandler struct {
	BaseHandler
	customerService *pos.CustomerService
}

// NewCustomerHandler creates a new CustomerHandler
func NewCustomerHandler(customerService *pos.CustomerService) *CustomerHandler {
	return &CustomerHandler{customerService: customerService}
}

// CreateCustomerRequest registers a new billing party
type CreateCustomerRequest struct {
	Name   string `json:"name" binding:"required,min=1,max=140"`
	Mobile string `json:"mobile" binding:"max=20"`
}

// CustomerResponse is the API shape of a customer
type CustomerResponse struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Mobile string    `json:"mobile,omitempty"`
	Group  string    `json:"group"`
}

func toCustomerResponse(customer *partner.Customer) CustomerResponse {
	return CustomerResponse{
		ID:     customer.ID,
		Name:   customer.Name,
		Mobile: customer.Mobile,
		Group:  customer.Group,
	}
}

// Create registers a new customer
func (h *CustomerHandler) Create(c *gin.Context) {
	var req CreateCustomerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	customer, err := h.customerService.Create(c.Request.Context(), req.Name, req.Mobile)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, toCustomerResponse(customer))
}

// List returns customers ordered by name
func (h *CustomerHandler) List(c *gin.Context) {
	req := dto.DefaultListRequest()
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Limit == 0 {
		req.Limit = 20
	}

	customers, err := h.customerService.List(c.Request.Context(), req.Limit, req.Offset)
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses := make([]CustomerResponse, 0, len(customers))
	for i := range customers {
		responses = append(responses, toCustomerResponse(&customers[i]))
	}
	h.Success(c, responses)
}

// RegisterRoutes registers customer routes
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	customers := rg.Group("/pos/customers")
	{
		customers.GET("", h.List)
		customers.POST("", h.Create)
	}
}
