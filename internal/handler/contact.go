package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/crm-service/internal/metrics"
	"github.com/maxviazov/crm-service/internal/service"
	"github.com/maxviazov/crm-service/pkg/response"
)

type ContactHandler struct {
	svc service.ContactService
}

func NewContactHandler(svc service.ContactService) *ContactHandler {
	return &ContactHandler{svc: svc}
}

func (h *ContactHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/contacts")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
	}
}

type contactRequest struct {
	Name     string  `json:"name"`
	Email    *string `json:"email"`
	Phone    *string `json:"phone"`
	Company  *string `json:"company"`
	Position *string `json:"position"`
	Status   string  `json:"status"`
	Notes    *string `json:"notes"`
}

func (r contactRequest) input() service.ContactInput {
	return service.ContactInput{
		Name:     r.Name,
		Email:    r.Email,
		Phone:    r.Phone,
		Company:  r.Company,
		Position: r.Position,
		Status:   r.Status,
		Notes:    r.Notes,
	}
}

func (h *ContactHandler) create(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, badBody)
		return
	}
	out, err := h.svc.CreateContact(c.Request.Context(), caller(c), req.input())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *ContactHandler) getByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.GetContact(c.Request.Context(), caller(c), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *ContactHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, badBody)
		return
	}
	out, err := h.svc.UpdateContact(c.Request.Context(), caller(c), id, req.input())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *ContactHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.DeleteContact(c.Request.Context(), caller(c), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ContactHandler) list(c *gin.Context) {
	res, err := h.svc.SearchContacts(c.Request.Context(), caller(c), searchConfig(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	metrics.RecordSearch("contact", res.Total)
	response.WriteData(c, http.StatusOK, res)
}
