package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/crm-service/internal/metrics"
	"github.com/maxviazov/crm-service/internal/service"
	"github.com/maxviazov/crm-service/pkg/response"
)

type DealHandler struct {
	svc service.DealService
}

func NewDealHandler(svc service.DealService) *DealHandler { return &DealHandler{svc: svc} }

func (h *DealHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/deals")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
	}
}

type dealRequest struct {
	ContactID *int64     `json:"contact_id"`
	Title     string     `json:"title"`
	Company   *string    `json:"company"`
	Value     float64    `json:"value"`
	Stage     string     `json:"stage"`
	CloseDate *time.Time `json:"close_date"`
	Notes     *string    `json:"notes"`
}

func (r dealRequest) input() service.DealInput {
	return service.DealInput{
		ContactID: r.ContactID,
		Title:     r.Title,
		Company:   r.Company,
		Value:     r.Value,
		Stage:     r.Stage,
		CloseDate: r.CloseDate,
		Notes:     r.Notes,
	}
}

func (h *DealHandler) create(c *gin.Context) {
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, badBody)
		return
	}
	out, err := h.svc.CreateDeal(c.Request.Context(), caller(c), req.input())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *DealHandler) getByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.GetDeal(c.Request.Context(), caller(c), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *DealHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req dealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, badBody)
		return
	}
	out, err := h.svc.UpdateDeal(c.Request.Context(), caller(c), id, req.input())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *DealHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.DeleteDeal(c.Request.Context(), caller(c), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// list filters by title/company/notes; status matches the deal stage.
func (h *DealHandler) list(c *gin.Context) {
	res, err := h.svc.SearchDeals(c.Request.Context(), caller(c), searchConfig(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	metrics.RecordSearch("deal", res.Total)
	response.WriteData(c, http.StatusOK, res)
}
