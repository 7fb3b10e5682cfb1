package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/maxviazov/crm-service/internal/metrics"
	"github.com/maxviazov/crm-service/internal/service"
	"github.com/maxviazov/crm-service/pkg/response"
)

type TaskHandler struct {
	svc service.TaskService
}

func NewTaskHandler(svc service.TaskService) *TaskHandler { return &TaskHandler{svc: svc} }

func (h *TaskHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/tasks")
	{
		g.POST("", h.create)
		g.GET("", h.list)
		g.GET("/:id", h.getByID)
		g.PUT("/:id", h.update)
		g.DELETE("/:id", h.delete)
		g.POST("/:id/complete", h.complete)
	}
}

type taskRequest struct {
	ContactID   *int64     `json:"contact_id"`
	DealID      *int64     `json:"deal_id"`
	Title       string     `json:"title"`
	Description *string    `json:"description"`
	Priority    string     `json:"priority"`
	Status      string     `json:"status"`
	DueDate     *time.Time `json:"due_date"`
}

func (r taskRequest) input() service.TaskInput {
	return service.TaskInput{
		ContactID:   r.ContactID,
		DealID:      r.DealID,
		Title:       r.Title,
		Description: r.Description,
		Priority:    r.Priority,
		Status:      r.Status,
		DueDate:     r.DueDate,
	}
}

func (h *TaskHandler) create(c *gin.Context) {
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, badBody)
		return
	}
	out, err := h.svc.CreateTask(c.Request.Context(), caller(c), req.input())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *TaskHandler) getByID(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.GetTask(c.Request.Context(), caller(c), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *TaskHandler) update(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	var req taskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteError(c, badBody)
		return
	}
	out, err := h.svc.UpdateTask(c.Request.Context(), caller(c), id, req.input())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *TaskHandler) delete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if err := h.svc.DeleteTask(c.Request.Context(), caller(c), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *TaskHandler) complete(c *gin.Context) {
	id, err := pathID(c)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	out, err := h.svc.CompleteTask(c.Request.Context(), caller(c), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, out)
}

func (h *TaskHandler) list(c *gin.Context) {
	res, err := h.svc.SearchTasks(c.Request.Context(), caller(c), searchConfig(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	metrics.RecordSearch("task", res.Total)
	response.WriteData(c, http.StatusOK, res)
}
