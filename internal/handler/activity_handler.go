package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"timelog/internal/service"
)

type ActivityHandler struct {
	activityService *service.ActivityService
}

type activityRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func NewActivityHandler(activityService *service.ActivityService) *ActivityHandler {
	return &ActivityHandler{activityService: activityService}
}

func (h *ActivityHandler) List(c *gin.Context) {
	activities, apiErr := h.activityService.List(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activities": activities})
}

func (h *ActivityHandler) Create(c *gin.Context) {
	var req activityRequest
	if !bindJSON(c, &req, false) {
		return
	}

	activity, apiErr := h.activityService.Create(c.Request.Context(), service.ActivityInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"activity": activity})
}

func (h *ActivityHandler) Get(c *gin.Context) {
	activity, apiErr := h.activityService.Get(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (h *ActivityHandler) Update(c *gin.Context) {
	var req activityRequest
	if !bindJSON(c, &req, false) {
		return
	}

	activity, apiErr := h.activityService.Update(c.Request.Context(), c.Param("id"), service.ActivityInput{
		Name:  req.Name,
		Color: req.Color,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"activity": activity})
}

func (h *ActivityHandler) Delete(c *gin.Context) {
	if apiErr := h.activityService.Delete(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}
