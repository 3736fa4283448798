package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	apperrors "timelog/internal/errors"
	"timelog/internal/service"
	"timelog/internal/validate"
)

type SessionHandler struct {
	sessionService *service.SessionService
}

type manualEntryRequest struct {
	ActivityID string `json:"activityId"`
	StartTime  string `json:"startTime"`
	EndTime    string `json:"endTime"`
}

type startTimerRequest struct {
	ActivityID string `json:"activityId"`
	StartTime  string `json:"startTime"`
}

type stopTimerRequest struct {
	EndTime string `json:"endTime"`
}

func NewSessionHandler(sessionService *service.SessionService) *SessionHandler {
	return &SessionHandler{sessionService: sessionService}
}

func (h *SessionHandler) CreateManual(c *gin.Context) {
	var req manualEntryRequest
	if !bindJSON(c, &req, false) {
		return
	}

	session, apiErr := h.sessionService.CreateManualEntry(c.Request.Context(), service.ManualEntryInput{
		ActivityID: req.ActivityID,
		StartTime:  req.StartTime,
		EndTime:    req.EndTime,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *SessionHandler) Start(c *gin.Context) {
	var req startTimerRequest
	if !bindJSON(c, &req, false) {
		return
	}

	startTime, apiErr := optionalInstant("startTime", req.StartTime)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	session, apiErr := h.sessionService.StartTimer(c.Request.Context(), service.StartTimerInput{
		ActivityID: req.ActivityID,
		StartTime:  startTime,
	})
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"session": session})
}

func (h *SessionHandler) Current(c *gin.Context) {
	session, apiErr := h.sessionService.CurrentTimer(c.Request.Context())
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Stop(c *gin.Context) {
	var req stopTimerRequest
	if !bindJSON(c, &req, true) {
		return
	}

	endTime, apiErr := optionalInstant("endTime", req.EndTime)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}

	session, apiErr := h.sessionService.StopTimer(c.Request.Context(), c.Param("id"), endTime)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Pause(c *gin.Context) {
	session, apiErr := h.sessionService.PauseTimer(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Resume(c *gin.Context) {
	session, apiErr := h.sessionService.ResumeTimer(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Heartbeat(c *gin.Context) {
	session, apiErr := h.sessionService.Heartbeat(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"session": session})
}

func (h *SessionHandler) Recover(c *gin.Context) {
	view, apiErr := h.sessionService.RecoverSession(c.Request.Context(), c.Param("id"))
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *SessionHandler) Discard(c *gin.Context) {
	if apiErr := h.sessionService.DiscardTimer(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) Delete(c *gin.Context) {
	if apiErr := h.sessionService.DeleteSession(c.Request.Context(), c.Param("id")); apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) List(c *gin.Context) {
	from, err := validate.ParseInstant("from", c.Query("from"))
	if err != nil {
		writeError(c, queryError("from", err))
		return
	}
	to, err := validate.ParseInstant("to", c.Query("to"))
	if err != nil {
		writeError(c, queryError("to", err))
		return
	}

	sessions, apiErr := h.sessionService.ListSessionsInRange(c.Request.Context(), from, to)
	if apiErr != nil {
		writeError(c, apiErr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"sessions": sessions})
}

func optionalInstant(field, raw string) (*time.Time, *apperrors.APIError) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	t, err := validate.ParseInstant(field, raw)
	if err != nil {
		return nil, queryError(field, err)
	}
	return &t, nil
}

func queryError(field string, err error) *apperrors.APIError {
	var verr *validate.Error
	if errors.As(err, &verr) {
		return apperrors.Validation(verr.Code, verr.Message, field)
	}
	return apperrors.Validation("invalid_date", err.Error(), field)
}
