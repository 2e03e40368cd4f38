package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"attendance-bot/internal/attendance"
	"attendance-bot/internal/dispatch"
	"attendance-bot/internal/parse"
)

type postEventRequest struct {
	EmployeeID   string     `json:"employee_id" binding:"required"`
	EmployeeName string     `json:"employee_name" binding:"required"`
	Channel      string     `json:"channel" binding:"required"`
	Text         string     `json:"text"`
	Timestamp    *time.Time `json:"timestamp"`
	FromBot      bool       `json:"from_bot"`
}

type postEventResponse struct {
	EventID string            `json:"eventId"`
	Ignored bool              `json:"ignored"`
	Applied bool              `json:"applied"`
	Intent  parse.Intent      `json:"intent"`
	Effect  attendance.Effect `json:"effect,omitempty"`
	Reason  attendance.Reason `json:"reason,omitempty"`
	Phase   *attendance.Phase `json:"phase,omitempty"`
	Reply   string            `json:"reply,omitempty"`
}

// PostEvent handles the POST /api/events request: a chat message relayed by
// a bridge other than the built-in Slack transport.
func (h *Handler) PostEvent(c *gin.Context) {
	var req postEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ev := dispatch.Event{
		EmployeeID:   req.EmployeeID,
		EmployeeName: req.EmployeeName,
		Channel:      req.Channel,
		Text:         req.Text,
		FromBot:      req.FromBot,
	}
	if req.Timestamp != nil {
		ev.Timestamp = req.Timestamp.UTC()
	}

	res, err := h.dispatcher.Submit(c.Request.Context(), ev)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": err.Error()})
		return
	}

	reply, _ := res.Reply(req.EmployeeName, h.confirmSuccess)
	response := postEventResponse{
		EventID: res.EventID,
		Ignored: res.Ignored,
		Reply:   reply,
	}
	if res.Err != nil {
		c.JSON(http.StatusInternalServerError, response)
		return
	}
	if !res.Ignored {
		phase := res.Outcome.Phase
		response.Applied = res.Outcome.Applied
		response.Intent = res.Outcome.Intent
		response.Effect = res.Outcome.Effect
		response.Reason = res.Outcome.Reason
		response.Phase = &phase
	}

	c.JSON(http.StatusOK, response)
}
