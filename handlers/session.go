package handlers

import (
	"net/http"
	"organizer/session"

	"github.com/gin-gonic/gin"
)

type SessionStartRequest struct {
	Name string `json:"name"`
}

type SessionResponse struct {
	Error string `json:"error"`
	*session.State
}

func (h *Handlers) SessionStatus(c *gin.Context) {
	state, err := h.session.Current(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(state))
}

// SessionStart accepts an empty body, the session is then named "Session N"
func (h *Handlers) SessionStart(c *gin.Context) {
	r := SessionStartRequest{}
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&r); err != nil {
			c.JSON(http.StatusBadRequest, Response{err.Error()})
			return
		}
	}
	state, err := h.session.Start(c, r.Name)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(state))
}

func (h *Handlers) SessionStop(c *gin.Context) {
	state, err := h.session.Stop(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(state))
}

func (h *Handlers) SessionConsolidate(c *gin.Context) {
	result, err := h.consolidator.Run(c)
	if err != nil {
		abortWith(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// sessionResponse reports {"active": false} when there is no session
func sessionResponse(state *session.State) SessionResponse {
	if state == nil {
		state = &session.State{}
	}
	return SessionResponse{State: state}
}
