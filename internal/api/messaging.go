package api

import (
	"net/http"

	"tourguide/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *handler) listConversations(c *gin.Context) {
	convs, err := h.svc.Messaging.ListConversations(c.Request.Context(), principal(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(convs))
}

func (h *handler) startConversation(c *gin.Context) {
	var in service.StartConversationInput
	if !bindJSON(c, &in) {
		return
	}
	conv, created, err := h.svc.Messaging.StartConversation(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	c.JSON(code, conv)
}

func (h *handler) getConversation(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	conv, err := h.svc.Messaging.GetConversation(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (h *handler) conversationMessages(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	msgs, err := h.svc.Messaging.Messages(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(msgs))
}

func (h *handler) sendMessage(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in struct {
		Content string `json:"content"`
	}
	if !bindJSON(c, &in) {
		return
	}
	msg, err := h.svc.Messaging.SendMessage(c.Request.Context(), principal(c), id, in.Content)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

func (h *handler) markRead(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	n, err := h.svc.Messaging.MarkRead(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"marked_read": n})
}

func (h *handler) listCustomRequests(c *gin.Context) {
	reqs, err := h.svc.Messaging.ListCustomRequests(c.Request.Context(), principal(c), newQuery(c).raw("status"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list(reqs))
}

func (h *handler) createCustomRequest(c *gin.Context) {
	var in service.CustomRequestInput
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.Messaging.CreateCustomRequest(c.Request.Context(), principal(c), in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handler) getCustomRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	r, err := h.svc.Messaging.GetCustomRequest(c.Request.Context(), principal(c), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *handler) respondCustomRequest(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	var in service.CustomRequestResponse
	if !bindJSON(c, &in) {
		return
	}
	r, err := h.svc.Messaging.RespondCustomRequest(c.Request.Context(), principal(c), id, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
