package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

const historyLimit = 100

// chat handles POST /chat. An empty session ID starts a new session.
func (s *Server) chat(c *gin.Context) {
	if s.ports.Chat == nil {
		abortWithError(c, errServiceUnavailable)
		return
	}
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	reply, err := s.ports.Chat.Ask(c.Request.Context(), req.SessionID, req.Message)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, ChatResponse{
		SessionID: reply.SessionID,
		Answer:    reply.Answer,
		Sources:   toSearchHits(reply.Sources),
	})
}

func (s *Server) chatHistory(c *gin.Context) {
	if s.ports.Chat == nil {
		abortWithError(c, errServiceUnavailable)
		return
	}
	msgs, err := s.ports.Chat.History(c.Request.Context(), c.Param("session"), historyLimit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	out := make([]ChatMessageResponse, len(msgs))
	for i, m := range msgs {
		out[i] = ChatMessageResponse{Role: string(m.Role), Content: m.Content, CreatedAt: m.CreatedAt}
	}
	c.JSON(http.StatusOK, gin.H{"session_id": c.Param("session"), "messages": out})
}
