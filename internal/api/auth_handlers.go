package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"asteritime/internal/model"
)

type registerRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type loginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (s *Server) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.users.Register(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (s *Server) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}

	user, err := s.users.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		s.respondError(c, err)
		return
	}
	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, loginResponse{Token: token, ExpiresAt: expires, User: user})
}

func (s *Server) logout(c *gin.Context) {
	claims := tokenClaims(c)
	if claims == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
		return
	}

	var ttl time.Duration
	if claims.ExpiresAt != nil {
		ttl = time.Until(claims.ExpiresAt.Time)
	}
	if err := s.revoker.Revoke(c.Request.Context(), claims.ID, ttl); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "logout successful"})
}

type telegramLinkRequest struct {
	ChatID *int64 `json:"chatId"`
}

// errLinkThroughBot is returned when a client tries to set a chat id
// directly; only the chat itself can prove it belongs to the caller.
var errLinkThroughBot = errors.New("chats are linked by sending /link <token> to the bot; only null is accepted here")

// unlinkTelegram detaches the caller's chat. The body must be
// {"chatId": null}.
func (s *Server) unlinkTelegram(c *gin.Context) {
	var req telegramLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.ChatID != nil {
		badRequest(c, errLinkThroughBot)
		return
	}

	user, err := s.users.LinkTelegram(c.Request.Context(), ownerID(c), nil)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
