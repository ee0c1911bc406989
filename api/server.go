package api

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/Chative-Order-Agent/agent/contract"
)

// TurnHandler is the orchestrator as seen by the HTTP layer.
type TurnHandler interface {
	HandleMessage(ctx context.Context, sessionID string, text string) (string, error)
}

type ChatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"session_id"`
}

type ChatResponse struct {
	Response  string `json:"response"`
	SessionID string `json:"session_id"`
}

type Option func(*Server)

// WithMetrics mounts h at GET /metrics.
func WithMetrics(h http.Handler) Option {
	return func(s *Server) {
		s.metrics = h
	}
}

func WithAllowedOrigins(origins []string) Option {
	return func(s *Server) {
		var cleaned []string
		for _, o := range origins {
			if o = strings.TrimSpace(o); o != "" {
				cleaned = append(cleaned, o)
			}
		}
		if len(cleaned) > 0 {
			s.origins = cleaned
		}
	}
}

func WithSessionIDs(next func() string) Option {
	return func(s *Server) {
		if next != nil {
			s.newSessionID = next
		}
	}
}

type Server struct {
	router       *gin.Engine
	handler      TurnHandler
	metrics      http.Handler
	origins      []string
	newSessionID func() string
}

func New(handler TurnHandler, opts ...Option) *Server {
	s := &Server{
		handler:      handler,
		origins:      []string{"*"},
		newSessionID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}

	r := gin.New()
	r.Use(gin.Recovery(), accessLog(), cors(s.origins))
	r.GET("/", s.root)
	r.POST("/chat", s.chat)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}
	s.router = r
	return s
}

func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "active", "message": "Order Agent API is running"})
}

func (s *Server) chat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message field is required"})
		return
	}

	sessionID := strings.TrimSpace(req.SessionID)
	if sessionID == "" {
		sessionID = s.newSessionID()
	}

	reply, err := s.handler.HandleMessage(c.Request.Context(), sessionID, req.Message)
	if err != nil {
		status, msg := errorStatus(err)
		log.Error().Err(err).Str("session_id", sessionID).Int("status", status).Msg("chat turn failed")
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, ChatResponse{Response: reply, SessionID: sessionID})
}

func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, contractx.ErrValidation):
		return http.StatusBadRequest, "Invalid request"
	case errors.Is(err, contractx.ErrTurnTimeout), errors.Is(err, contractx.ErrSessionBusy):
		return http.StatusGatewayTimeout, "The assistant took too long to respond. Please try again."
	default:
		return http.StatusInternalServerError, "Sorry, something went wrong while processing your message."
	}
}

func accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("http request")
	}
}

func cors(origins []string) gin.HandlerFunc {
	allowAll := len(origins) == 1 && origins[0] == "*"
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		switch {
		case allowAll:
			c.Header("Access-Control-Allow-Origin", "*")
		case origin != "":
			if _, ok := allowed[origin]; ok {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		}
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
