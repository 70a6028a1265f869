// Package api exposes the room service over HTTP and a chat WebSocket.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"roomservice/internal/apperr"
	"roomservice/internal/logging"
	"roomservice/internal/roomservice"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server holds the HTTP routes of the room service
type Server struct {
	Router  *gin.Engine
	service *roomservice.Service
	logger  *zap.Logger
}

// NewServer creates the API server for service
func NewServer(service *roomservice.Service, logger *zap.Logger) *Server {
	logger = logging.OrNop(logger).Named("api")

	router := gin.New()
	router.Use(requestID(), requestLogger(logger), gin.Recovery())

	s := &Server{
		Router:  router,
		service: service,
		logger:  logger,
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all API endpoints
func (s *Server) setupRoutes() {
	// Health check
	s.Router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "ok",
			"message":  "Room service API is running",
			"sessions": s.service.ActiveSessions(),
		})
	})

	v1 := s.Router.Group("/api/v1")
	{
		// Conversation
		v1.POST("/turns", s.ProcessTurn)
		v1.GET("/sessions/:id", s.GetSession)
		v1.DELETE("/sessions/:id", s.EndSession)
		v1.GET("/chat", s.Chat)
		v1.POST("/classify", s.Classify)

		// Orders
		v1.GET("/orders", s.ListOrders)
		v1.GET("/orders/:id", s.GetOrder)
		v1.GET("/orders/:id/status", s.GetOrderStatus)
		v1.DELETE("/orders/:id", s.CancelOrder)
		v1.POST("/orders/:id/advance", s.AdvanceOrder)
		v1.GET("/kitchen/queue", s.KitchenQueue)

		// Menu and stock
		v1.GET("/menu", s.GetMenu)
		v1.GET("/menu/categories", s.GetCategories)
		v1.GET("/menu/available", s.GetAvailable)
		v1.GET("/menu/items/:name", s.GetItem)
		v1.GET("/inventory", s.GetInventory)
	}
}

type turnRequest struct {
	SessionID  string `json:"session_id"`
	Utterance  string `json:"utterance" binding:"required"`
	RoomNumber int    `json:"room_number"`
}

type classifyRequest struct {
	Text string `json:"text" binding:"required"`
}

// Conversation handlers

func (s *Server) ProcessTurn(c *gin.Context) {
	var req turnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "invalid_input"})
		return
	}

	res, err := s.service.ProcessTurn(c.Request.Context(), req.SessionID, req.Utterance, req.RoomNumber)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (s *Server) GetSession(c *gin.Context) {
	conv, err := s.service.Session(c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, conv)
}

func (s *Server) EndSession(c *gin.Context) {
	if err := s.service.EndSession(c.Param("id")); err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Session ended"})
}

func (s *Server) Classify(c *gin.Context) {
	var req classifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "kind": "invalid_input"})
		return
	}

	res, err := s.service.ClassifyInquiry(c.Request.Context(), req.Text)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Order handlers

func (s *Server) ListOrders(c *gin.Context) {
	room := 0
	if raw := c.Query("room"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "room must be a number", "kind": "invalid_input"})
			return
		}
		room = n
	}

	history, err := s.service.ListOrderHistory(c.Request.Context(), room)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

func (s *Server) GetOrder(c *gin.Context) {
	order, err := s.service.GetOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) GetOrderStatus(c *gin.Context) {
	id := c.Param("id")
	status, err := s.service.GetOrderStatus(c.Request.Context(), id)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "status": status})
}

func (s *Server) CancelOrder(c *gin.Context) {
	order, err := s.service.CancelOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) AdvanceOrder(c *gin.Context) {
	order, err := s.service.AdvanceOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (s *Server) KitchenQueue(c *gin.Context) {
	queue, err := s.service.KitchenQueue(c.Request.Context())
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, queue)
}

// Menu handlers

func (s *Server) GetMenu(c *gin.Context) {
	items, err := s.service.GetMenu(c.Query("category"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

func (s *Server) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Categories())
}

func (s *Server) GetAvailable(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.AvailableItems())
}

func (s *Server) GetItem(c *gin.Context) {
	details, err := s.service.ItemDetails(c.Param("name"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (s *Server) GetInventory(c *gin.Context) {
	c.JSON(http.StatusOK, s.service.Inventory())
}

// fail writes err with the status its kind maps to
func (s *Server) fail(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": err.Error(), "kind": apperr.Kind(err)}

	var conflict *apperr.InventoryConflictError
	if errors.As(err, &conflict) {
		body["available"] = conflict.Available
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString(requestIDKey)),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, body)
}
