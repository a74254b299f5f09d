package server

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/bucamari/pos-backend/internal/menu"
	"github.com/bucamari/pos-backend/internal/tables"
	"github.com/bucamari/pos-backend/internal/tablesource"
	"github.com/bucamari/pos-backend/internal/ticket"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const heartbeatInterval = 25 * time.Second

var (
	errMissingTablesService = errors.New("tables service dependency required")
	errMissingDispatcher    = errors.New("dispatcher dependency required")
)

// Dependencies carries everything the HTTP surface needs.
type Dependencies struct {
	TablesService *tables.Service
	Dispatcher    *TableChangeDispatcher
	Restaurant    ticket.Restaurant
	Menu          []menu.Product
	Clock         func() time.Time
	Logger        *zap.Logger
}

// NewHTTPHandler builds the gin router for the POS API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TablesService == nil {
		return nil, errMissingTablesService
	}
	if deps.Dispatcher == nil {
		return nil, errMissingDispatcher
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		service:    deps.TablesService,
		dispatcher: deps.Dispatcher,
		restaurant: deps.Restaurant,
		menu:       deps.Menu,
		clock:      clock,
		logger:     logger,
	}

	router.GET("/healthz", handler.handleHealth)
	router.GET("/api/menu", handler.handleMenu)
	router.GET("/api/tables", handler.handleListTables)
	router.POST("/api/tables", handler.handleCreateTable)
	router.POST("/api/tables/load", handler.handleLoadTables)
	router.POST("/api/tables/:id/select", handler.handleSelectTable)
	router.POST("/api/tables/:id/orders", handler.handleAddLineItem)
	router.POST("/api/tables/:id/clear", handler.handleClearTable)
	router.GET("/api/tables/:id/ticket", handler.handleTicket)
	router.GET("/api/events", handler.handleEvents)

	return router, nil
}

type httpHandler struct {
	service    *tables.Service
	dispatcher *TableChangeDispatcher
	restaurant ticket.Restaurant
	menu       []menu.Product
	clock      func() time.Time
	logger     *zap.Logger
}

func (h *httpHandler) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *httpHandler) handleMenu(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"products": h.menu})
}

type tableListPayload struct {
	Tables   []tables.Table `json:"tables"`
	Selected string         `json:"selected,omitempty"`
	Rejected []string       `json:"rejected,omitempty"`
}

func (h *httpHandler) handleListTables(c *gin.Context) {
	list := h.service.Filter(c.Query("q"))
	selected, _ := h.service.Selected()
	c.JSON(http.StatusOK, tableListPayload{Tables: list, Selected: selected})
}

func (h *httpHandler) handleLoadTables(c *gin.Context) {
	result, err := h.service.Load(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	selected, _ := h.service.Selected()
	c.JSON(http.StatusOK, tableListPayload{
		Tables:   result.Tables,
		Selected: selected,
		Rejected: result.Rejected,
	})
}

func (h *httpHandler) handleCreateTable(c *gin.Context) {
	table, err := h.service.Create(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, table)
}

func (h *httpHandler) handleSelectTable(c *gin.Context) {
	id, err := tables.NewTableID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_table_id"})
		return
	}
	if err := h.service.Select(id); err != nil {
		h.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type lineItemPayload struct {
	Product  string  `json:"product"`
	Price    float64 `json:"price"`
	Quantity int     `json:"quantity"`
	Notes    string  `json:"notes"`
}

func (h *httpHandler) handleAddLineItem(c *gin.Context) {
	id, err := tables.NewTableID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_table_id"})
		return
	}

	var request lineItemPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	table, err := h.service.AddLineItem(c.Request.Context(), id, tables.LineItem{
		Product:   request.Product,
		UnitPrice: request.Price,
		Quantity:  request.Quantity,
		Notes:     request.Notes,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

type clearPayload struct {
	Confirm bool `json:"confirm"`
}

func (h *httpHandler) handleClearTable(c *gin.Context) {
	id, err := tables.NewTableID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_table_id"})
		return
	}

	var request clearPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	table, err := h.service.Clear(c.Request.Context(), id, request.Confirm)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, table)
}

func (h *httpHandler) handleTicket(c *gin.Context) {
	id, err := tables.NewTableID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_table_id"})
		return
	}

	entries, _, err := h.service.Receipt(id)
	if err != nil {
		h.respondError(c, err)
		return
	}

	document := ticket.Format(entries, h.restaurant, id.String(), h.clock())
	c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(document))
}

func (h *httpHandler) handleEvents(c *gin.Context) {
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	stream, cleanup := h.dispatcher.Subscribe(c.Request.Context())
	defer cleanup()

	c.Stream(func(w io.Writer) bool {
		select {
		case change, ok := <-stream:
			if !ok {
				return false
			}
			c.SSEvent(EventTableChanged, change)
			return true
		case <-c.Request.Context().Done():
			return false
		case <-time.After(heartbeatInterval):
			c.SSEvent("heartbeat", h.clock().UTC().Unix())
			return true
		}
	})
}

func (h *httpHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, tables.ErrTableNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "table_not_found"})
	case errors.Is(err, tables.ErrConfirmationRequired):
		c.JSON(http.StatusConflict, gin.H{"error": "confirmation_required"})
	case errors.Is(err, tables.ErrEmptyOrder):
		c.JSON(http.StatusConflict, gin.H{"error": "empty_order"})
	case errors.Is(err, tables.ErrInvalidTable), errors.Is(err, tables.ErrInvalidTableID):
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
	case errors.Is(err, tablesource.ErrNetwork):
		h.logger.Warn("table source unreachable", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{
			"error":   "network_error",
			"message": "connection error, retry",
		})
	default:
		h.logger.Error("request failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
