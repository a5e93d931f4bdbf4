package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/librarycentral/server/internal/models"
	"github.com/librarycentral/server/internal/service"
	"go.uber.org/zap"
)

// Handler holds the dependencies for the HTTP handlers
type Handler struct {
	svc    service.Service
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(svc service.Service, logger *zap.Logger) *Handler {
	return &Handler{
		svc:    svc,
		logger: logger,
	}
}

// SetupRoutes registers all API routes on the router
func (h *Handler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api")

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.SignUp)
		auth.POST("/login", h.Login)
	}

	authed := api.Group("", AuthMiddleware())
	{
		authed.GET("/sections", h.ListSections)
		authed.GET("/sections/:id", h.GetSection)
		authed.GET("/ebooks", h.ListEbooks)
		authed.GET("/ebooks/:id", h.GetEbook)
	}

	user := api.Group("/user", AuthMiddleware())
	{
		user.GET("/dashboard", h.UserDashboard)
		user.GET("/issued-books", h.IssuedBooks)
		user.POST("/requests", h.RequestEbook)
		user.POST("/feedback", h.SubmitFeedback)
	}

	librarian := api.Group("/librarian", AuthMiddleware(), LibrarianMiddleware())
	{
		librarian.GET("/dashboard", h.LibrarianDashboard)
		librarian.DELETE("/user/:id", h.DeleteUser)
		librarian.POST("/sections", h.CreateSection)
		librarian.PUT("/sections/:id", h.UpdateSection)
		librarian.DELETE("/sections/:id", h.DeleteSection)
		librarian.POST("/ebooks", h.CreateEbook)
		librarian.PUT("/ebooks/:id", h.UpdateEbook)
		librarian.DELETE("/ebooks/:id", h.DeleteEbook)
		librarian.POST("/ebooks/:id/revoke", h.RevokeEbook)
		librarian.GET("/requests", h.ListRequests)
		librarian.PUT("/requests/:id", h.UpdateRequestStatus)
	}
}

// respondError maps a service error to an HTTP status and the {msg}
// error body. Anything outside the service taxonomy is logged and
// surfaced as a generic 500.
func (h *Handler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation), errors.Is(err, service.ErrConflict):
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: err.Error()})
	case errors.Is(err, service.ErrForbidden):
		c.JSON(http.StatusForbidden, models.ErrorResponse{Msg: err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, models.ErrorResponse{Msg: err.Error()})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err))
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Msg: "Server error"})
	}
}

// Authentication handlers
func (h *Handler) SignUp(c *gin.Context) {
	var req models.SignUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Please enter all fields"})
		return
	}

	resp, err := h.svc.SignUp(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c *gin.Context) {
	var req models.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Please enter all fields"})
		return
	}

	resp, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		// Bad credentials are a 401 here, not a 403
		if errors.Is(err, service.ErrForbidden) {
			c.JSON(http.StatusUnauthorized, models.ErrorResponse{Msg: err.Error()})
			return
		}
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// Section handlers
func (h *Handler) CreateSection(c *gin.Context) {
	var req models.CreateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Please enter all fields"})
		return
	}

	section, err := h.svc.CreateSection(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, section)
}

func (h *Handler) UpdateSection(c *gin.Context) {
	var req models.UpdateSectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Invalid request body"})
		return
	}

	section, err := h.svc.UpdateSection(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, section)
}

func (h *Handler) DeleteSection(c *gin.Context) {
	if err := h.svc.DeleteSection(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Msg: "Section removed"})
}

func (h *Handler) GetSection(c *gin.Context) {
	section, err := h.svc.GetSection(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, section)
}

func (h *Handler) ListSections(c *gin.Context) {
	sections, err := h.svc.ListSections(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, sections)
}

// Ebook handlers
func (h *Handler) CreateEbook(c *gin.Context) {
	var req models.CreateEbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Please enter all fields"})
		return
	}

	ebook, err := h.svc.CreateEbook(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ebook)
}

func (h *Handler) UpdateEbook(c *gin.Context) {
	var req models.UpdateEbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Invalid request body"})
		return
	}

	ebook, err := h.svc.UpdateEbook(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ebook)
}

func (h *Handler) DeleteEbook(c *gin.Context) {
	if err := h.svc.DeleteEbook(c.Request.Context(), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Msg: "Ebook removed"})
}

func (h *Handler) RevokeEbook(c *gin.Context) {
	ebook, err := h.svc.RevokeEbook(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ebook)
}

func (h *Handler) GetEbook(c *gin.Context) {
	ebook, err := h.svc.GetEbook(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ebook)
}

func (h *Handler) ListEbooks(c *gin.Context) {
	ebooks, err := h.svc.ListEbooks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, ebooks)
}

// Request lifecycle handlers
func (h *Handler) ListRequests(c *gin.Context) {
	requests, err := h.svc.ListRequests(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, requests)
}

func (h *Handler) UpdateRequestStatus(c *gin.Context) {
	var req models.UpdateRequestStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Invalid status"})
		return
	}

	resp, err := h.svc.UpdateRequestStatus(c.Request.Context(), c.Param("id"), req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// User management handlers
func (h *Handler) DeleteUser(c *gin.Context) {
	callerID := c.GetString("userId")

	if err := h.svc.DeleteUser(c.Request.Context(), callerID, c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.MessageResponse{Msg: "User deleted successfully"})
}

// Dashboard handlers
func (h *Handler) LibrarianDashboard(c *gin.Context) {
	stats, err := h.svc.LibrarianDashboard(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

func (h *Handler) UserDashboard(c *gin.Context) {
	userID := c.GetString("userId")

	dashboard, err := h.svc.UserDashboard(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

func (h *Handler) IssuedBooks(c *gin.Context) {
	userID := c.GetString("userId")

	books, err := h.svc.ListIssuedBooks(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, books)
}

// User action handlers
func (h *Handler) RequestEbook(c *gin.Context) {
	var req models.RequestEbookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Please enter all fields"})
		return
	}

	userID := c.GetString("userId")

	request, err := h.svc.RequestEbook(c.Request.Context(), userID, req.EbookID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, request)
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var req models.SubmitFeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Msg: "Please enter all fields"})
		return
	}

	userID := c.GetString("userId")

	feedback, err := h.svc.SubmitFeedback(c.Request.Context(), userID, req)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, feedback)
}
