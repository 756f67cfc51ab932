// Package api serves the JSON endpoints under /api/.
package api

import (
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/devswami/portfolio/internal/contact"
	"github.com/devswami/portfolio/internal/middleware"
	"github.com/devswami/portfolio/internal/projects"
	"github.com/devswami/portfolio/internal/resume"
)

// StatusHeader mirrors the HTTP status of every API response.
const StatusHeader = "X-Status-Code"

// Response messages.
const (
	MsgMissingFields  = "Missing required fields: name, email, and message are required"
	MsgInvalidEmail   = "Invalid email format"
	MsgSubmitted      = "Contact form submitted successfully. Email has been sent."
	MsgSendFailed     = "Failed to send email. Please try again later."
	MsgResumeFailed   = "Unable to download resume"
	MsgProjectMissing = "Project not found"
	MsgNotFound       = "Not found"
	MsgNotAllowed     = "Method not allowed"
)

// Response is the envelope of every JSON answer; StatusCode mirrors the HTTP
// status.
type Response struct {
	Message    string `json:"message"`
	StatusCode int    `json:"statusCode"`
}

// Options wires the handler's collaborators. Nil members disable the
// matching routes' success paths.
type Options struct {
	Contact        contact.Submitter
	Resume         resume.Source
	ResumeFilename string
	Catalogue      *projects.Catalogue
	Logger         *slog.Logger
}

// Handler holds the endpoint dependencies.
type Handler struct {
	contact        contact.Submitter
	resume         resume.Source
	resumeFilename string
	catalogue      *projects.Catalogue
	logger         *slog.Logger
}

// New builds the gin engine for /api/.
func New(opts Options) *gin.Engine {
	h := &Handler{
		contact:        opts.Contact,
		resume:         opts.Resume,
		resumeFilename: opts.ResumeFilename,
		catalogue:      opts.Catalogue,
		logger:         opts.Logger,
	}
	if h.resumeFilename == "" {
		h.resumeFilename = resume.DefaultFilename
	}
	if h.logger == nil {
		h.logger = slog.Default()
	}

	engine := gin.New()
	engine.HandleMethodNotAllowed = true
	engine.NoRoute(func(c *gin.Context) { respond(c, http.StatusNotFound, MsgNotFound) })
	engine.NoMethod(func(c *gin.Context) { respond(c, http.StatusMethodNotAllowed, MsgNotAllowed) })

	group := engine.Group("/api")
	group.POST("/contact", h.SubmitContact)
	group.GET("/resume", h.DownloadResume)
	group.GET("/projects", h.ListProjects)
	group.GET("/projects/:id", h.GetProject)

	return engine
}

func respond(c *gin.Context, status int, message string) {
	c.Header("Cache-Control", "no-store, max-age=0")
	c.Header(StatusHeader, strconv.Itoa(status))
	c.JSON(status, Response{Message: message, StatusCode: status})
}

// SubmitContact validates the JSON body and relays it by email.
func (h *Handler) SubmitContact(c *gin.Context) {
	ctx := c.Request.Context()
	reqID := middleware.RequestIDFromContext(ctx)

	var sub contact.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		h.logger.DebugContext(ctx, "undecodable contact body", "error", err, "request_id", reqID)
		sub = contact.Submission{}
	}

	res := contact.ValidateSubmission(sub)
	if res.MissingRequired() {
		respond(c, http.StatusBadRequest, MsgMissingFields)
		return
	}
	if !res.Valid {
		respond(c, http.StatusBadRequest, MsgInvalidEmail)
		return
	}

	if h.contact == nil {
		h.logger.ErrorContext(ctx, "contact submission failed", "error", "no contact service", "request_id", reqID)
		respond(c, http.StatusInternalServerError, MsgSendFailed)
		return
	}

	if err := h.contact.Submit(ctx, sub.Trimmed()); err != nil {
		var vErr *contact.ValidationError
		if errors.As(err, &vErr) {
			msg := MsgInvalidEmail
			if vErr.Missing() {
				msg = MsgMissingFields
			}
			respond(c, http.StatusBadRequest, msg)
			return
		}
		h.logger.ErrorContext(ctx, "contact submission failed", "error", err, "cause", errors.Unwrap(err), "request_id", reqID)
		respond(c, http.StatusInternalServerError, MsgSendFailed)
		return
	}

	respond(c, http.StatusOK, MsgSubmitted)
}

// DownloadResume streams the résumé as an attachment.
func (h *Handler) DownloadResume(c *gin.Context) {
	ctx := c.Request.Context()
	if h.resume == nil {
		respond(c, http.StatusInternalServerError, MsgResumeFailed)
		return
	}

	f, err := h.resume.Open(ctx)
	if err != nil {
		h.logger.ErrorContext(ctx, "open resume", "error", err, "request_id", middleware.RequestIDFromContext(ctx))
		respond(c, http.StatusInternalServerError, MsgResumeFailed)
		return
	}
	defer f.Body.Close()

	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": h.resumeFilename})
	c.DataFromReader(http.StatusOK, f.Size, f.ContentType, f.Body, map[string]string{
		"Content-Disposition": disposition,
		StatusHeader:          strconv.Itoa(http.StatusOK),
	})
}

// ListProjects returns the catalogue in display order.
func (h *Handler) ListProjects(c *gin.Context) {
	list := h.catalogue.All()
	if list == nil {
		list = []projects.Project{}
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, gin.H{"projects": list})
}

// GetProject returns one project by id.
func (h *Handler) GetProject(c *gin.Context) {
	p, ok := h.catalogue.Get(c.Param("id"))
	if !ok {
		respond(c, http.StatusNotFound, MsgProjectMissing)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.JSON(http.StatusOK, p)
}
