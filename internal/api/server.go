// Package api exposes the approval webhook and operator endpoints.
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"draftbot/internal/domain"
	"draftbot/internal/notify"
)

// DraftController is the slice of the lifecycle service the HTTP surface
// needs.
type DraftController interface {
	CreateDailyDraft(ctx context.Context) (*domain.Draft, error)
	IngestWeeklyMLS(ctx context.Context) (*domain.Draft, error)
	Approve(ctx context.Context, draftID int64) (*domain.Draft, error)
	Reject(ctx context.Context, draftID int64) (*domain.Draft, error)
	Queued(ctx context.Context, limit int) ([]domain.Draft, error)
}

type Server struct {
	controller    DraftController
	approverPhone string
	logger        *slog.Logger
	engine        *gin.Engine
}

func NewServer(controller DraftController, approverPhone string, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		controller:    controller,
		approverPhone: approverPhone,
		logger:        logger,
		engine:        gin.New(),
	}
	s.engine.Use(gin.Recovery())
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/health", s.health)
	s.engine.POST("/twilio/inbound", s.twilioInbound)

	s.engine.GET("/drafts", s.listQueued)
	s.engine.POST("/drafts/:id/approve", s.approve)
	s.engine.POST("/drafts/:id/reject", s.reject)

	s.engine.POST("/run/daily", s.runDaily)
	s.engine.POST("/run/weekly", s.runWeekly)
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// twilioInbound answers every SMS with TwiML. Command errors become reply
// text, not HTTP errors; Twilio only cares about a 200 with valid XML.
func (s *Server) twilioInbound(c *gin.Context) {
	from := c.PostForm("From")
	body := c.PostForm("Body")

	if s.approverPhone != "" && from != s.approverPhone {
		s.logger.Warn("inbound sms from unknown number", "from", from)
		twiml(c, "This number is not authorized.")
		return
	}

	cmd := notify.ParseCommand(body)
	switch cmd.Action {
	case notify.ActionApprove:
		draft, err := s.controller.Approve(c.Request.Context(), cmd.DraftID)
		twiml(c, approvalReply(cmd.DraftID, draft, err))
	case notify.ActionReject:
		_, err := s.controller.Reject(c.Request.Context(), cmd.DraftID)
		twiml(c, rejectionReply(cmd.DraftID, err))
	default:
		twiml(c, "Reply A<id> to approve or R<id> to reject. Example: A123")
	}
}

func approvalReply(id int64, draft *domain.Draft, err error) string {
	switch {
	case errors.Is(err, domain.ErrDraftNotFound):
		return fmt.Sprintf("Draft #%d not found.", id)
	case errors.Is(err, domain.ErrTerminalState):
		return fmt.Sprintf("Draft #%d was already rejected.", id)
	case err != nil:
		return fmt.Sprintf("⚠️ Draft #%d approved but posting failed. It will stay approved; try again shortly.", id)
	default:
		return fmt.Sprintf("✅ Posted: %s", draft.Headline)
	}
}

func rejectionReply(id int64, err error) string {
	switch {
	case errors.Is(err, domain.ErrDraftNotFound):
		return fmt.Sprintf("Draft #%d not found.", id)
	case errors.Is(err, domain.ErrTerminalState):
		return fmt.Sprintf("Draft #%d was already posted.", id)
	case err != nil:
		return fmt.Sprintf("⚠️ Could not reject draft #%d. Try again.", id)
	default:
		return fmt.Sprintf("🗑️ Rejected draft #%d.", id)
	}
}

func twiml(c *gin.Context, message string) {
	c.Header("Content-Type", "text/xml")
	c.String(http.StatusOK, "<?xml version=\"1.0\" encoding=\"UTF-8\"?><Response><Message>%s</Message></Response>", message)
}

func (s *Server) listQueued(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	drafts, err := s.controller.Queued(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"drafts": drafts})
}

func (s *Server) approve(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return
	}

	draft, err := s.controller.Approve(c.Request.Context(), id)
	if err != nil {
		s.writeLifecycleError(c, id, err, draft)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) reject(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid draft id"})
		return
	}

	draft, err := s.controller.Reject(c.Request.Context(), id)
	if err != nil {
		s.writeLifecycleError(c, id, err, nil)
		return
	}
	c.JSON(http.StatusOK, draft)
}

func (s *Server) writeLifecycleError(c *gin.Context, id int64, err error, draft *domain.Draft) {
	switch {
	case errors.Is(err, domain.ErrDraftNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("draft %d not found", id)})
	case errors.Is(err, domain.ErrTerminalState):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		s.logger.Error("lifecycle operation failed", "draft_id", id, "error", err)
		resp := gin.H{"error": err.Error()}
		if draft != nil {
			resp["draft"] = draft
		}
		c.JSON(http.StatusBadGateway, resp)
	}
}

func (s *Server) runDaily(c *gin.Context) {
	draft, err := s.controller.CreateDailyDraft(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if draft == nil {
		c.JSON(http.StatusOK, gin.H{"created": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": true, "draft": draft})
}

func (s *Server) runWeekly(c *gin.Context) {
	draft, err := s.controller.IngestWeeklyMLS(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if draft == nil {
		c.JSON(http.StatusOK, gin.H{"created": false})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"created": true, "draft": draft})
}
