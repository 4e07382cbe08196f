package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"

	agentpkg "github.com/chronos-hq/chronos-agent/agent"
	"github.com/chronos-hq/chronos-agent/config"
	googlesvc "github.com/chronos-hq/chronos-agent/google"
	"github.com/chronos-hq/chronos-agent/index"
	"github.com/chronos-hq/chronos-agent/status"
)

type server struct {
	cfg                *config.Config
	logger             *zap.Logger
	calendar           googlesvc.CalendarService
	scheduler          *agentpkg.SchedulingAgent
	mutationClassifier *agentpkg.IntentClassifier
	executor           *agentpkg.MutationExecutor
	answerer           *agentpkg.Answerer
	semanticIndex      *index.SemanticIndex
	statusStore        status.Store
}

type scheduleRequest struct {
	SessionID   string   `json:"session_id"`
	Query       string   `json:"query" binding:"required"`
	Preferences []string `json:"preferences"`
}

type searchRequest struct {
	Query string `json:"query" binding:"required"`
}

type eventActionRequest struct {
	Query string `json:"query" binding:"required"`
}

func (s *server) registerRoutes(router *gin.Engine) {
	router.GET("/health", s.handleHealth)
	router.POST("/schedule", s.handleSchedule)
	router.GET("/schedule/status", s.handleScheduleStatus)
	router.POST("/search", s.handleSearch)
	router.POST("/reindex", s.handleReindex)
	router.POST("/events", s.handleCreateEvent)
	router.DELETE("/events/:id", s.handleDeleteEvent)
	router.POST("/events/:id/action", s.handleEventAction)
}

func (s *server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleSchedule starts a background synthesis task and returns the key
// the caller polls on /schedule/status. There is no cancellation: once
// started the task runs to completion or failure.
func (s *server) handleSchedule(c *gin.Context) {
	var req scheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	key := status.Key(sessionID, req.Query)

	if err := s.statusStore.Advance(c.Request.Context(), key, status.StageReceived, "request received"); err != nil {
		c.JSON(http.StatusConflict, gin.H{"status": "error", "message": err.Error()})
		return
	}

	go s.runSchedule(key, req.Query, req.Preferences)

	c.JSON(http.StatusAccepted, gin.H{
		"status":     "accepted",
		"session_id": sessionID,
		"key":        key,
	})
}

func (s *server) runSchedule(key, query string, preferences []string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.App.RequestTimeout)
	defer cancel()

	progress := func(phase, message string) {
		if err := s.statusStore.Advance(ctx, key, status.Stage(phase), message); err != nil {
			s.logger.Warn("failed to advance status",
				zap.String("key", key),
				zap.String("phase", phase),
				zap.Error(err))
		}
	}

	result := s.scheduler.SynthesizeWithProgress(ctx, query, preferences, progress)

	switch result.Status {
	case agentpkg.StatusOK:
		if result.Intent == agentpkg.IntentCreate {
			mutation := s.executor.Create(result.Event)
			if mutation.Status == agentpkg.StatusError {
				_ = s.statusStore.Fail(ctx, key, mutation.Message)
				return
			}
			_ = s.statusStore.Complete(ctx, key, gin.H{"synthesis": result, "mutation": mutation})
			return
		}
		// EDIT synthesis: return the proposed event for the caller to
		// confirm against a selected event
		_ = s.statusStore.Complete(ctx, key, result)
	case agentpkg.StatusDelete:
		_ = s.statusStore.Complete(ctx, key, result)
	default:
		_ = s.statusStore.Fail(ctx, key, result.Message)
	}
}

func (s *server) handleScheduleStatus(c *gin.Context) {
	sessionID := c.Query("session_id")
	query := c.Query("query")
	if sessionID == "" || query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "session_id and query are required"})
		return
	}

	processingStatus, ok, err := s.statusStore.Get(c.Request.Context(), status.Key(sessionID, query))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"status": "error", "message": "no request in flight for this session and query"})
		return
	}
	c.JSON(http.StatusOK, processingStatus)
}

func (s *server) handleSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}

	answer, err := s.answerer.Answer(c.Request.Context(), req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "answer": answer})
}

func (s *server) handleReindex(c *gin.Context) {
	if err := s.reindexNow(c.Request.Context()); err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleCreateEvent inserts a caller-supplied (e.g., user-confirmed)
// event directly
func (s *server) handleCreateEvent(c *gin.Context) {
	var event calendar.Event
	if err := c.ShouldBindJSON(&event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	if event.Summary == "" || event.Start == nil || event.End == nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": "summary, start, and end are required"})
		return
	}

	result := s.executor.Create(&event)
	if result.Status == agentpkg.StatusError {
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (s *server) handleDeleteEvent(c *gin.Context) {
	result := s.executor.Delete(c.Param("id"))
	if result.Status == agentpkg.StatusError {
		c.JSON(http.StatusBadGateway, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// handleEventAction disambiguates a free-text request against an
// already-selected event via the 3-way classifier and dispatches the
// resulting mutation
func (s *server) handleEventAction(c *gin.Context) {
	var req eventActionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"status": "error", "message": err.Error()})
		return
	}
	eventID := c.Param("id")

	intent, err := s.mutationClassifier.ClassifyOrUnknown(c.Request.Context(), req.Query)
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"status": "error", "message": err.Error()})
		return
	}

	switch intent {
	case agentpkg.IntentDelete:
		result := s.executor.Delete(eventID)
		if result.Status == agentpkg.StatusError {
			c.JSON(http.StatusBadGateway, result)
			return
		}
		c.JSON(http.StatusOK, result)
	case agentpkg.IntentEdit:
		result := s.executor.ResolveAndEdit(c.Request.Context(), eventID, req.Query)
		if result.Status == agentpkg.StatusError {
			c.JSON(http.StatusUnprocessableEntity, result)
			return
		}
		c.JSON(http.StatusOK, result)
	default:
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"status":  "error",
			"message": "could not determine an edit or delete intent from the request",
		})
	}
}

// reindexNow rebuilds the semantic index from the calendar's events over
// the reindex horizon
func (s *server) reindexNow(ctx context.Context) error {
	now := time.Now()
	events, err := s.calendar.ListEvents(
		s.cfg.Google.CalendarID,
		now,
		now.AddDate(0, 0, s.cfg.Index.ReindexHorizonDays),
		0,
	)
	if err != nil {
		return err
	}
	return s.semanticIndex.Reindex(ctx, events)
}
