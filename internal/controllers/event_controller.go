package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/engage"
	"github.com/expofest/engage_backend/internal/models"
)

type EventController struct {
	DB     *gorm.DB
	Engage *engage.Service
	Log    *zap.Logger
}

type createEventRequest struct {
	Name               string    `json:"name" binding:"required"`
	Description        string    `json:"description"`
	Location           string    `json:"location"`
	StartDate          time.Time `json:"start_date" binding:"required"`
	EndDate            time.Time `json:"end_date" binding:"required"`
	AllowVoting        *bool     `json:"allow_voting"`
	MaxVotesPerStudent int       `json:"max_votes_per_student"`
	Active             *bool     `json:"active"`
}

func (evc *EventController) CreateEvent(c *gin.Context) {
	var req createEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.EndDate.After(req.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be after start_date"})
		return
	}

	event := models.Event{
		Name:               req.Name,
		Description:        req.Description,
		Location:           req.Location,
		StartDate:          req.StartDate,
		EndDate:            req.EndDate,
		Active:             true,
		AllowVoting:        true,
		MaxVotesPerStudent: req.MaxVotesPerStudent,
	}
	if req.Active != nil {
		event.Active = *req.Active
	}
	if req.AllowVoting != nil {
		event.AllowVoting = *req.AllowVoting
	}
	if event.MaxVotesPerStudent <= 0 {
		event.MaxVotesPerStudent = 3
	}

	if err := evc.DB.Create(&event).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, eventJSON(event))
}

func (evc *EventController) ListEvents(c *gin.Context) {
	base := evc.DB.Model(&models.Event{}).Order("start_date DESC")
	switch strings.TrimSpace(strings.ToLower(c.Query("active"))) {
	case "true", "1":
		base = base.Where("active = ?", true)
	case "false", "0":
		base = base.Where("active = ?", false)
	}
	var events []models.Event
	if err := base.Find(&events).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(events))
	for _, e := range events {
		out = append(out, eventJSON(e))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (evc *EventController) GetEvent(c *gin.Context) {
	event, ok := evc.findEvent(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, eventJSON(*event))
}

type updateEventRequest struct {
	Name               *string    `json:"name"`
	Description        *string    `json:"description"`
	Location           *string    `json:"location"`
	StartDate          *time.Time `json:"start_date"`
	EndDate            *time.Time `json:"end_date"`
	AllowVoting        *bool      `json:"allow_voting"`
	MaxVotesPerStudent *int       `json:"max_votes_per_student"`
	Active             *bool      `json:"active"`
}

func (evc *EventController) UpdateEvent(c *gin.Context) {
	event, ok := evc.findEvent(c)
	if !ok {
		return
	}

	var req updateEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wasActive := event.Active
	if req.Name != nil {
		event.Name = *req.Name
	}
	if req.Description != nil {
		event.Description = *req.Description
	}
	if req.Location != nil {
		event.Location = *req.Location
	}
	if req.StartDate != nil {
		event.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		event.EndDate = *req.EndDate
	}
	if req.AllowVoting != nil {
		event.AllowVoting = *req.AllowVoting
	}
	if req.MaxVotesPerStudent != nil && *req.MaxVotesPerStudent > 0 {
		event.MaxVotesPerStudent = *req.MaxVotesPerStudent
	}
	if req.Active != nil {
		event.Active = *req.Active
	}
	if !event.EndDate.After(event.StartDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end_date must be after start_date"})
		return
	}

	if err := evc.DB.Save(event).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// Deactivating an event is an end-of-event transition: sweep any
	// sessions still open so their time is nullified, not silently credited.
	if wasActive && !event.Active {
		if _, err := evc.Engage.NullifyOpenSessions(event.ID); err != nil {
			evc.Log.Error("nullification sweep failed", zap.Uint("event_id", event.ID), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "event updated but sweep failed"})
			return
		}
	}
	c.JSON(http.StatusOK, eventJSON(*event))
}

// EndEvent closes the event: marks it inactive and runs the nullification
// sweep over still-open sessions in the same flow.
func (evc *EventController) EndEvent(c *gin.Context) {
	event, ok := evc.findEvent(c)
	if !ok {
		return
	}

	if event.Active {
		event.Active = false
		if time.Now().UTC().Before(event.EndDate) {
			event.EndDate = time.Now().UTC()
		}
		if err := evc.DB.Save(event).Error; err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}

	swept, err := evc.Engage.NullifyOpenSessions(event.ID)
	if err != nil {
		evc.Log.Error("nullification sweep failed", zap.Uint("event_id", event.ID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "sweep failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "event ended",
		"nullified_count": swept,
		"event":           eventJSON(*event),
	})
}

func (evc *EventController) DeleteEvent(c *gin.Context) {
	event, ok := evc.findEvent(c)
	if !ok {
		return
	}
	if err := evc.DB.Delete(event).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

func (evc *EventController) findEvent(c *gin.Context) (*models.Event, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var event models.Event
	if err := evc.DB.First(&event, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return &event, true
}
