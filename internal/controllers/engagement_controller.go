package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/engage"
	"github.com/expofest/engage_backend/internal/middleware"
	"github.com/expofest/engage_backend/internal/models"
)

// EngagementController fronts the feedback and voting surface for students.
// Vote creation goes through the engagement gate; feedback submission is
// plain plumbing with the unique-triple constraint as its backstop.
type EngagementController struct {
	DB     *gorm.DB
	Engage *engage.Service
	Log    *zap.Logger
}

type feedbackRequest struct {
	StallID uint   `json:"stall_id" binding:"required"`
	EventID uint   `json:"event_id" binding:"required"`
	Rating  int    `json:"rating" binding:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

func (ec *EngagementController) CreateFeedback(c *gin.Context) {
	student := middleware.CurrentUser(c)

	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var stall models.Stall
	if err := ec.DB.First(&stall, req.StallID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "stall not found", "kind": engage.KindStallNotFound})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !stall.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "stall is not active", "kind": engage.KindStallInactive})
		return
	}
	if stall.EventID != req.EventID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "stall does not belong to this event"})
		return
	}

	fb := models.Feedback{
		StudentID: student.ID,
		StallID:   req.StallID,
		EventID:   req.EventID,
		Rating:    req.Rating,
		Comment:   req.Comment,
	}
	if err := ec.DB.Create(&fb).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "feedback already submitted for this stall", "kind": engage.KindFeedbackExists})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       fb.ID,
		"stall_id": fb.StallID,
		"event_id": fb.EventID,
		"rating":   fb.Rating,
	})
}

type voteRequest struct {
	StallID uint `json:"stall_id" binding:"required"`
	EventID uint `json:"event_id" binding:"required"`
}

func (ec *EngagementController) CastVote(c *gin.Context) {
	student := middleware.CurrentUser(c)

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	vote, err := ec.Engage.CastVote(student, req.StallID, req.EventID)
	if err != nil {
		ec.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"id":       vote.ID,
		"stall_id": vote.StallID,
		"event_id": vote.EventID,
	})
}

func (ec *EngagementController) GetVotingEligibility(c *gin.Context) {
	student := middleware.CurrentUser(c)

	eventID, err := strconv.Atoi(c.Param("event_id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}

	eligibility, err := ec.Engage.GetVotingEligibility(student, uint(eventID))
	if err != nil {
		ec.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, eligibility)
}

func (ec *EngagementController) respondError(c *gin.Context, err error) {
	var e *engage.Error
	if errors.As(err, &e) {
		body := gin.H{"error": e.Message, "kind": e.Kind}
		for k, v := range e.Fields {
			body[k] = v
		}
		c.JSON(e.Status, body)
		return
	}
	ec.Log.Error("engagement request failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
