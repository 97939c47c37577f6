package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/expofest/engage_backend/internal/engage"
	"github.com/expofest/engage_backend/internal/middleware"
)

type ScanController struct {
	Engage *engage.Service
	Log    *zap.Logger
}

type scanRequest struct {
	QRToken string `json:"qr_token" binding:"required"`
}

// ScanStudent is the gate toggle: one endpoint, the response's action field
// says whether the scan checked the student in or out.
func (sc *ScanController) ScanStudent(c *gin.Context) {
	actor := middleware.CurrentUser(c)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qr_token is required", "kind": engage.KindMissingToken})
		return
	}

	res, err := sc.Engage.ScanStudent(actor, req.QRToken)
	if err != nil {
		sc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"action": res.Action,
		"student": gin.H{
			"user_id":    res.Student.UserID,
			"full_name":  res.Student.FullName,
			"department": res.Student.Department,
		},
		"attendance": sessionJSON(res.Session),
		"timestamp":  res.Timestamp,
	})
}

func (sc *ScanController) ScanStall(c *gin.Context) {
	student := middleware.CurrentUser(c)

	var req scanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "qr_token is required", "kind": engage.KindMissingToken})
		return
	}

	res, err := sc.Engage.ScanStall(student, req.QRToken)
	if err != nil {
		sc.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stall": gin.H{
			"id":         res.Stall.ID,
			"event_id":   res.Stall.EventID,
			"name":       res.Stall.Name,
			"department": res.Stall.Department,
			"code":       res.Stall.Code,
		},
		"can_feedback": res.CanFeedback,
		"can_vote":     res.CanVote,
	})
}

// respondError maps engagement rejections to their HTTP status and
// machine-readable kind; anything else is an infrastructure failure.
func (sc *ScanController) respondError(c *gin.Context, err error) {
	var e *engage.Error
	if errors.As(err, &e) {
		body := gin.H{"error": e.Message, "kind": e.Kind}
		for k, v := range e.Fields {
			body[k] = v
		}
		c.JSON(e.Status, body)
		return
	}
	sc.Log.Error("scan failed", zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
