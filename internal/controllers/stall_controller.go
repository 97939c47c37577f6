package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
	"github.com/expofest/engage_backend/internal/utils"
)

type StallController struct {
	DB    *gorm.DB
	Codec *qrtoken.Codec
}

type createStallRequest struct {
	EventID     uint   `json:"event_id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
	Department  string `json:"department" binding:"required"`
	Active      *bool  `json:"active"`
}

func (st *StallController) CreateStall(c *gin.Context) {
	var req createStallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event models.Event
	if err := st.DB.First(&event, req.EventID).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}

	code, err := utils.GenerateStallCode(6)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate stall code"})
		return
	}

	stall := models.Stall{
		EventID:     req.EventID,
		Name:        req.Name,
		Description: req.Description,
		Department:  req.Department,
		Code:        code,
		Active:      true,
	}
	if req.Active != nil {
		stall.Active = *req.Active
	}

	if err := st.DB.Create(&stall).Error; err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			c.JSON(http.StatusConflict, gin.H{"error": "stall code collision, retry"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusCreated, stallJSON(stall))
}

func (st *StallController) ListStalls(c *gin.Context) {
	base := st.DB.Model(&models.Stall{}).Order("name ASC")
	if v := strings.TrimSpace(c.Query("event_id")); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
			return
		}
		base = base.Where("event_id = ?", id)
	}
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		base = base.Where("department = ?", dept)
	}
	switch strings.TrimSpace(strings.ToLower(c.Query("active"))) {
	case "true", "1":
		base = base.Where("active = ?", true)
	case "false", "0":
		base = base.Where("active = ?", false)
	}

	var stalls []models.Stall
	if err := base.Find(&stalls).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]gin.H, 0, len(stalls))
	for _, s := range stalls {
		out = append(out, stallJSON(s))
	}
	c.JSON(http.StatusOK, gin.H{"data": out})
}

func (st *StallController) GetStall(c *gin.Context) {
	stall, ok := st.findStall(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, stallJSON(*stall))
}

type updateStallRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Department  *string `json:"department"`
	Active      *bool   `json:"active"`
}

func (st *StallController) UpdateStall(c *gin.Context) {
	stall, ok := st.findStall(c)
	if !ok {
		return
	}

	var req updateStallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Name != nil {
		stall.Name = *req.Name
	}
	if req.Description != nil {
		stall.Description = *req.Description
	}
	if req.Department != nil {
		stall.Department = *req.Department
	}
	if req.Active != nil {
		stall.Active = *req.Active
	}

	if err := st.DB.Save(stall).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, stallJSON(*stall))
}

func (st *StallController) DeleteStall(c *gin.Context) {
	stall, ok := st.findStall(c)
	if !ok {
		return
	}
	if err := st.DB.Delete(stall).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

// StallQR issues the stall's long-lived QR token for printing. Safe to call
// repeatedly; the embedded nonce just makes each print unique.
func (st *StallController) StallQR(c *gin.Context) {
	stall, ok := st.findStall(c)
	if !ok {
		return
	}

	raw, err := st.Codec.Sign(stall.ID, stall.EventID, qrtoken.TypeStall, qrtoken.StallTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign qr token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"qr_token":   raw,
		"stall_id":   stall.ID,
		"event_id":   stall.EventID,
		"code":       stall.Code,
		"expires_in": int(qrtoken.StallTokenTTL.Seconds()),
	})
}

func (st *StallController) findStall(c *gin.Context) (*models.Stall, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return nil, false
	}
	var stall models.Stall
	if err := st.DB.First(&stall, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "stall not found"})
			return nil, false
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return nil, false
	}
	return &stall, true
}
