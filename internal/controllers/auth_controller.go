package controllers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/middleware"
	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/qrtoken"
	"github.com/expofest/engage_backend/internal/utils"
)

type AuthController struct {
	DB        *gorm.DB
	JWTSecret string
	ExpiresIn time.Duration
	Codec     *qrtoken.Codec
}

type registerRequest struct {
	FullName   string `json:"full_name" binding:"required"`
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=6"`
	Department string `json:"department"`
	Role       string `json:"role"`   // admin-only endpoint will validate
	Active     *bool  `json:"active"` // optional, defaults to true
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register is mounted admin-only; volunteers and students are provisioned by
// organizers, there is no self-signup.
func (a *AuthController) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	pw, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
		return
	}

	role := req.Role
	if role == "" {
		role = models.RoleStudent
	}
	if !IsValidRole(role) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
		return
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	user := models.User{
		UserID:     uuid.NewString(),
		FullName:   req.FullName,
		Email:      req.Email,
		Password:   pw,
		Role:       role,
		Department: req.Department,
		Active:     active,
	}

	if err := a.DB.Create(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":    "registered",
		"user_id":    user.UserID,
		"email":      user.Email,
		"full_name":  user.FullName,
		"role":       user.Role,
		"department": user.Department,
	})
}

func (a *AuthController) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := a.DB.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	if !user.Active || !utils.CheckPassword(user.Password, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	claims := middleware.Claims{
		UserID: user.UserID,
		Role:   user.Role,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(a.ExpiresIn)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(a.JWTSecret))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(a.ExpiresIn.Seconds()),
		"role":         user.Role,
	})
}

func (a *AuthController) Me(c *gin.Context) {
	user := middleware.CurrentUser(c)
	c.JSON(http.StatusOK, gin.H{
		"user_id":    user.UserID,
		"full_name":  user.FullName,
		"email":      user.Email,
		"role":       user.Role,
		"department": user.Department,
		"active":     user.Active,
	})
}

// StudentQR issues the caller's gate QR token for one event. The token is
// what the badge screen renders; volunteers scan it at the gate.
func (a *AuthController) StudentQR(c *gin.Context) {
	user := middleware.CurrentUser(c)
	if user.Role != models.RoleStudent {
		c.JSON(http.StatusForbidden, gin.H{"error": "only students carry gate qr tokens"})
		return
	}

	eventID, err := strconv.Atoi(c.Param("event_id"))
	if err != nil || eventID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
		return
	}
	var event models.Event
	if err := a.DB.First(&event, eventID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "event not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if !event.Active {
		c.JSON(http.StatusForbidden, gin.H{"error": "event is not active"})
		return
	}

	raw, err := a.Codec.Sign(user.ID, event.ID, qrtoken.TypeStudent, qrtoken.StudentTokenTTL)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign qr token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"qr_token":   raw,
		"event_id":   event.ID,
		"expires_in": int(qrtoken.StudentTokenTTL.Seconds()),
	})
}
