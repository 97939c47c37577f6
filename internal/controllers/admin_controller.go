package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/expofest/engage_backend/internal/models"
	"github.com/expofest/engage_backend/internal/utils"
)

type AdminController struct {
	DB *gorm.DB
}

func (ac *AdminController) ListUsers(c *gin.Context) {
	// Query params: limit, page, all, sort_by, sort_dir, q, role, department, active
	all := strings.EqualFold(c.Query("all"), "true") || c.Query("all") == "1"
	limit := 20
	page := 1
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	if v := c.Query("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			page = n
		}
	}

	sortBy := strings.ToLower(c.DefaultQuery("sort_by", "created_at"))
	sortDir := strings.ToUpper(c.DefaultQuery("sort_dir", "DESC"))
	if sortDir != "ASC" && sortDir != "DESC" {
		sortDir = "DESC"
	}
	allowedSorts := map[string]string{
		"id":         "id",
		"created_at": "created_at",
		"full_name":  "full_name",
		"email":      "email",
		"role":       "role",
		"department": "department",
	}
	sortCol, ok := allowedSorts[sortBy]
	if !ok {
		sortCol = "created_at"
	}
	order := fmt.Sprintf("%s %s", sortCol, sortDir)

	base := ac.DB.Model(&models.User{})
	if qText := strings.TrimSpace(c.Query("q")); qText != "" {
		like := "%" + qText + "%"
		base = base.Where("full_name ILIKE ? OR email ILIKE ?", like, like)
	}
	if role := strings.TrimSpace(c.Query("role")); role != "" {
		base = base.Where("role = ?", role)
	}
	if dept := strings.TrimSpace(c.Query("department")); dept != "" {
		base = base.Where("department = ?", dept)
	}
	switch strings.TrimSpace(strings.ToLower(c.Query("active"))) {
	case "true", "1":
		base = base.Where("active = ?", true)
	case "false", "0":
		base = base.Where("active = ?", false)
	case "":
		// no filter
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid active value"})
		return
	}

	var total int64
	if err := base.Count(&total).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	listQ := base.Session(&gorm.Session{}).Order(order)
	if !all {
		listQ = listQ.Offset((page - 1) * limit).Limit(limit)
	}
	var users []models.User
	if err := listQ.Find(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	out := make([]gin.H, 0, len(users))
	for _, u := range users {
		out = append(out, gin.H{
			"user_id":    u.UserID,
			"full_name":  u.FullName,
			"email":      u.Email,
			"role":       u.Role,
			"department": u.Department,
			"active":     u.Active,
			"created_at": u.CreatedAt,
		})
	}
	meta := gin.H{"total": total, "all": all}
	if !all {
		meta["limit"] = limit
		meta["page"] = page
		meta["sort_by"] = sortCol
		meta["sort_dir"] = sortDir
	}
	c.JSON(http.StatusOK, gin.H{"data": out, "meta": meta})
}

func (ac *AdminController) GetUser(c *gin.Context) {
	var user models.User
	if err := ac.DB.Where("user_id = ?", c.Param("user_id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"user_id":    user.UserID,
		"full_name":  user.FullName,
		"email":      user.Email,
		"role":       user.Role,
		"department": user.Department,
		"active":     user.Active,
		"created_at": user.CreatedAt,
	})
}

type updateUserRequest struct {
	FullName   *string `json:"full_name"`
	Email      *string `json:"email"`
	Password   *string `json:"password"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
	Active     *bool   `json:"active"`
}

func (ac *AdminController) UpdateUser(c *gin.Context) {
	var user models.User
	if err := ac.DB.Where("user_id = ?", c.Param("user_id")).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Password != nil && *req.Password != "" {
		hashed, err := utils.HashPassword(*req.Password)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to hash password"})
			return
		}
		user.Password = hashed
	}
	if req.Role != nil {
		if !IsValidRole(*req.Role) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}
		user.Role = *req.Role
	}
	if req.Department != nil {
		user.Department = *req.Department
	}
	if req.Active != nil {
		user.Active = *req.Active
	}

	if err := ac.DB.Save(&user).Error; err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "updated", "user_id": user.UserID})
}

func (ac *AdminController) DeleteUser(c *gin.Context) {
	res := ac.DB.Where("user_id = ?", c.Param("user_id")).Delete(&models.User{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": res.Error.Error()})
		return
	}
	if res.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}
