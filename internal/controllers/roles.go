package controllers

import "github.com/expofest/engage_backend/internal/models"

func IsValidRole(role string) bool {
	switch role {
	case models.RoleAdmin, models.RoleVolunteer, models.RoleStudent:
		return true
	}
	return false
}
