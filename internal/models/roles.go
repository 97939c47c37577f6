package models

const (
	RoleAdmin     = "admin"
	RoleVolunteer = "volunteer"
	RoleStudent   = "student"
)
