package controllers

import (
	"github.com/gin-gonic/gin"

	"github.com/expofest/engage_backend/internal/models"
)

func sessionJSON(s models.AttendanceSession) gin.H {
	out := gin.H{
		"id":               s.ID,
		"student_id":       s.StudentID,
		"event_id":         s.EventID,
		"check_in_time":    s.CheckInTime,
		"check_out_time":   s.CheckOutTime,
		"status":           s.Status,
		"duration_seconds": s.DurationSeconds,
	}
	if s.IsNullified {
		out["is_nullified"] = true
		out["nullified_reason"] = s.NullifiedReason
		out["nullified_duration"] = s.NullifiedDuration
		out["event_stop_time"] = s.EventStopTime
	}
	return out
}

func eventJSON(e models.Event) gin.H {
	return gin.H{
		"id":                    e.ID,
		"name":                  e.Name,
		"description":           e.Description,
		"location":              e.Location,
		"start_date":            e.StartDate,
		"end_date":              e.EndDate,
		"active":                e.Active,
		"allow_voting":          e.AllowVoting,
		"max_votes_per_student": e.MaxVotesPerStudent,
		"created_at":            e.CreatedAt,
	}
}

func stallJSON(s models.Stall) gin.H {
	return gin.H{
		"id":          s.ID,
		"event_id":    s.EventID,
		"name":        s.Name,
		"description": s.Description,
		"department":  s.Department,
		"code":        s.Code,
		"active":      s.Active,
		"scan_count":  s.ScanCount,
		"created_at":  s.CreatedAt,
	}
}
