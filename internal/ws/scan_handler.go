package ws

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/expofest/engage_backend/internal/models"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// Allow all origins; rely on JWT auth.
		return true
	},
}

// ScanFeedHandler upgrades admin/volunteer dashboards to the live scan feed.
// An optional event_id query parameter scopes the subscription.
func ScanFeedHandler(hub *ScanHub) gin.HandlerFunc {
	return func(c *gin.Context) {
		uVal, ok := c.Get("user")
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		user := uVal.(models.User)
		if user.Role != models.RoleAdmin && user.Role != models.RoleVolunteer {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		var eventID uint
		if v := c.Query("event_id"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n <= 0 {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid event_id"})
				return
			}
			eventID = uint(n)
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		client := newScanClient(hub, conn, eventID)
		hub.register <- client

		go client.writePump()
		client.readPump()
	}
}
