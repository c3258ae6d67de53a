// internal/handlers/realtime.go
package handlers

import (
	"encoding/json"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/artmarket-backend/internal/i18n"
	"github.com/javajoker/artmarket-backend/internal/middleware"
	"github.com/javajoker/artmarket-backend/internal/realtime"
	"github.com/javajoker/artmarket-backend/internal/services"
	"github.com/javajoker/artmarket-backend/internal/utils"
)

type RealtimeHandler struct {
	hub          *realtime.Hub
	authService  *services.AuthService
	offerService *services.OfferService
	upgrader     websocket.Upgrader
}

func NewRealtimeHandler(hub *realtime.Hub, authService *services.AuthService, offerService *services.OfferService, allowedOrigins []string) *RealtimeHandler {
	return &RealtimeHandler{
		hub:          hub,
		authService:  authService,
		offerService: offerService,
		upgrader:     realtime.NewUpgrader(allowedOrigins),
	}
}

// GET /ws/notifications?token=<jwt>
// Browsers cannot set headers on a websocket handshake, so the token may come
// from the query string; an Authorization header is accepted too.
func (h *RealtimeHandler) Notifications(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	token := c.Query("token")
	if token == "" {
		if header := c.GetHeader("Authorization"); header != "" {
			var ok bool
			if token, ok = middleware.BearerToken(header); !ok {
				utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
				return
			}
		}
	}
	if token == "" {
		utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
		return
	}

	claims, err := h.authService.VerifyToken(token)
	if err != nil {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return
	}
	ownerID, err := uuid.Parse(claims.UserID)
	if err != nil {
		utils.ForbiddenResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// The upgrader has already written the error response
		logrus.WithError(err).Debug("Websocket upgrade failed")
		return
	}

	userID := ownerID.String()
	realtime.Serve(h.hub, conn, userID)

	// Start the client off with the current badge count
	count, err := h.offerService.CountPendingOffersReceived(c.Request.Context(), ownerID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Warn("Failed to load pending offer count")
		return
	}

	payload, err := json.Marshal(services.Notification{
		Type:         services.NotificationSnapshot,
		PendingCount: count,
	})
	if err == nil {
		h.hub.SendToUser(userID, payload)
	}
}
