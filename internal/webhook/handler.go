package webhook

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/genome-variant-explorer/internal/domain"
	"github.com/genome-variant-explorer/internal/users"
)

const maxPayloadBytes = 1 << 20

// Event is the envelope of an identity-provider delivery.
type Event struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// UserData is the user object carried by user.* events.
type UserData struct {
	ID             string         `json:"id"`
	EmailAddresses []EmailAddress `json:"email_addresses"`
	FirstName      *string        `json:"first_name"`
	LastName       *string        `json:"last_name"`
	ImageURL       *string        `json:"image_url"`
}

// EmailAddress is one entry of UserData.EmailAddresses.
type EmailAddress struct {
	EmailAddress string `json:"email_address"`
}

// Handler verifies deliveries and applies user events to a store.
type Handler struct {
	verifier *Verifier
	store    users.Store
	logger   *logrus.Logger
}

// NewHandler returns a handler. An empty secret is allowed; every delivery
// is then rejected with a 500 until the secret is configured.
func NewHandler(cfg domain.WebhookConfig, store users.Store, logger *logrus.Logger) (*Handler, error) {
	h := &Handler{store: store, logger: logger}
	if cfg.SigningSecret == "" {
		return h, nil
	}
	verifier, err := NewVerifier(cfg.SigningSecret, cfg.Tolerance)
	if err != nil {
		return nil, err
	}
	h.verifier = verifier
	return h, nil
}

// Handle is the gin handler for POST /api/webhooks/clerk.
func (h *Handler) Handle(c *gin.Context) {
	if h.verifier == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "webhook signing secret is not set"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPayloadBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "failed to read request body"})
		return
	}

	if err := h.verifier.Verify(payload, c.Request.Header); err != nil {
		h.logger.WithError(err).Warn("Rejected webhook delivery")
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var event Event
	if err := json.Unmarshal(payload, &event); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook payload"})
		return
	}

	entry := h.logger.WithFields(logrus.Fields{
		"event":      event.Type,
		"webhook_id": c.GetHeader(HeaderID),
	})

	switch event.Type {
	case "user.created", "user.updated":
		var data UserData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user payload"})
			return
		}
		if err := h.store.Upsert(c.Request.Context(), userFromData(data)); err != nil {
			entry.WithError(err).Error("Failed to sync user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		entry.WithField("clerk_user_id", data.ID).Info("User synced")
		c.JSON(http.StatusOK, gin.H{"message": "User synced successfully"})

	case "user.deleted":
		var data UserData
		if err := json.Unmarshal(event.Data, &data); err != nil || data.ID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user payload"})
			return
		}
		if _, err := h.store.Delete(c.Request.Context(), data.ID); err != nil {
			entry.WithError(err).Error("Failed to delete user")
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		entry.WithField("clerk_user_id", data.ID).Info("User deleted")
		c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})

	default:
		entry.Debug("Ignoring webhook event")
		c.JSON(http.StatusOK, gin.H{"message": "Webhook received"})
	}
}

func userFromData(data UserData) *domain.User {
	user := &domain.User{
		ClerkUserID: data.ID,
		FirstName:   data.FirstName,
		LastName:    data.LastName,
		ImageURL:    data.ImageURL,
	}
	if len(data.EmailAddresses) > 0 {
		user.Email = data.EmailAddresses[0].EmailAddress
	}
	return user
}
