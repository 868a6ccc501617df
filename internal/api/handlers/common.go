package handlers

import (
	"time"

	"github.com/funnelhook/webhook_service/internal/domain/entities"
	apperrors "github.com/funnelhook/webhook_service/pkg/errors"

	"github.com/gin-gonic/gin"
)

// respond sends a webhook acknowledgement with the given status
func respond(c *gin.Context, status int, success bool, message string) {
	c.JSON(status, entities.NewWebhookResponse(success, message, time.Now()))
}

// respondError maps err to its status code and public message
func respondError(c *gin.Context, err error) {
	respond(c, apperrors.HTTPStatus(err), false, apperrors.PublicMessage(err))
}
