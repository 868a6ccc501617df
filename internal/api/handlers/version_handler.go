package handlers

import (
	"net/http"

	"github.com/funnelhook/webhook_service/pkg/version"

	"github.com/gin-gonic/gin"
)

func VersionHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, version.Get())
	}
}
