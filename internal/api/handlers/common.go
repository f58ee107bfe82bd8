package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/redevc/audio-service/internal/utils"
)

type APIError struct {
	Code    utils.Code `json:"code"`
	Message string     `json:"message"`
}

func writeError(c *gin.Context, err error) {
	code := utils.CodeInternal
	var ae *utils.AppError
	if errors.As(err, &ae) {
		code = ae.Code
	}

	// Message never leaks wrapped error detail to the client
	c.JSON(utils.HTTPStatus(err), APIError{
		Code:    code,
		Message: utils.Message(err),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	if v, ok := c.Get("user_id"); ok {
		if s, ok := v.(string); ok && s != "" {
			return s, true
		}
	}

	writeError(c, utils.E(utils.CodeUnauthorized, "Auth", "unauthorized", nil))
	return "", false
}

func callerRole(c *gin.Context) string {
	v, _ := c.Get("role")
	role, _ := v.(string)
	return role
}
