package utils

import "github.com/gin-gonic/gin"

type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func JSONSuccess(c *gin.Context, code int, data interface{}) {
	c.JSON(code, gin.H{"success": true, "data": data})
}

// JSONError writes the failure envelope and aborts the handler chain.
func JSONError(c *gin.Context, code int, errCode, message string, details any) {
	c.AbortWithStatusJSON(code, gin.H{
		"success": false,
		"error":   ErrorBody{Code: errCode, Message: message, Details: details},
	})
}
