package utils

import "github.com/gin-gonic/gin"

// SuccessResponse is the envelope for successful calls. data is omitted when nil.
func SuccessResponse(message string, data any) gin.H {
	res := gin.H{
		"success": true,
		"message": message,
	}
	if data != nil {
		res["data"] = data
	}
	return res
}

// ErrorResponse is the envelope for failed calls.
func ErrorResponse(message string) gin.H {
	return gin.H{
		"success": false,
		"error":   message,
	}
}
