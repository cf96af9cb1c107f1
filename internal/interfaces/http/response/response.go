package response

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse 错误响应体
// 只携带面向调用方的概括信息，不含内部细节或堆栈
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// Success 成功响应
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Error 错误响应
func Error(c *gin.Context, httpCode int, detail string) {
	c.JSON(httpCode, ErrorResponse{Detail: detail})
}

// AbortError 错误响应并中止后续 handler
func AbortError(c *gin.Context, httpCode int, detail string) {
	c.AbortWithStatusJSON(httpCode, ErrorResponse{Detail: detail})
}
