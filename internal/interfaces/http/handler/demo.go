package handler

import (
	_ "embed"
	"net/http"

	"github.com/gin-gonic/gin"
)

//go:embed demo.html
var demoPage []byte

// DemoHandler 演示录音页
type DemoHandler struct{}

// NewDemoHandler 创建演示页处理器
func NewDemoHandler() *DemoHandler {
	return &DemoHandler{}
}

// Index 演示录音页
// GET /
func (h *DemoHandler) Index(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", demoPage)
}
