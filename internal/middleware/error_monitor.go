package middleware

import (
	"sync"

	"github.com/ksk584/anonymous-social-media/internal/errors"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type ErrorMonitor struct {
	errorCounts map[errors.ErrorCode]int
	mu          sync.RWMutex
}

func NewErrorMonitor() *ErrorMonitor {
	return &ErrorMonitor{
		errorCounts: make(map[errors.ErrorCode]int),
	}
}

func (m *ErrorMonitor) RecordError(err error) {
	if appErr, ok := err.(*errors.AppError); ok {
		m.mu.Lock()
		m.errorCounts[appErr.Code]++
		m.mu.Unlock()
	}
}

func (m *ErrorMonitor) GetErrorCounts() map[errors.ErrorCode]int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	counts := make(map[errors.ErrorCode]int, len(m.errorCounts))
	for code, count := range m.errorCounts {
		counts[code] = count
	}
	return counts
}

// ErrorMonitorMiddleware 统计请求处理中上报的错误
func ErrorMonitorMiddleware(monitor *ErrorMonitor) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		for _, ginErr := range c.Errors {
			monitor.RecordError(ginErr.Err)
			zap.L().Warn("请求处理出错",
				zap.String("path", c.Request.URL.Path),
				zap.Error(ginErr.Err))
		}
	}
}
