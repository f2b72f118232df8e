package middleware

import (
	"bytes"
	"io"
	"time"

	"careerpath_go/pkg/log"

	"github.com/gin-gonic/gin"
)

// maxLoggedBody 是单条日志中请求体和响应体各自保留的最大字节数
const maxLoggedBody = 2048

// BodyLogWriter 用于记录响应 body
type BodyLogWriter struct {
	gin.ResponseWriter
	body *bytes.Buffer
}

// Write 同时写入 gin.ResponseWriter 和内部 buffer
func (w *BodyLogWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

// RequestLogger 记录每个请求的状态码、耗时和路由。
// withBodies 为 true 时额外记录请求体和响应体（截断到 maxLoggedBody），只建议在开发环境打开。
// WebSocket 升级请求不包装 ResponseWriter，否则会破坏 Hijack。
func RequestLogger(withBodies bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		capture := withBodies && !c.IsWebsocket()
		var requestBody []byte
		var blw *BodyLogWriter
		if capture {
			if c.Request.Body != nil {
				requestBody, _ = io.ReadAll(c.Request.Body)
			}
			c.Request.Body = io.NopCloser(bytes.NewBuffer(requestBody))

			blw = &BodyLogWriter{
				ResponseWriter: c.Writer,
				body:           &bytes.Buffer{},
			}
			c.Writer = blw
		}

		c.Next()

		fields := []interface{}{
			"latency", time.Since(startTime),
			"status", c.Writer.Status(),
			"client_ip", c.ClientIP(),
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"route", c.FullPath(),
		}
		if capture {
			fields = append(fields,
				"request_body", truncate(requestBody),
				"response_body", truncate(blw.body.Bytes()),
			)
		}
		if len(c.Errors) > 0 {
			fields = append(fields, "errors", c.Errors.String())
		}

		if c.Writer.Status() >= 500 {
			log.Warnw("HTTP request", fields...)
			return
		}
		log.Infow("HTTP request", fields...)
	}
}

func truncate(b []byte) string {
	if len(b) > maxLoggedBody {
		return string(b[:maxLoggedBody]) + "...(truncated)"
	}
	return string(b)
}
