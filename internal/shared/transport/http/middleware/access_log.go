package middleware

import (
	"net/http"

	"choria/internal/shared/transport"
	"choria/modules/kit/logx"

	"github.com/gin-gonic/gin"
)

// AccessLog 管理端请求和游戏包共用一套 access 日志格式。
func AccessLog(log logx.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		action := c.Request.Method + " " + route

		ctx := transport.NewContextWithParent(c.Request.Context(), action, 0)
		c.Request = c.Request.WithContext(ctx)

		c.Next()

		status := c.Writer.Status()
		switch {
		case status >= http.StatusInternalServerError:
			transport.SetBizCode(ctx, transport.SystemError)
		case status >= http.StatusBadRequest:
			transport.SetBizCode(ctx, transport.BizCode(status))
		default:
			transport.SetBizCode(ctx, transport.OK)
		}
		if len(c.Errors) > 0 {
			transport.SetErrorReason(ctx, c.Errors.Last().Error())
		}
		transport.WriteAccessLog(ctx, log)
	}
}
