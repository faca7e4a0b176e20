package handler

import (
	"github.com/gin-gonic/gin"

	"colab/backend/pkg/response"
)

// ctxUserID 由 middleware.JWTAuth 写入
const ctxUserID = "user_id"

// MustGetUserID 读取当前调用者 ID，用作 created_by / updated_by / deleted_by。
// 缺失时已写入 401，调用方在 ok=false 时直接 return。
func MustGetUserID(c *gin.Context) (string, bool) {
	if id := c.GetString(ctxUserID); id != "" {
		return id, true
	}
	response.Unauthorized(c, 10002, "未认证")
	return "", false
}
