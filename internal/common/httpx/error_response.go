package httpx

import (
	"net/http"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"

	"github.com/gin-gonic/gin"
)

var statusByCode = map[common.ErrorCode]int{
	common.ErrorCodeValidation: http.StatusBadRequest,
	common.ErrorCodeNotFound:   http.StatusNotFound,
	common.ErrorCodeConflict:   http.StatusConflict,
	common.ErrorCodeTooLarge:   http.StatusRequestEntityTooLarge,
	common.ErrorCodeInternal:   http.StatusInternalServerError,
}

// WriteServiceError 写出 {"error": 消息, "code": 错误码}。
// ServiceError 的消息可以直接展示给用户；数据库、文件系统等其他错误只返回 fallbackMessage，细节由调用方记录日志。
func WriteServiceError(c *gin.Context, err error, fallbackMessage string) {
	se, ok := common.AsServiceError(err)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": fallbackMessage, "code": common.ErrorCodeInternal})
		return
	}
	status, known := statusByCode[se.Code]
	if !known {
		status = http.StatusInternalServerError
	}
	c.JSON(status, gin.H{"error": se.Message, "code": se.Code})
}
