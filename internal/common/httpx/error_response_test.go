package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jwcloud365/SimpleWebDBApp/internal/common"

	"github.com/gin-gonic/gin"
)

// 测试内容：验证各类业务错误码映射到正确的 HTTP 状态码与 code 字段，数据库等内部错误只返回兜底消息。
func TestWriteServiceError_StatusMapping(t *testing.T) {
	gin.SetMode(gin.TestMode)

	cases := []struct {
		err    error
		status int
		msg    string
		code   common.ErrorCode
	}{
		{common.NewValidationError("参数错误"), http.StatusBadRequest, "参数错误", common.ErrorCodeValidation},
		{common.NewNotFoundError("图片不存在"), http.StatusNotFound, "图片不存在", common.ErrorCodeNotFound},
		{common.NewConflictError("冲突"), http.StatusConflict, "冲突", common.ErrorCodeConflict},
		{common.NewTooLargeError("文件过大"), http.StatusRequestEntityTooLarge, "文件过大", common.ErrorCodeTooLarge},
		{common.NewInternalError("内部错误"), http.StatusInternalServerError, "内部错误", common.ErrorCodeInternal},
		{common.NewServiceError("teapot", "未知"), http.StatusInternalServerError, "未知", "teapot"},
		{common.NewDatabaseError("exec", errors.New("disk I/O error")), http.StatusInternalServerError, "兜底", common.ErrorCodeInternal},
		{errors.New("raw"), http.StatusInternalServerError, "兜底", common.ErrorCodeInternal},
	}

	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		WriteServiceError(c, tc.err, "兜底")
		if w.Code != tc.status {
			t.Fatalf("期望状态码 %d，实际为 %d (%v)", tc.status, w.Code, tc.err)
		}
		var body struct {
			Error string           `json:"error"`
			Code  common.ErrorCode `json:"code"`
		}
		if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
			t.Fatalf("响应不是合法 JSON: %v", err)
		}
		if body.Error != tc.msg || body.Code != tc.code {
			t.Fatalf("期望 error=%q code=%q，实际为 %+v", tc.msg, tc.code, body)
		}
	}
}
