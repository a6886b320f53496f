package response

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"vault-bridge/pkg/errno"
	"vault-bridge/pkg/validator"
)

// Response defines the standard JSON structure
type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"msg"`
	Data    interface{} `json:"data"`
}

// Success returns a success response with data
func Success(c *gin.Context, data interface{}) {
	write(c, http.StatusOK, data)
}

// Accepted 异步任务已受理
func Accepted(c *gin.Context, data interface{}) {
	write(c, http.StatusAccepted, data)
}

func write(c *gin.Context, status int, data interface{}) {
	if data == nil {
		data = gin.H{}
	}
	c.JSON(status, Response{
		Code:    errno.OK.Code,
		Message: errno.OK.Message,
		Data:    data,
	})
}

// StatusOf 按错误类别选择 HTTP 状态码, 响应体仍携带具体错误码
func StatusOf(err error) int {
	if errors.Is(err, errno.ErrRequestNotFound) {
		return http.StatusNotFound
	}
	switch errno.KindOf(err) {
	case errno.KindValidation, errno.KindMismatch:
		return http.StatusBadRequest
	case errno.KindState:
		return http.StatusConflict
	case errno.KindSignature:
		return http.StatusUnauthorized
	case errno.KindArithmetic, errno.KindTransferFailed, errno.KindInsufficientBalance:
		return http.StatusUnprocessableEntity
	}
	if errors.Is(err, errno.ErrBind) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// Error returns an error response
func Error(c *gin.Context, err error) {
	code, msg := errno.Decode(err)
	c.JSON(StatusOf(err), Response{
		Code:    code,
		Message: msg,
		Data:    gin.H{},
	})
}

// BindError 请求体解析或校验失败
func BindError(c *gin.Context, err error) {
	msg := validator.GetErrorMsg(err)
	if msg == "invalid request parameters" {
		msg = err.Error()
	}
	c.JSON(http.StatusBadRequest, Response{
		Code:    errno.ErrBind.Code,
		Message: msg,
		Data:    gin.H{},
	})
}
