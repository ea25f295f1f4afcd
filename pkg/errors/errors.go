package errors

import (
	"strconv"

	"github.com/go-kratos/kratos/v2/errors"
)

// 错误码规范：
// - 2xxxx: 修订引擎业务错误
// 业务错误码随错误元数据下发，HTTP 状态码由 kratos 错误类型决定

const (
	// 修订引擎 (20000-20099)
	CodeFeedbackInvalid      = 20000
	CodeVersionNotFound      = 20001
	CodeHistoryNotFound      = 20002
	CodeRestorePointNotFound = 20003
	CodeBlockingConflicts    = 20004
	CodeChangeBatchInvalid   = 20005
	CodeVersionNotMonotonic  = 20006
	CodeVersionFormatInvalid = 20007
)

// NewBadRequest 创建携带业务错误码的 400 错误
func NewBadRequest(code int, reason, message string) *errors.Error {
	return withCode(errors.BadRequest(reason, message), code)
}

// NewNotFound 创建携带业务错误码的 404 错误
func NewNotFound(code int, reason, message string) *errors.Error {
	return withCode(errors.NotFound(reason, message), code)
}

// NewConflict 创建携带业务错误码的 409 错误
func NewConflict(code int, reason, message string) *errors.Error {
	return withCode(errors.Conflict(reason, message), code)
}

func withCode(e *errors.Error, code int) *errors.Error {
	return e.WithMetadata(map[string]string{"code": strconv.Itoa(code)})
}
