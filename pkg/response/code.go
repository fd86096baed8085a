package response

import "socialgraph/pkg/apperr"

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserExists   = 10001
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 社交关系错误 200xx
	ErrSelfFollow     = 20001
	ErrBlocked        = 20002
	ErrRelationExists = 20003

	// 内容错误 300xx
	ErrContentNotFound = 30001

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
	ErrExternalService = 50004
)

// codeFor 将业务错误映射为业务状态码
func codeFor(err error) int {
	switch {
	case apperr.Is(err, apperr.ErrSelfFollow):
		return ErrSelfFollow
	case apperr.Is(err, apperr.ErrBlocked):
		return ErrBlocked
	case apperr.Is(err, apperr.ErrAlreadyExists):
		return ErrRelationExists
	}

	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return ErrInvalidParam
	case apperr.KindUnauthorized:
		return ErrAuthFailed
	case apperr.KindForbidden:
		return ErrNoPermission
	case apperr.KindNotFound:
		return ErrContentNotFound
	case apperr.KindExternal:
		return ErrExternalService
	default:
		return ErrServerInternal
	}
}
