package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind 错误分类，决定对外的 HTTP 状态
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindExternal
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindExternal:
		return "external_service"
	default:
		return "internal"
	}
}

// Error 业务错误
type Error struct {
	Kind    Kind
	Reason  string // 同一分类下的细分原因，例如 self_follow
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error by kind, and by reason when the target has one.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	return t.Reason == "" || t.Reason == e.Reason
}

// 关注/屏蔽相关的冲突原因
var (
	ErrSelfFollow    = &Error{Kind: KindConflict, Reason: "self_follow", Message: "you cannot follow yourself"}
	ErrBlocked       = &Error{Kind: KindConflict, Reason: "blocked", Message: "follow is not allowed between blocked users"}
	ErrAlreadyExists = &Error{Kind: KindConflict, Reason: "already_exists", Message: "resource already exists"}
)

// 仅用于 errors.Is 判断分类
var (
	ErrValidation   = &Error{Kind: KindValidation}
	ErrUnauthorized = &Error{Kind: KindUnauthorized}
	ErrForbidden    = &Error{Kind: KindForbidden}
	ErrNotFound     = &Error{Kind: KindNotFound}
	ErrConflict     = &Error{Kind: KindConflict}
	ErrExternal     = &Error{Kind: KindExternal}
)

func Validation(msg string) error {
	return &Error{Kind: KindValidation, Message: msg}
}

func Unauthorized(msg string) error {
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) error {
	return &Error{Kind: KindForbidden, Message: msg}
}

func NotFound(msg string) error {
	return &Error{Kind: KindNotFound, Message: msg}
}

// Conflict 基于某个冲突原因创建错误，保留原因以便 errors.Is 匹配
func Conflict(reason *Error, msg string) error {
	if msg == "" {
		msg = reason.Message
	}
	return &Error{Kind: KindConflict, Reason: reason.Reason, Message: msg}
}

func External(msg string, err error) error {
	return &Error{Kind: KindExternal, Message: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Message: msg, Err: err}
}

// KindOf 获取错误分类，非业务错误一律视为内部错误
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// HTTPStatus 错误分类对应的 HTTP 状态码
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// Message 对外可见的错误信息，内部错误不暴露细节
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Kind != KindInternal {
		return e.Message
	}
	return "internal server error"
}

// Is 等价于 errors.Is，方便调用方少引入一个包
func Is(err, target error) bool {
	return errors.Is(err, target)
}
