// Package apperr 引擎统一错误分类
package apperr

import (
	"errors"
	"fmt"
	"strings"

	"vidhub/internal/pkg/action"
)

// Kind 错误类别
type Kind int

const (
	KindUnknown Kind = iota
	KindInvalidArgument
	KindNotFound
	KindAccessDenied
	KindInvalidState
	KindDependencyFailure
)

func (k Kind) String() string {
	switch k {
	case KindInvalidArgument:
		return "invalid argument"
	case KindNotFound:
		return "not found"
	case KindAccessDenied:
		return "access denied"
	case KindInvalidState:
		return "invalid state"
	case KindDependencyFailure:
		return "dependency failure"
	default:
		return "unknown"
	}
}

// Error 携带操作名称、失败步骤与前置条件描述
type Error struct {
	Kind   Kind
	Action action.Action
	Step   string // 多步骤流程中失败的步骤，可为空
	Msg    string
	Err    error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Public()
	}
	return e.Public() + ": " + e.Err.Error()
}

// Public 不含底层错误的描述，可返回给调用方
func (e *Error) Public() string {
	var b strings.Builder
	b.WriteString(string(e.Action))
	if e.Step != "" {
		b.WriteString(" [")
		b.WriteString(e.Step)
		b.WriteString("]")
	}
	b.WriteString(": ")
	b.WriteString(e.Kind.String())
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New 创建错误
func New(kind Kind, act action.Action, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Action: act, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 包装底层错误
func Wrap(kind Kind, act action.Action, err error, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Action: act, Msg: fmt.Sprintf(format, args...), Err: err}
}

// WithStep 标记失败步骤
func (e *Error) WithStep(step string) *Error {
	e.Step = step
	return e
}

func InvalidArgument(act action.Action, format string, args ...interface{}) error {
	return New(KindInvalidArgument, act, format, args...)
}

func NotFound(act action.Action, format string, args ...interface{}) error {
	return New(KindNotFound, act, format, args...)
}

func AccessDenied(act action.Action, format string, args ...interface{}) error {
	return New(KindAccessDenied, act, format, args...)
}

func InvalidState(act action.Action, format string, args ...interface{}) error {
	return New(KindInvalidState, act, format, args...)
}

func Dependency(act action.Action, err error, format string, args ...interface{}) error {
	return Wrap(KindDependencyFailure, act, err, format, args...)
}

// KindOf 返回错误类别，非 *Error 返回 KindUnknown
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Is 判断错误是否属于指定类别
func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// StepOf 返回失败步骤
func StepOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Step
	}
	return ""
}
