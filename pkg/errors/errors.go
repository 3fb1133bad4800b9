package errors

import (
	"errors"
	"fmt"
)

// Kind 错误分类，CLI 据此映射退出码
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindDateRange
	KindMissingConfigField
	KindConfigParse
	KindIO
	KindStorage
	KindAlreadyRunning
	KindNotRunning
	KindUnsupportedPlatform
)

var kindNames = map[Kind]string{
	KindUnknown:             "unknown",
	KindNotFound:            "not found",
	KindValidation:          "validation",
	KindDateRange:           "date range",
	KindMissingConfigField:  "missing config field",
	KindConfigParse:         "config parse",
	KindIO:                  "io",
	KindStorage:             "storage",
	KindAlreadyRunning:      "already running",
	KindNotRunning:          "not running",
	KindUnsupportedPlatform: "unsupported platform",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return "unknown"
}

// Error 带分类的业务错误
type Error struct {
	Kind Kind
	Op   string // 出错的操作，如 "semester.create"
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Op != "" && e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Op != "" && e.Msg != "":
		return e.Op + ": " + e.Msg
	case e.Op != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	case e.Msg != "" && e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	case e.Msg != "":
		return e.Msg
	case e.Err != nil:
		return e.Err.Error()
	}
	return e.Kind.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is 同 Kind 且同 Msg 的错误视为相等，使哨兵错误在包装后仍可 errors.Is
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Msg == e.Msg && t.Op == "" && t.Err == nil
}

// New 创建哨兵错误
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Newf 创建带格式化信息的错误
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap 以指定分类包装底层错误；err 为 nil 时返回 nil
func Wrap(kind Kind, op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Op: op, Err: err}
}

// NotFound 实体不存在
func NotFound(entity, key string) *Error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf("%s %q not found", entity, key)}
}

// Validation 字段校验失败
func Validation(field, msg string) *Error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf("invalid %s: %s", field, msg)}
}

// KindOf 返回错误链上第一个带分类的错误的 Kind
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// ExitCode 错误到进程退出码的映射
//
//	0 成功；1 校验/未找到；2 IO 或数据库；3 守护进程状态
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	switch KindOf(err) {
	case KindNotFound, KindValidation, KindDateRange, KindMissingConfigField, KindConfigParse:
		return 1
	case KindAlreadyRunning, KindNotRunning, KindUnsupportedPlatform:
		return 3
	default:
		return 2
	}
}
