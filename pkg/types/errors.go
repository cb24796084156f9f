package types

import (
	"errors"
	"fmt"
)

// ============================================================================
//                              ErrorCode - 错误分类
// ============================================================================

// ErrorCode 错误分类码
//
// 用于判定结果值（EventResult 等）中的失败原因归类。
type ErrorCode int

const (
	// CodeNone 无错误
	CodeNone ErrorCode = iota

	// CodeValidation 校验失败
	CodeValidation

	// CodeNotFound 目标不存在
	CodeNotFound

	// CodeState 当前生命周期/连接状态不允许该操作
	CodeState

	// CodeOverflow 队列已满
	CodeOverflow

	// CodeNotConnected 传输未连接
	CodeNotConnected

	// CodeDestroyed 目标已销毁
	CodeDestroyed

	// CodeTimeout 传输截止时间到期
	CodeTimeout

	// CodeIntegrity 完整性错误
	CodeIntegrity

	// CodeUnknown 未归类错误（兜底）
	CodeUnknown
)

// String 返回错误码的字符串表示
func (c ErrorCode) String() string {
	switch c {
	case CodeNone:
		return "none"
	case CodeValidation:
		return "validation"
	case CodeNotFound:
		return "not_found"
	case CodeState:
		return "state"
	case CodeOverflow:
		return "overflow"
	case CodeNotConnected:
		return "not_connected"
	case CodeDestroyed:
		return "destroyed"
	case CodeTimeout:
		return "timeout"
	case CodeIntegrity:
		return "integrity"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              错误定义
// ============================================================================

var (
	// ErrDuplicateID 元素 ID 已被跟踪
	ErrDuplicateID = errors.New("element id already tracked")

	// ErrElementNotFound 元素不存在
	ErrElementNotFound = errors.New("element not found")

	// ErrInvalidTransition 非法的生命周期状态转换
	ErrInvalidTransition = errors.New("invalid lifecycle transition")

	// ErrQueueFull 事件队列已满
	ErrQueueFull = errors.New("event queue full")

	// ErrNotConnected 传输未连接
	ErrNotConnected = errors.New("transport not connected")

	// ErrDestroyed 目标已销毁
	ErrDestroyed = errors.New("destroyed")

	// ErrTimeout 操作超时
	ErrTimeout = errors.New("operation timed out")
)

// ============================================================================
//                              CodedError
// ============================================================================

// CodedError 带分类码的错误
type CodedError struct {
	// Code 错误分类码
	Code ErrorCode

	// ElementID 相关元素标识（可为空）
	ElementID string

	// Err 底层错误
	Err error
}

// Error 实现 error 接口
func (e *CodedError) Error() string {
	if e.ElementID != "" {
		return fmt.Sprintf("%s: element %q: %v", e.Code, e.ElementID, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Code, e.Err)
}

// Unwrap 返回底层错误
func (e *CodedError) Unwrap() error {
	return e.Err
}

// NewCodedError 创建带分类码的错误
func NewCodedError(code ErrorCode, elementID string, err error) *CodedError {
	return &CodedError{Code: code, ElementID: elementID, Err: err}
}

// CodeOf 提取错误的分类码
//
// 未归类错误返回 CodeUnknown；nil 返回 CodeNone。
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeNone
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded.Code
	}

	switch {
	case errors.Is(err, ErrElementNotFound):
		return CodeNotFound
	case errors.Is(err, ErrDuplicateID):
		return CodeValidation
	case errors.Is(err, ErrInvalidTransition):
		return CodeState
	case errors.Is(err, ErrQueueFull):
		return CodeOverflow
	case errors.Is(err, ErrNotConnected):
		return CodeNotConnected
	case errors.Is(err, ErrDestroyed):
		return CodeDestroyed
	case errors.Is(err, ErrTimeout):
		return CodeTimeout
	default:
		return CodeUnknown
	}
}
