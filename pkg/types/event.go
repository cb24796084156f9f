package types

import (
	"time"

	"github.com/google/uuid"
)

// ============================================================================
//                              EventType - 事件类型
// ============================================================================

// EventType 元素事件类型
type EventType int

const (
	// EventUpdatePayload 更新内容载荷
	EventUpdatePayload EventType = iota

	// EventUpdateProps 更新属性
	EventUpdateProps

	// EventUpdateVariants 更新内容变体
	EventUpdateVariants

	// EventUpdateStyle 更新样式
	EventUpdateStyle

	// EventRefreshTransforms 刷新变换
	EventRefreshTransforms

	// EventValidateContent 校验内容
	EventValidateContent
)

// String 返回事件类型的字符串表示
func (t EventType) String() string {
	switch t {
	case EventUpdatePayload:
		return "updatePayload"
	case EventUpdateProps:
		return "updateProps"
	case EventUpdateVariants:
		return "updateVariants"
	case EventUpdateStyle:
		return "updateStyle"
	case EventRefreshTransforms:
		return "refreshTransforms"
	case EventValidateContent:
		return "validateContent"
	default:
		return "unknown"
	}
}

// ============================================================================
//                              Priority - 事件优先级
// ============================================================================

// Priority 事件优先级
//
// 分发严格按优先级降序进行：immediate > high > normal > low。
type Priority int

const (
	// PriorityLow 低优先级
	PriorityLow Priority = iota

	// PriorityNormal 普通优先级
	PriorityNormal

	// PriorityHigh 高优先级
	PriorityHigh

	// PriorityImmediate 立即优先级
	PriorityImmediate
)

// String 返回优先级的字符串表示
func (p Priority) String() string {
	switch p {
	case PriorityLow:
		return "low"
	case PriorityNormal:
		return "normal"
	case PriorityHigh:
		return "high"
	case PriorityImmediate:
		return "immediate"
	default:
		return "unknown"
	}
}

// Priorities 按分发顺序（从高到低）排列的全部优先级
func Priorities() []Priority {
	return []Priority{PriorityImmediate, PriorityHigh, PriorityNormal, PriorityLow}
}

// ============================================================================
//                              ElementEvent - 元素事件
// ============================================================================

// EventMetadata 事件元数据
type EventMetadata struct {
	// Timestamp 事件产生时间
	Timestamp time.Time

	// Source 事件来源标识
	Source string

	// Priority 事件优先级
	Priority Priority

	// CorrelationID 关联 ID（用于跨边界追踪）
	CorrelationID string
}

// NewMetadata 创建事件元数据
//
// 自动填充时间戳和随机 CorrelationID。
func NewMetadata(source string, priority Priority) EventMetadata {
	return EventMetadata{
		Timestamp:     time.Now(),
		Source:        source,
		Priority:      priority,
		CorrelationID: uuid.NewString(),
	}
}

// ElementEvent 元素事件
//
// 针对单个元素的一次变更请求。
type ElementEvent struct {
	// ElementID 目标元素标识
	ElementID string

	// ElementKind 目标元素类型
	ElementKind ElementKind

	// Type 事件类型
	Type EventType

	// Data 事件数据载荷
	Data any

	// Metadata 事件元数据
	Metadata EventMetadata
}

// NewEvent 创建元素事件
func NewEvent(elementID string, kind ElementKind, typ EventType, data any) ElementEvent {
	return ElementEvent{
		ElementID:   elementID,
		ElementKind: kind,
		Type:        typ,
		Data:        data,
		Metadata:    NewMetadata("local", PriorityNormal),
	}
}

// WithPriority 返回设置了优先级的事件副本
func (e ElementEvent) WithPriority(p Priority) ElementEvent {
	e.Metadata.Priority = p
	return e
}

// WithSource 返回设置了来源的事件副本
func (e ElementEvent) WithSource(source string) ElementEvent {
	e.Metadata.Source = source
	return e
}
