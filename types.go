package elemflow

import (
	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/types"
)

// ════════════════════════════════════════════════════════════════════════════
//                              类型别名
// ════════════════════════════════════════════════════════════════════════════

// 常用类型的顶层别名，避免使用方同时导入多个子包。

// Element 内容元素
type Element = types.Element

// ElementEvent 元素事件
type ElementEvent = types.ElementEvent

// LifecycleEvent 生命周期事件
type LifecycleEvent = types.LifecycleEvent

// LifecycleState 生命周期状态
type LifecycleState = types.LifecycleState

// Priority 事件优先级
type Priority = types.Priority

// EventResult 事件受理结果
type EventResult = types.EventResult

// BatchEventResult 批量事件结果
type BatchEventResult = types.BatchEventResult

// Transport 事件传输层接口
type Transport = interfaces.Transport

// TransportRegistry 传输注册表接口
type TransportRegistry = interfaces.TransportRegistry

// ContentResolver 内容解析协作者接口
type ContentResolver = interfaces.ContentResolver
