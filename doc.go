// Package elemflow 提供元素事件与传输子系统
//
// ElemFlow 由三个核心组件构成：
//
//   - LifecycleManager：元素生命周期状态机，负责创建/注册/激活/
//     挂起/更新/销毁元素，并发出生命周期事件。
//   - EventManager：活跃元素注册表、优先级事件队列与分发循环，
//     提供单发/批量发送与订阅 API，维护有界分发历史。
//   - Transport：传输契约与内存参考实现，自带连接状态机、
//     订阅扇出、统计计数与自主重连；TransportRegistry 按
//     scheme 创建传输实例。
//
// System 门面用依赖注入组装三者，并通过 AttachTransport
// 把本地事件转发到远端、把入站事件注入回 EventManager。
//
// 使用示例：
//
//	sys, err := elemflow.New()
//	if err != nil {
//		return err
//	}
//	if err := sys.Start(ctx); err != nil {
//		return err
//	}
//	defer sys.Close()
//
//	el, _ := sys.Lifecycle().CreateElement("img-1", types.KindImage, payload, nil)
//	_ = sys.Lifecycle().RegisterElement(el)
//	_ = sys.Lifecycle().ActivateElement(el.ID)
//	sys.Events().SendEvent(types.NewEvent(el.ID, el.Kind, types.EventUpdateStyle, style))
package elemflow
