// Package eventmanager 实现元素事件管理器
//
// 核心职责：
//
//  1. 活跃元素注册表：仅在注册后填充，销毁时移除，
//     状态由 LifecycleManager 通过 ElementRegistry 接口同步。
//  2. 优先级事件队列：入队前拒绝未注册/非 active 元素的事件；
//     去重开启时同 (elementID, eventType) 的事件原地合并，
//     保留原队列位置；队列满时同步返回 overflow 失败。
//  3. 分发循环：单协程定时触发，严格按优先级排空
//     （immediate > high > normal > low），同级内 FIFO，
//     依次投递元素级、全局、批次订阅者；回调 panic 被隔离。
//  4. 有界历史：已分发事件及结果，容量封顶，先进先出淘汰。
//
// SendEvent 返回的受理状态表示"已进入队列"，不保证已完成分发；
// 分发完成情况通过 History 观察。
package eventmanager
