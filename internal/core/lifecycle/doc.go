// Package lifecycle 实现元素生命周期管理器
//
// 生命周期状态机：
//
//	created → registered → active ⇄ suspended
//	active → updating → active | error
//	error → active
//	任意非 destroyed 状态 → destroyed（终态，幂等）
//
// 每次状态转换恰好发出一个生命周期事件，按订阅注册顺序同步投递；
// 单个订阅者的 panic 被捕获并记录，不影响其余订阅者和触发操作。
//
// 管理器通过注入的 interfaces.ElementRegistry 向 EventManager
// 同步注册/状态/注销；通过注入的 interfaces.ContentResolver
// 在提交内容更新前做校验与归一化。
package lifecycle
