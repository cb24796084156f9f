// Package transport 实现传输注册表
//
// 注册表将连接 URL 的 scheme 映射到传输工厂，是显式构造的实例，
// 由启动代码按引用传给使用方（依赖注入），不使用进程级单例。
// NewDefaultRegistry 提供预注册 mem scheme 的便捷实例，
// 生命周期由持有方的 Close 终结。
//
// 具体的线上协议传输不在本仓库范围内；inmem 子包提供
// 契约的内存参考实现。
package transport
