// Package interfaces 定义 ElemFlow 公共接口
//
// 本文件定义传输注册表接口。
package interfaces

// ============================================================================
//                              TransportRegistry 接口
// ============================================================================

// TransportFactory 传输工厂函数
//
// 由注册表按 scheme 调用，rawURL 为完整连接 URL。
type TransportFactory func(rawURL string) (Transport, error)

// TransportRegistry 传输注册表
//
// 将连接 URL 的 scheme 映射到传输工厂。注册表是显式构造的实例，
// 由启动代码按引用传给使用方（依赖注入），不使用进程级单例。
type TransportRegistry interface {
	// Register 注册 scheme 对应的传输工厂
	//
	// scheme 已存在时返回错误。
	Register(scheme string, factory TransportFactory) error

	// Create 按连接 URL 创建传输
	//
	// 解析 URL 的 scheme 选择工厂；scheme 未注册时返回错误。
	// 创建的传输由注册表跟踪，Close 时统一销毁。
	Create(rawURL string) (Transport, error)

	// Schemes 返回所有已注册的 scheme
	Schemes() []string

	// Close 销毁所有由本注册表创建的传输
	Close() error
}

// ============================================================================
//                              错误定义
// ============================================================================

// 注册表错误
var (
	// ErrSchemeExists scheme 已注册
	ErrSchemeExists = registryError("transport factory already registered for scheme")

	// ErrSchemeNotFound scheme 未注册
	ErrSchemeNotFound = registryError("no transport factory for scheme")

	// ErrRegistryClosed 注册表已关闭
	ErrRegistryClosed = registryError("transport registry closed")
)

// registryError 注册表错误类型
type registryError string

func (e registryError) Error() string {
	return string(e)
}
