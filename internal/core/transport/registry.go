// Package transport 实现传输注册表
package transport

import (
	"fmt"
	"net/url"
	"sort"
	"sync"

	"go.uber.org/multierr"

	"github.com/elemflow/go-elemflow/internal/core/transport/inmem"
	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/lib/log"
)

var logger = log.Logger("core/transport")

// ============================================================================
//                              Registry
// ============================================================================

// Registry 传输注册表
//
// scheme → 工厂的显式实例，由启动代码构造并按引用传给使用方，
// 不使用进程级单例。Create 出的传输被跟踪，Close 时统一销毁。
type Registry struct {
	mu        sync.Mutex
	factories map[string]interfaces.TransportFactory
	created   []interfaces.Transport
	closed    bool
}

// 确保实现接口
var _ interfaces.TransportRegistry = (*Registry)(nil)

// NewRegistry 创建空的传输注册表
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]interfaces.TransportFactory),
	}
}

// NewDefaultRegistry 创建预注册 mem scheme 的注册表
//
// mem scheme 对应内存参考传输。便捷入口，生命周期与普通实例相同：
// 使用完毕由持有方调用 Close 销毁全部创建的传输。
func NewDefaultRegistry() *Registry {
	return NewDefaultRegistryWith(inmem.Options{})
}

// NewDefaultRegistryWith 创建预注册 mem scheme 的注册表
//
// opts 应用于 mem scheme 创建的每个传输实例。
func NewDefaultRegistryWith(opts inmem.Options) *Registry {
	r := NewRegistry()
	_ = r.Register("mem", func(string) (interfaces.Transport, error) {
		return inmem.New(opts), nil
	})
	return r
}

// Register 注册 scheme 对应的传输工厂
func (r *Registry) Register(scheme string, factory interfaces.TransportFactory) error {
	if scheme == "" || factory == nil {
		return fmt.Errorf("invalid registration for scheme %q", scheme)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return interfaces.ErrRegistryClosed
	}
	if _, ok := r.factories[scheme]; ok {
		return fmt.Errorf("%w: %s", interfaces.ErrSchemeExists, scheme)
	}
	r.factories[scheme] = factory
	return nil
}

// Create 按连接 URL 创建传输
//
// 解析 URL 的 scheme 选择工厂；scheme 未注册时返回错误。
func (r *Registry) Create(rawURL string) (interfaces.Transport, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid transport url %q: %w", rawURL, err)
	}

	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, interfaces.ErrRegistryClosed
	}
	factory, ok := r.factories[u.Scheme]
	r.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", interfaces.ErrSchemeNotFound, u.Scheme)
	}

	t, err := factory(rawURL)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.created = append(r.created, t)
	r.mu.Unlock()

	logger.Debug("transport created", "scheme", u.Scheme)
	return t, nil
}

// Schemes 返回所有已注册的 scheme（字典序）
func (r *Registry) Schemes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]string, 0, len(r.factories))
	for scheme := range r.factories {
		out = append(out, scheme)
	}
	sort.Strings(out)
	return out
}

// Close 销毁所有由本注册表创建的传输
//
// 单个传输的销毁失败不阻止其余传输的销毁，错误聚合返回。
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	created := r.created
	r.created = nil
	r.mu.Unlock()

	var err error
	for _, t := range created {
		err = multierr.Append(err, t.Destroy())
	}
	return err
}
