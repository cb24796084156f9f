// Package transport 传输注册表测试
package transport

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elemflow/go-elemflow/internal/core/transport/inmem"
	"github.com/elemflow/go-elemflow/pkg/interfaces"
	"github.com/elemflow/go-elemflow/pkg/types"
)

// TestRegistry_ImplementsInterface 验证 Registry 实现接口
func TestRegistry_ImplementsInterface(t *testing.T) {
	var _ interfaces.TransportRegistry = (*Registry)(nil)
}

// TestRegistry_RegisterAndCreate 测试注册与创建
func TestRegistry_RegisterAndCreate(t *testing.T) {
	r := NewRegistry()

	err := r.Register("mem", func(string) (interfaces.Transport, error) {
		return inmem.New(inmem.Options{}), nil
	})
	require.NoError(t, err)

	tr, err := r.Create("mem://local")
	require.NoError(t, err)
	require.NotNil(t, tr)
	assert.Equal(t, []string{"mem"}, r.Schemes())
}

// TestRegistry_DefaultRegistryWith_Options 测试 mem 传输继承注册表选项
func TestRegistry_DefaultRegistryWith_Options(t *testing.T) {
	mock := clock.NewMock()
	r := NewDefaultRegistryWith(inmem.Options{
		ReconnectDelay: 40 * time.Millisecond,
		Clock:          mock,
	})
	t.Cleanup(func() { _ = r.Close() })

	created, err := r.Create("mem://a")
	require.NoError(t, err)
	tr, ok := created.(*inmem.Transport)
	require.True(t, ok)
	require.NoError(t, tr.Connect(context.Background()))

	tr.InjectFault(errors.New("link flap"))
	require.Equal(t, types.ConnReconnecting, tr.State())

	// 配置的延迟生效：过半程仍在重连，到期后恢复
	mock.Add(20 * time.Millisecond)
	assert.Equal(t, types.ConnReconnecting, tr.State())
	mock.Add(20 * time.Millisecond)
	assert.Equal(t, types.ConnConnected, tr.State())
}

// TestRegistry_DuplicateScheme 测试重复注册
func TestRegistry_DuplicateScheme(t *testing.T) {
	r := NewDefaultRegistry()

	err := r.Register("mem", func(string) (interfaces.Transport, error) {
		return inmem.New(inmem.Options{}), nil
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrSchemeExists))
}

// TestRegistry_UnknownScheme 测试未注册 scheme
func TestRegistry_UnknownScheme(t *testing.T) {
	r := NewRegistry()

	_, err := r.Create("quic://remote:4242")
	require.Error(t, err)
	assert.True(t, errors.Is(err, interfaces.ErrSchemeNotFound))
}

// TestRegistry_Close_DestroysCreated 测试关闭时销毁所有创建的传输
func TestRegistry_Close_DestroysCreated(t *testing.T) {
	r := NewDefaultRegistry()

	tr, err := r.Create("mem://a")
	require.NoError(t, err)
	require.NoError(t, tr.Connect(context.Background()))

	require.NoError(t, r.Close())

	// 注册表关闭后传输已销毁
	err = tr.Connect(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrDestroyed))

	// 关闭后不可再注册或创建
	err = r.Register("x", func(string) (interfaces.Transport, error) { return nil, nil })
	assert.True(t, errors.Is(err, interfaces.ErrRegistryClosed))
	_, err = r.Create("mem://b")
	assert.True(t, errors.Is(err, interfaces.ErrRegistryClosed))

	// 重复关闭安全
	require.NoError(t, r.Close())
}
