// Package interfaces 定义 ElemFlow 的公共接口
//
// 本包按组件组织接口定义（一个接口文件 = 一个实现目录）：
//
//   - lifecycle.go - 元素生命周期管理（internal/core/lifecycle）
//   - events.go    - 元素事件管理（internal/core/eventmanager）
//   - transport.go - 事件传输层（internal/core/transport/inmem）
//   - registry.go  - 传输注册表（internal/core/transport）
//
// 外部协作者（样式适配、内容解析策略、主题工具）只以接口形式出现，
// 具体实现不在本仓库范围内。
package interfaces
