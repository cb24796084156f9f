// Package inmem 实现内存参考传输
//
// 内存传输是传输契约的参考实现，不涉及真实网络：
// 通过 NewPair 构成回环对，一端发送的事件直接扇出到
// 另一端的处理器。用于测试，也可作为进程内事件桥接。
//
// 连接状态机、destroyed 永久标志、统计计数和
// InjectFault 驱动的自主重连均与契约一致。
package inmem
