package transport

import (
	"fmt"
	"net"

	"robots/pkg/protocol"
)

// Stream 绑定在一条 TCP 连接上的全双工消息流。
// 消息自定界,流上没有额外的应用层分帧;
// 读阻塞到消息完整或对端关闭,写阻塞到消息写完或套接字出错。
type Stream struct {
	conn net.Conn
	enc  *protocol.Encoder
	dec  *protocol.Decoder
}

// NewStream 包装一条已建立的连接,关闭 Nagle 算法以降低延迟
func NewStream(conn net.Conn) *Stream {
	if tcpConn, ok := conn.(*net.TCPConn); ok {
		_ = tcpConn.SetNoDelay(true)
	}
	return &Stream{
		conn: conn,
		enc:  protocol.NewEncoder(conn),
		dec:  protocol.NewDecoder(conn),
	}
}

// Dial 连接到 host:port 形式的远端地址
func Dial(addr string) (*Stream, error) {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("连接 %s 失败: %w", addr, err)
	}
	return NewStream(conn), nil
}

// Encoder 发送方向的编码器,调用方编码完整消息后负责 Flush
func (s *Stream) Encoder() *protocol.Encoder {
	return s.enc
}

// Decoder 接收方向的解码器
func (s *Stream) Decoder() *protocol.Decoder {
	return s.dec
}

// RemoteAddr 对端地址
func (s *Stream) RemoteAddr() net.Addr {
	return s.conn.RemoteAddr()
}

// Close 关闭底层连接
func (s *Stream) Close() error {
	return s.conn.Close()
}

// Shutdown 同时断开读写两个方向,让阻塞在本连接上的协程立即出错返回。
// 关闭流程用它强制唤醒 listener 与 emitter。
func (s *Stream) Shutdown() {
	if tcpConn, ok := s.conn.(*net.TCPConn); ok {
		_ = tcpConn.CloseRead()
		_ = tcpConn.CloseWrite()
	}
	_ = s.conn.Close()
}

// Listener 服务器侧 TCP 监听器
type Listener struct {
	ln net.Listener
}

// Listen 在本机所有接口的 port 端口上监听
func Listen(port uint16) (*Listener, error) {
	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return nil, fmt.Errorf("监听端口 %d 失败: %w", port, err)
	}
	return &Listener{ln: ln}, nil
}

// Accept 等待下一个入站连接
func (l *Listener) Accept() (*Stream, error) {
	conn, err := l.ln.Accept()
	if err != nil {
		return nil, err
	}
	return NewStream(conn), nil
}

// Addr 实际监听地址
func (l *Listener) Addr() net.Addr {
	return l.ln.Addr()
}

// Close 停止监听,令阻塞中的 Accept 出错返回
func (l *Listener) Close() error {
	return l.ln.Close()
}
