package transport

import (
	"bytes"
	"fmt"
	"net"

	"robots/pkg/protocol"
)

// MaxDatagramSize 单个 UDP 数据报承载消息的上限
const MaxDatagramSize = 65507

// Datagram 绑定本地端口、指向一个固定远端的 UDP 收发器。
// 一个数据报恰好承载一条消息:收到的畸形或超长负载由调用方跳过,
// 不影响后续数据报;超长的待发消息报 ErrBadWrite。
type Datagram struct {
	conn    *net.UDPConn
	remote  *net.UDPAddr
	recvBuf []byte
}

// ListenDatagram 绑定本地 port,并解析发送目标 remote(host:port)
func ListenDatagram(port uint16, remote string) (*Datagram, error) {
	remoteAddr, err := net.ResolveUDPAddr("udp", remote)
	if err != nil {
		return nil, fmt.Errorf("解析地址 %s 失败: %w", remote, err)
	}
	conn, err := net.ListenUDP("udp", &net.UDPAddr{Port: int(port)})
	if err != nil {
		return nil, fmt.Errorf("绑定 UDP 端口 %d 失败: %w", port, err)
	}
	return &Datagram{
		conn:    conn,
		remote:  remoteAddr,
		recvBuf: make([]byte, MaxDatagramSize),
	}, nil
}

// Recv 阻塞接收一个数据报,返回覆盖其内容的解码器。
// 解码器读到数据报末尾即报 ErrBadRead。
func (d *Datagram) Recv() (*protocol.Decoder, error) {
	n, _, err := d.conn.ReadFromUDP(d.recvBuf)
	if err != nil {
		return nil, err
	}
	return protocol.NewDecoder(bytes.NewReader(d.recvBuf[:n])), nil
}

// Send 把 encode 编码出的单条消息作为一个数据报发往远端
func (d *Datagram) Send(encode func(*protocol.Encoder) error) error {
	var buf bytes.Buffer
	enc := protocol.NewEncoder(&buf)
	if err := encode(enc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	if buf.Len() > MaxDatagramSize {
		return protocol.ErrBadWrite
	}
	_, err := d.conn.WriteToUDP(buf.Bytes(), d.remote)
	return err
}

// LocalAddr 实际绑定的本地地址
func (d *Datagram) LocalAddr() net.Addr {
	return d.conn.LocalAddr()
}

// Close 关闭套接字,让阻塞中的 Recv 出错返回
func (d *Datagram) Close() error {
	return d.conn.Close()
}
