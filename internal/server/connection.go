package server

import (
	"sync"
	"sync/atomic"

	"robots/pkg/logging"
	"robots/pkg/protocol"
	"robots/pkg/transport"
)

// Conn 一个已接入的客户端连接。
// 每个连接配一对协程:listener 把对端指令写进信箱,
// emitter 沿广播表游标把服务器消息发回去。
// 任一方向出错即视为断开,双方都会关闭套接字后退出。
type Conn struct {
	id      int
	stream  *transport.Stream
	mailbox *Mailbox

	// joined 本局是否已消费过 Join,引擎线程独占读写,游戏结束时复位
	joined bool
	// cursor 广播表游标,入会时在会话互斥锁下锚定,之后 emitter 独占推进
	cursor int

	disconnected atomic.Bool
}

func newConn(id int, stream *transport.Stream, counter *PendingCounter) *Conn {
	return &Conn{
		id:      id,
		stream:  stream,
		mailbox: NewMailbox(counter),
	}
}

// Disconnected 连接是否已断开
func (c *Conn) Disconnected() bool {
	return c.disconnected.Load()
}

// markDisconnected 首个发现错误的一方关闭套接字并清空信箱,
// 让另一方也随之出错退出
func (c *Conn) markDisconnected() {
	if c.disconnected.CompareAndSwap(false, true) {
		c.stream.Shutdown()
		c.mailbox.Take()
		logging.Log.Infof("连接 %d: 已断开", c.id)
	}
}

// runListener 反复解码客户端指令并放入信箱。
// 解码失败(对端关闭或畸形数据)对这条连接是致命的。
// listener 是信箱唯一的生产者,退出前必须把信箱取空:
// 套接字 Shutdown 之后解码器仍可能吐出缓冲里的完整消息,
// 若这条消息落在 markDisconnected 清理之后,计数器就会永久多出一。
func (c *Conn) runListener(wg *sync.WaitGroup) {
	defer wg.Done()
	for {
		msg, err := protocol.DecodeClientMessage(c.stream.Decoder())
		if err != nil {
			logging.Log.Debugf("连接 %d: 读取结束: %v", c.id, err)
			c.markDisconnected()
			c.mailbox.Take()
			return
		}
		c.mailbox.Put(msg)
	}
}

// runEmitter 先发送本连接私有的 Hello 副本,随后沿游标
// 消费广播表,发送失败或广播表关闭即退出。
func (c *Conn) runEmitter(hello protocol.Hello, broadcast *Broadcast, wg *sync.WaitGroup) {
	defer wg.Done()

	send := func(m *protocol.ServerMessage) bool {
		enc := c.stream.Encoder()
		if err := protocol.EncodeServerMessage(enc, m); err != nil {
			return false
		}
		return enc.Flush() == nil
	}

	if !send(&protocol.ServerMessage{Kind: protocol.ServerHello, Hello: &hello}) {
		c.markDisconnected()
		return
	}
	for {
		m := broadcast.Next(c.cursor)
		if m == nil {
			return
		}
		if !send(m) {
			logging.Log.Debugf("连接 %d: 发送失败", c.id)
			c.markDisconnected()
			return
		}
		c.cursor++
	}
}
