package server

import (
	"sync"

	"robots/pkg/protocol"
)

// PendingCounter 全服非空信箱的计数。
// 大厅准入循环在它上面休眠,任何连接收到新消息都会把它唤醒。
type PendingCounter struct {
	mu     sync.Mutex
	cond   *sync.Cond
	n      int
	closed bool
}

// NewPendingCounter 创建计数器
func NewPendingCounter() *PendingCounter {
	c := &PendingCounter{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

func (c *PendingCounter) add(delta int) {
	c.mu.Lock()
	c.n += delta
	c.mu.Unlock()
	if delta > 0 {
		c.cond.Broadcast()
	}
}

// Wait 阻塞到存在待处理消息为止;服务器停机时返回 false
func (c *PendingCounter) Wait() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.n <= 0 && !c.closed {
		c.cond.Wait()
	}
	return !c.closed
}

// Close 停机:唤醒所有等待者并让 Wait 永远返回 false
func (c *PendingCounter) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Mailbox 每连接一格的"最新待处理消息"信箱。
// 写入覆盖旧值,读取清空;只保留最近一条未投递消息。
type Mailbox struct {
	mu      sync.Mutex
	msg     *protocol.ClientMessage
	counter *PendingCounter
}

// NewMailbox 创建挂在 counter 上的信箱
func NewMailbox(counter *PendingCounter) *Mailbox {
	return &Mailbox{counter: counter}
}

// Put 放入新消息,覆盖未被取走的旧消息
func (m *Mailbox) Put(msg *protocol.ClientMessage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.msg == nil {
		m.counter.add(1)
	}
	m.msg = msg
}

// Take 取走并清空信箱,空信箱返回 nil
func (m *Mailbox) Take() *protocol.ClientMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	msg := m.msg
	if msg != nil {
		m.msg = nil
		m.counter.add(-1)
	}
	return msg
}
