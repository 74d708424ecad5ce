package server

import (
	"sync"

	"robots/pkg/protocol"
)

// Broadcast 服务器唯一的追加式广播消息表。
// 消息一旦追加就不再修改、不再重排;每个连接的 emitter
// 持有自己的游标独立消费,同一段内所有客户端看到相同的全序。
type Broadcast struct {
	mu     sync.Mutex
	cond   *sync.Cond
	msgs   []*protocol.ServerMessage
	closed bool
}

// NewBroadcast 创建空的广播表
func NewBroadcast() *Broadcast {
	b := &Broadcast{}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Append 追加一条消息并唤醒所有等待的 emitter
func (b *Broadcast) Append(m *protocol.ServerMessage) {
	b.mu.Lock()
	b.msgs = append(b.msgs, m)
	b.mu.Unlock()
	b.cond.Broadcast()
}

// Len 当前消息总数,也是下一条消息将获得的下标
func (b *Broadcast) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.msgs)
}

// Next 阻塞等待下标 cursor 处的消息。
// 广播表已关闭(服务器停机)时返回 nil。
func (b *Broadcast) Next(cursor int) *protocol.ServerMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	for cursor >= len(b.msgs) && !b.closed {
		b.cond.Wait()
	}
	if b.closed {
		return nil
	}
	return b.msgs[cursor]
}

// Close 关闭广播表,唤醒全部 emitter 让它们退出
func (b *Broadcast) Close() {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cond.Broadcast()
}
