package server

import (
	"sort"
	"sync"

	"robots/pkg/logging"
	"robots/pkg/protocol"
	"robots/pkg/transport"
)

// State 服务器所处阶段
type State int

const (
	// StateLobby 大厅:等待玩家加入
	StateLobby State = iota
	// StateGame 对局进行中
	StateGame
)

// Session 会话管理器:连接表、广播分段头与大厅/对局状态。
//
// 广播表在逻辑上分为三段:每连接私有的 Hello、按接纳顺序的
// AcceptedPlayer 段、当前对局段(GameStarted、各回合、GameEnded)。
// 新连接的锚定下标与分段头的推进都在同一把会话互斥锁下完成,
// 因此"选定分段头"与"开始发送"之间不会插进任何追加。
type Session struct {
	mu sync.Mutex

	hello     protocol.Hello
	broadcast *Broadcast
	pending   *PendingCounter

	conns      map[int]*Conn
	nextConnID int

	state State
	// acceptedHead 当前大厅 AcceptedPlayer 段的起始下标
	acceptedHead int
	// gameHead 当前对局段的起始下标,仅在 StateGame 有意义
	gameHead int
}

// NewSession 以 Hello 中的静态参数创建会话管理器
func NewSession(hello protocol.Hello) *Session {
	return &Session{
		hello:     hello,
		broadcast: NewBroadcast(),
		pending:   NewPendingCounter(),
		conns:     make(map[int]*Conn),
	}
}

// Attach 接纳一个新连接:分配稠密连接号,按当前状态锚定游标
// (大厅锚到 AcceptedPlayer 段头,对局中锚到当前对局段头),
// 然后启动它的 listener/emitter 协程对。
func (s *Session) Attach(stream *transport.Stream, wg *sync.WaitGroup) *Conn {
	s.mu.Lock()
	id := s.nextConnID
	s.nextConnID++
	c := newConn(id, stream, s.pending)
	if s.state == StateGame {
		c.cursor = s.gameHead
	} else {
		c.cursor = s.acceptedHead
	}
	s.conns[id] = c
	s.mu.Unlock()

	logging.Log.Infof("连接 %d: 来自 %s", id, stream.RemoteAddr())

	wg.Add(2)
	go c.runListener(wg)
	go c.runEmitter(s.hello, s.broadcast, wg)
	return c
}

// conn 按连接号查找,已移除返回 nil
func (s *Session) conn(id int) *Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conns[id]
}

// remove 从连接表中移除(套接字已由连接自己关闭)
func (s *Session) remove(id int) {
	s.mu.Lock()
	delete(s.conns, id)
	s.mu.Unlock()
}

// sortedConnIDs 连接号升序快照,准入轮询按这个顺序扫描
func (s *Session) sortedConnIDs() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int, 0, len(s.conns))
	for id := range s.conns {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// appendAccepted 大厅内追加一条 AcceptedPlayer
func (s *Session) appendAccepted(m *protocol.ServerMessage) {
	s.broadcast.Append(m)
}

// beginGame 进入对局:推进对局段头并原子地追加 GameStarted 与回合 0。
// 对局中接入的连接从 GameStarted 开始重放,不会看到之前的
// AcceptedPlayer(名册已随 GameStarted 下发)。
func (s *Session) beginGame(started, turnZero *protocol.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateGame
	s.gameHead = s.broadcast.Len()
	s.broadcast.Append(started)
	s.broadcast.Append(turnZero)
}

// appendTurn 对局中追加一条回合消息
func (s *Session) appendTurn(m *protocol.ServerMessage) {
	s.broadcast.Append(m)
}

// endGame 追加 GameEnded 并回到大厅。
// 新的 AcceptedPlayer 段头指向 GameEnded 之后:
// 下一局大厅里接入的连接不会收到上一局的任何消息。
func (s *Session) endGame(ended *protocol.ServerMessage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = StateLobby
	s.broadcast.Append(ended)
	s.acceptedHead = s.broadcast.Len()
}

// resetLobby 复位所有连接的 Join 标记。
// 必须在 GameEnded 入表之前调用:客户端看到 GameEnded 就可能立刻
// 发来新的 Join,不能让它落在复位之前被当成旧标记处理。
// 信箱不清空,残留的对局指令由准入循环照常丢弃。
func (s *Session) resetLobby() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.joined = false
	}
}

// CloseAll 停机:断开所有客户端套接字的读写两半
func (s *Session) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range s.conns {
		c.stream.Shutdown()
	}
}
