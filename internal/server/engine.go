package server

import (
	"time"

	"robots/pkg/core"
	"robots/pkg/logging"
	"robots/pkg/protocol"
)

// Engine 引擎线程:大厅准入与回合推进都在这一条协程上完成,
// 它是模拟状态与随机数流的唯一拥有者。
type Engine struct {
	opts    *Options
	session *Session
	random  *core.Random
	stop    chan struct{}

	// lastConnID 上一次被处理的连接号,轮询从它的下一个开始,
	// 刷屏的连接无法饿死别人
	lastConnID int
}

// NewEngine 创建引擎,stop 关闭时所有阻塞点尽快返回 ErrInterrupted
func NewEngine(opts *Options, session *Session, stop chan struct{}) *Engine {
	return &Engine{
		opts:    opts,
		session: session,
		random:  core.NewRandom(opts.Seed),
		stop:    stop,
	}
}

// Run 反复运行"大厅收人、打完一局、回到大厅"的循环,
// 直到服务器停机。
func (e *Engine) Run() error {
	for {
		conns, players, err := e.collectPlayers()
		if err != nil {
			return err
		}
		if err := e.runGame(conns, players); err != nil {
			return err
		}
	}
}

// nextPendingConn 从上次停下的位置开始轮询一圈,
// 返回第一个信箱非空的连接;顺手移除已断开的连接。
// 一圈下来都取不到消息(计数竞态)时返回 nil。
func (e *Engine) nextPendingConn() (*Conn, *protocol.ClientMessage) {
	ids := e.session.sortedConnIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	start := 0
	for i, id := range ids {
		if id > e.lastConnID {
			start = i
			break
		}
	}
	for i := 0; i < len(ids); i++ {
		id := ids[(start+i)%len(ids)]
		c := e.session.conn(id)
		if c == nil {
			continue
		}
		if c.Disconnected() && !c.joined {
			// 移除前取空信箱,否则残留消息会让计数器永久大于零
			c.mailbox.Take()
			e.session.remove(id)
			continue
		}
		if msg := c.mailbox.Take(); msg != nil {
			e.lastConnID = id
			return c, msg
		}
	}
	return nil, nil
}

// collectPlayers 大厅阶段:轮询各连接的信箱直到凑满一局玩家。
// 返回玩家编号到连接号的映射与对局名册。
func (e *Engine) collectPlayers() ([]int, map[uint8]protocol.Player, error) {
	count := int(e.opts.PlayerCount)
	conns := make([]int, 0, count)
	players := make(map[uint8]protocol.Player, count)

	logging.Log.Infof("大厅开启: 等待 %d 名玩家", count)
	for len(players) < count {
		if !e.session.pending.Wait() {
			return nil, nil, ErrInterrupted
		}
		c, msg := e.nextPendingConn()
		if c == nil {
			continue
		}
		// 大厅里只认 Join,其余指令直接丢弃;
		// 同一连接的重复 Join 也不作数
		if msg.Kind != protocol.ClientJoin || c.joined {
			continue
		}
		c.joined = true
		id := uint8(len(players))
		player := protocol.Player{
			Name:    msg.Name,
			Address: c.stream.RemoteAddr().String(),
		}
		players[id] = player
		conns = append(conns, c.id)
		logging.Log.Infof("玩家 %d: %q 来自 %s", id, player.Name, player.Address)
		e.session.appendAccepted(&protocol.ServerMessage{
			Kind:     protocol.ServerAcceptedPlayer,
			Accepted: &protocol.AcceptedPlayer{ID: id, Player: player},
		})
	}
	return conns, players, nil
}

// runGame 打完一整局:回合 0 与 GameStarted 原子入表,
// 之后每个回合睡满时长、引爆、执行指令、广播事件。
func (e *Engine) runGame(conns []int, players map[uint8]protocol.Player) error {
	cfg := core.Config{
		SizeX:           e.opts.SizeX,
		SizeY:           e.opts.SizeY,
		GameLength:      e.opts.GameLength,
		ExplosionRadius: e.opts.ExplosionRadius,
		BombTimer:       e.opts.BombTimer,
		InitialBlocks:   e.opts.InitialBlocks,
	}
	sim := core.NewSim(cfg, e.random, len(conns))

	logging.Log.Infof("对局开始: %d 名玩家, %d 回合", len(conns), cfg.GameLength)
	e.session.beginGame(
		&protocol.ServerMessage{
			Kind:    protocol.ServerGameStarted,
			Started: &protocol.GameStarted{Players: players},
		},
		&protocol.ServerMessage{
			Kind: protocol.ServerTurn,
			Turn: &protocol.Turn{Number: 0, Events: sim.TurnZero()},
		},
	)

	command := func(id uint8) *protocol.ClientMessage {
		c := e.session.conn(conns[id])
		if c == nil {
			return nil
		}
		return c.mailbox.Take()
	}

	timer := time.NewTimer(e.opts.TurnDuration)
	defer timer.Stop()
	// 计数用 uint32:回合数 65535 时 uint16 的循环条件永真
	for turn := uint32(1); turn <= uint32(cfg.GameLength); turn++ {
		select {
		case <-timer.C:
		case <-e.stop:
			return ErrInterrupted
		}
		timer.Reset(e.opts.TurnDuration)

		events := sim.RunTurn(uint16(turn), command)
		e.session.appendTurn(&protocol.ServerMessage{
			Kind: protocol.ServerTurn,
			Turn: &protocol.Turn{Number: uint16(turn), Events: events},
		})
	}

	scores := sim.Scores()
	logging.Log.Infof("对局结束: 计分 %v", scores)
	e.session.resetLobby()
	e.session.endGame(&protocol.ServerMessage{
		Kind:  protocol.ServerGameEnded,
		Ended: &protocol.GameEnded{Scores: scores},
	})
	return nil
}
