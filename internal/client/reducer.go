package client

import (
	"sort"

	"robots/pkg/core"
	"robots/pkg/protocol"
)

// Reducer 把服务器的增量事件流折叠成自洽的绘制快照。
// 服务器只广播变化量,炸弹倒计时、上回合爆炸波及的格子与
// 累计计分都要在这里推导出来。不做同步,由调用方持锁驱动。
type Reducer struct {
	hello protocol.Hello
	state protocol.DrawMessageKind
	turn  uint16

	players     map[uint8]protocol.Player
	positions   map[uint8]protocol.Position
	blocks      map[protocol.Position]struct{}
	activeBombs map[uint32]protocol.Bomb
	explosions  map[protocol.Position]struct{}
	scores      map[uint8]uint32
}

// NewReducer 初始为空的大厅状态
func NewReducer() *Reducer {
	return &Reducer{
		state:       protocol.DrawLobby,
		players:     make(map[uint8]protocol.Player),
		positions:   make(map[uint8]protocol.Position),
		blocks:      make(map[protocol.Position]struct{}),
		activeBombs: make(map[uint32]protocol.Bomb),
		explosions:  make(map[protocol.Position]struct{}),
		scores:      make(map[uint8]uint32),
	}
}

// InLobby 当前是否处于大厅状态,输入循环据此决定发 Join 还是指令
func (r *Reducer) InLobby() bool {
	return r.state == protocol.DrawLobby
}

// Apply 折叠一条服务器消息,返回应发给 GUI 的绘制消息。
// GameStarted 不触发绘制(紧随其后的回合 0 才有实质内容),返回 nil。
func (r *Reducer) Apply(m *protocol.ServerMessage) *protocol.DrawMessage {
	switch m.Kind {
	case protocol.ServerHello:
		// 重连时会再次收到 Hello,重复应用得到同样的大厅画面
		r.hello = *m.Hello
		r.state = protocol.DrawLobby
	case protocol.ServerAcceptedPlayer:
		r.players[m.Accepted.ID] = m.Accepted.Player
		r.scores[m.Accepted.ID] = 0
	case protocol.ServerGameStarted:
		r.state = protocol.DrawGame
		r.players = make(map[uint8]protocol.Player, len(m.Started.Players))
		r.positions = make(map[uint8]protocol.Position, len(m.Started.Players))
		r.blocks = make(map[protocol.Position]struct{})
		r.scores = make(map[uint8]uint32, len(m.Started.Players))
		for id, p := range m.Started.Players {
			r.players[id] = p
			r.scores[id] = 0
		}
		return nil
	case protocol.ServerTurn:
		r.applyTurn(m.Turn)
	case protocol.ServerGameEnded:
		r.state = protocol.DrawLobby
		r.positions = make(map[uint8]protocol.Position)
		r.blocks = make(map[protocol.Position]struct{})
		r.activeBombs = make(map[uint32]protocol.Bomb)
		r.explosions = make(map[protocol.Position]struct{})
		r.scores = make(map[uint8]uint32, len(m.Ended.Scores))
		for id, score := range m.Ended.Scores {
			r.scores[id] = score
		}
	}
	return r.draw()
}

// applyTurn 按事件顺序推进一个回合。被炸掉的方块在所有事件
// 处理完后统一移除,爆炸射线因此都打在回合开始时的方块布局上。
func (r *Reducer) applyTurn(t *protocol.Turn) {
	r.turn = t.Number
	for id, bomb := range r.activeBombs {
		bomb.Timer--
		r.activeBombs[id] = bomb
	}
	r.explosions = make(map[protocol.Position]struct{})
	destroyedPlayers := make(map[uint8]struct{})
	destroyedBlocks := make(map[protocol.Position]struct{})

	for _, ev := range t.Events {
		switch ev.Kind {
		case protocol.EventBombPlaced:
			r.activeBombs[ev.BombPlaced.ID] = protocol.Bomb{
				Position: ev.BombPlaced.Position,
				Timer:    r.hello.BombTimer,
			}
		case protocol.EventBombExploded:
			ex := ev.BombExploded
			if bomb, known := r.activeBombs[ex.ID]; known {
				delete(r.activeBombs, ex.ID)
				core.VisitExplosion(bomb.Position, r.hello.ExplosionRadius,
					r.hello.SizeX, r.hello.SizeY,
					func(pos protocol.Position) bool {
						r.explosions[pos] = struct{}{}
						_, blocked := r.blocks[pos]
						return !blocked
					})
			}
			for _, id := range ex.PlayersDestroyed {
				destroyedPlayers[id] = struct{}{}
			}
			for _, pos := range ex.BlocksDestroyed {
				destroyedBlocks[pos] = struct{}{}
			}
		case protocol.EventPlayerMoved:
			r.positions[ev.PlayerMoved.ID] = ev.PlayerMoved.Position
		case protocol.EventBlockPlaced:
			r.blocks[ev.BlockPlaced.Position] = struct{}{}
		}
	}

	for id := range destroyedPlayers {
		r.scores[id]++
	}
	for pos := range destroyedBlocks {
		delete(r.blocks, pos)
	}
}

func copyPlayers(src map[uint8]protocol.Player) map[uint8]protocol.Player {
	dst := make(map[uint8]protocol.Player, len(src))
	for id, p := range src {
		dst[id] = p
	}
	return dst
}

func copyScores(src map[uint8]uint32) map[uint8]uint32 {
	dst := make(map[uint8]uint32, len(src))
	for id, s := range src {
		dst[id] = s
	}
	return dst
}

// sortedPositions 集合到列表的投影,按(x,y)升序保证帧间稳定
func sortedPositions(set map[protocol.Position]struct{}) []protocol.Position {
	out := make([]protocol.Position, 0, len(set))
	for pos := range set {
		out = append(out, pos)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].X != out[j].X {
			return out[i].X < out[j].X
		}
		return out[i].Y < out[j].Y
	})
	return out
}

// sortedBombs 炸弹按编号升序投影成列表
func (r *Reducer) sortedBombs() []protocol.Bomb {
	ids := make([]uint32, 0, len(r.activeBombs))
	for id := range r.activeBombs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	out := make([]protocol.Bomb, 0, len(ids))
	for _, id := range ids {
		out = append(out, r.activeBombs[id])
	}
	return out
}

// draw 产出当前状态的完整绘制快照,所有集合均为副本
func (r *Reducer) draw() *protocol.DrawMessage {
	if r.state == protocol.DrawLobby {
		return &protocol.DrawMessage{
			Kind: protocol.DrawLobby,
			Lobby: &protocol.LobbyDraw{
				ServerName:      r.hello.ServerName,
				PlayerCount:     r.hello.PlayerCount,
				SizeX:           r.hello.SizeX,
				SizeY:           r.hello.SizeY,
				GameLength:      r.hello.GameLength,
				ExplosionRadius: r.hello.ExplosionRadius,
				BombTimer:       r.hello.BombTimer,
				Players:         copyPlayers(r.players),
			},
		}
	}
	positions := make(map[uint8]protocol.Position, len(r.positions))
	for id, pos := range r.positions {
		positions[id] = pos
	}
	return &protocol.DrawMessage{
		Kind: protocol.DrawGame,
		Game: &protocol.GameDraw{
			ServerName:      r.hello.ServerName,
			SizeX:           r.hello.SizeX,
			SizeY:           r.hello.SizeY,
			GameLength:      r.hello.GameLength,
			Turn:            r.turn,
			Players:         copyPlayers(r.players),
			PlayerPositions: positions,
			Blocks:          sortedPositions(r.blocks),
			Bombs:           r.sortedBombs(),
			Explosions:      sortedPositions(r.explosions),
			Scores:          copyScores(r.scores),
		},
	}
}
