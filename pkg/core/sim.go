package core

import (
	"container/heap"
	"sort"

	"robots/pkg/protocol"
)

// Config 一局游戏的全部不可变参数
type Config struct {
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
	InitialBlocks   uint16
}

// bombEntry 待爆炸弹,按(爆炸回合,位置,炸弹编号)升序出堆
type bombEntry struct {
	explodeTurn uint16
	pos         protocol.Position
	id          uint32
}

type bombHeap []bombEntry

func (h bombHeap) Len() int { return len(h) }

func (h bombHeap) Less(i, j int) bool {
	a, b := h[i], h[j]
	if a.explodeTurn != b.explodeTurn {
		return a.explodeTurn < b.explodeTurn
	}
	if a.pos.X != b.pos.X {
		return a.pos.X < b.pos.X
	}
	if a.pos.Y != b.pos.Y {
		return a.pos.Y < b.pos.Y
	}
	return a.id < b.id
}

func (h bombHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *bombHeap) Push(x any) { *h = append(*h, x.(bombEntry)) }

func (h *bombHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

// Sim 一局游戏的权威模拟状态。
// 不做任何同步与 I/O,由引擎线程独占驱动;
// 事件的产生顺序就是写上线路的顺序,必须保持确定。
type Sim struct {
	cfg    Config
	random *Random

	positions  []protocol.Position
	playersAt  map[protocol.Position]map[uint8]struct{}
	blocks     map[protocol.Position]struct{}
	bombs      bombHeap
	nextBombID uint32
	scores     map[uint8]uint32

	destroyedPlayers map[uint8]struct{}
	destroyedBlocks  map[protocol.Position]struct{}
}

// NewSim 为 playerCount 名玩家开一局,所有计分从零开始。
// random 必须是服务器唯一的那条随机数流,跨对局延续。
func NewSim(cfg Config, random *Random, playerCount int) *Sim {
	s := &Sim{
		cfg:       cfg,
		random:    random,
		positions: make([]protocol.Position, playerCount),
		playersAt: make(map[protocol.Position]map[uint8]struct{}),
		blocks:    make(map[protocol.Position]struct{}),
		scores:    make(map[uint8]uint32, playerCount),
	}
	for id := 0; id < playerCount; id++ {
		s.scores[uint8(id)] = 0
	}
	return s
}

func (s *Sim) drawPosition() protocol.Position {
	x := uint16(s.random.Next() % uint64(s.cfg.SizeX))
	y := uint16(s.random.Next() % uint64(s.cfg.SizeY))
	return protocol.Position{X: x, Y: y}
}

func (s *Sim) placePlayer(id uint8, pos protocol.Position) {
	old := s.positions[id]
	if cell, ok := s.playersAt[old]; ok {
		delete(cell, id)
		if len(cell) == 0 {
			delete(s.playersAt, old)
		}
	}
	s.positions[id] = pos
	cell := s.playersAt[pos]
	if cell == nil {
		cell = make(map[uint8]struct{})
		s.playersAt[pos] = cell
	}
	cell[id] = struct{}{}
}

// TurnZero 生成开局回合:按加入顺序抽取每名玩家的出生格,
// 再抽取初始方块;重复抽中的方块格静默跳过,随机数照常消耗。
func (s *Sim) TurnZero() []protocol.Event {
	events := make([]protocol.Event, 0, len(s.positions))
	for id := range s.positions {
		pos := s.drawPosition()
		s.placePlayer(uint8(id), pos)
		events = append(events, protocol.Event{
			Kind:        protocol.EventPlayerMoved,
			PlayerMoved: &protocol.PlayerMoved{ID: uint8(id), Position: pos},
		})
	}
	for i := uint16(0); i < s.cfg.InitialBlocks; i++ {
		pos := s.drawPosition()
		if _, exists := s.blocks[pos]; exists {
			continue
		}
		s.blocks[pos] = struct{}{}
		events = append(events, protocol.Event{
			Kind:        protocol.EventBlockPlaced,
			BlockPlaced: &protocol.BlockPlaced{Position: pos},
		})
	}
	return events
}

// 格子里的玩家按编号升序进入事件列表
func sortedIDs(cell map[uint8]struct{}) []uint8 {
	ids := make([]uint8, 0, len(cell))
	for id := range cell {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// processCell 记录 pos 上被波及的玩家与方块,返回射线是否继续延伸
func (s *Sim) processCell(pos protocol.Position, ev *protocol.BombExploded) bool {
	for _, id := range sortedIDs(s.playersAt[pos]) {
		ev.PlayersDestroyed = append(ev.PlayersDestroyed, id)
		s.destroyedPlayers[id] = struct{}{}
	}
	if _, blocked := s.blocks[pos]; blocked {
		ev.BlocksDestroyed = append(ev.BlocksDestroyed, pos)
		s.destroyedBlocks[pos] = struct{}{}
		return false
	}
	return true
}

// explode 引爆本回合到期的全部炸弹。被炸掉的方块在所有爆炸
// 处理完后统一移除,因此同回合的多颗炸弹看到同一副方块布局。
func (s *Sim) explode(turn uint16, events []protocol.Event) []protocol.Event {
	for len(s.bombs) > 0 && s.bombs[0].explodeTurn == turn {
		entry := heap.Pop(&s.bombs).(bombEntry)
		ev := &protocol.BombExploded{ID: entry.id}
		VisitExplosion(entry.pos, s.cfg.ExplosionRadius, s.cfg.SizeX, s.cfg.SizeY,
			func(pos protocol.Position) bool {
				return s.processCell(pos, ev)
			})
		events = append(events, protocol.Event{Kind: protocol.EventBombExploded, BombExploded: ev})
	}
	for pos := range s.destroyedBlocks {
		delete(s.blocks, pos)
	}
	return events
}

// RunTurn 模拟第 turn 回合(turn 从 1 起),返回回合事件。
// command 为每名玩家返回其信箱中最新的待处理指令并清空信箱;
// 无论指令是否生效,信箱都会被取空一次。
func (s *Sim) RunTurn(turn uint16, command func(id uint8) *protocol.ClientMessage) []protocol.Event {
	s.destroyedPlayers = make(map[uint8]struct{})
	s.destroyedBlocks = make(map[protocol.Position]struct{})

	events := s.explode(turn, nil)

	for id := 0; id < len(s.positions); id++ {
		playerID := uint8(id)
		msg := command(playerID)

		if _, dead := s.destroyedPlayers[playerID]; dead {
			// 被炸到的玩家传送到新抽取的格子并计一次死亡,
			// 其待处理指令作废
			pos := s.drawPosition()
			s.placePlayer(playerID, pos)
			s.scores[playerID]++
			events = append(events, protocol.Event{
				Kind:        protocol.EventPlayerMoved,
				PlayerMoved: &protocol.PlayerMoved{ID: playerID, Position: pos},
			})
			continue
		}
		if msg == nil {
			continue
		}

		switch msg.Kind {
		case protocol.ClientPlaceBomb:
			bombID := s.nextBombID
			s.nextBombID++
			pos := s.positions[playerID]
			heap.Push(&s.bombs, bombEntry{
				explodeTurn: turn + s.cfg.BombTimer,
				pos:         pos,
				id:          bombID,
			})
			events = append(events, protocol.Event{
				Kind:       protocol.EventBombPlaced,
				BombPlaced: &protocol.BombPlaced{ID: bombID, Position: pos},
			})
		case protocol.ClientPlaceBlock:
			pos := s.positions[playerID]
			if _, exists := s.blocks[pos]; exists {
				break
			}
			s.blocks[pos] = struct{}{}
			events = append(events, protocol.Event{
				Kind:        protocol.EventBlockPlaced,
				BlockPlaced: &protocol.BlockPlaced{Position: pos},
			})
		case protocol.ClientMove:
			target, ok := Step(s.positions[playerID], msg.Direction, s.cfg.SizeX, s.cfg.SizeY)
			if !ok {
				break
			}
			if _, blocked := s.blocks[target]; blocked {
				break
			}
			s.placePlayer(playerID, target)
			events = append(events, protocol.Event{
				Kind:        protocol.EventPlayerMoved,
				PlayerMoved: &protocol.PlayerMoved{ID: playerID, Position: target},
			})
		}
	}
	return events
}

// Scores 当前计分表的副本
func (s *Sim) Scores() map[uint8]uint32 {
	scores := make(map[uint8]uint32, len(s.scores))
	for id, score := range s.scores {
		scores[id] = score
	}
	return scores
}

// Position 玩家当前所在格
func (s *Sim) Position(id uint8) protocol.Position {
	return s.positions[id]
}
