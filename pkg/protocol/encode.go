package protocol

import "sort"

// 序列化约定:变体消息先写判别字节再写负载;
// list 写 u32 个数加元素;map 写 u32 个数加按键升序排列的键值对,
// 保证同一消息编码结果逐字节确定。

func sortedKeys[V any](m map[uint8]V) []uint8 {
	keys := make([]uint8, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func encodePosition(e *Encoder, p Position) error {
	if err := e.U16(p.X); err != nil {
		return err
	}
	return e.U16(p.Y)
}

func encodePlayer(e *Encoder, p Player) error {
	if err := e.String(p.Name); err != nil {
		return err
	}
	return e.String(p.Address)
}

func encodeBomb(e *Encoder, b Bomb) error {
	if err := encodePosition(e, b.Position); err != nil {
		return err
	}
	return e.U16(b.Timer)
}

func encodePositionList(e *Encoder, list []Position) error {
	if err := e.U32(uint32(len(list))); err != nil {
		return err
	}
	for _, p := range list {
		if err := encodePosition(e, p); err != nil {
			return err
		}
	}
	return nil
}

func encodePlayerMap(e *Encoder, m map[uint8]Player) error {
	if err := e.U32(uint32(len(m))); err != nil {
		return err
	}
	for _, id := range sortedKeys(m) {
		if err := e.U8(id); err != nil {
			return err
		}
		if err := encodePlayer(e, m[id]); err != nil {
			return err
		}
	}
	return nil
}

func encodeScoreMap(e *Encoder, m map[uint8]uint32) error {
	if err := e.U32(uint32(len(m))); err != nil {
		return err
	}
	for _, id := range sortedKeys(m) {
		if err := e.U8(id); err != nil {
			return err
		}
		if err := e.U32(m[id]); err != nil {
			return err
		}
	}
	return nil
}

func encodePositionMap(e *Encoder, m map[uint8]Position) error {
	if err := e.U32(uint32(len(m))); err != nil {
		return err
	}
	for _, id := range sortedKeys(m) {
		if err := e.U8(id); err != nil {
			return err
		}
		if err := encodePosition(e, m[id]); err != nil {
			return err
		}
	}
	return nil
}

func encodeEvent(e *Encoder, ev *Event) error {
	if err := e.U8(uint8(ev.Kind)); err != nil {
		return err
	}
	switch ev.Kind {
	case EventBombPlaced:
		if err := e.U32(ev.BombPlaced.ID); err != nil {
			return err
		}
		return encodePosition(e, ev.BombPlaced.Position)
	case EventBombExploded:
		if err := e.U32(ev.BombExploded.ID); err != nil {
			return err
		}
		if err := e.U32(uint32(len(ev.BombExploded.PlayersDestroyed))); err != nil {
			return err
		}
		for _, id := range ev.BombExploded.PlayersDestroyed {
			if err := e.U8(id); err != nil {
				return err
			}
		}
		return encodePositionList(e, ev.BombExploded.BlocksDestroyed)
	case EventPlayerMoved:
		if err := e.U8(ev.PlayerMoved.ID); err != nil {
			return err
		}
		return encodePosition(e, ev.PlayerMoved.Position)
	case EventBlockPlaced:
		return encodePosition(e, ev.BlockPlaced.Position)
	default:
		return ErrBadType
	}
}

// EncodeClientMessage 把客户端指令写入编码器(不刷新缓冲)
func EncodeClientMessage(e *Encoder, m *ClientMessage) error {
	if err := e.U8(uint8(m.Kind)); err != nil {
		return err
	}
	switch m.Kind {
	case ClientJoin:
		return e.String(m.Name)
	case ClientMove:
		return e.U8(uint8(m.Direction))
	case ClientPlaceBomb, ClientPlaceBlock:
		return nil
	default:
		return ErrBadType
	}
}

// EncodeServerMessage 把服务器消息写入编码器(不刷新缓冲)
func EncodeServerMessage(e *Encoder, m *ServerMessage) error {
	if err := e.U8(uint8(m.Kind)); err != nil {
		return err
	}
	switch m.Kind {
	case ServerHello:
		h := m.Hello
		if err := e.String(h.ServerName); err != nil {
			return err
		}
		if err := e.U8(h.PlayerCount); err != nil {
			return err
		}
		for _, v := range [...]uint16{h.SizeX, h.SizeY, h.GameLength, h.ExplosionRadius, h.BombTimer} {
			if err := e.U16(v); err != nil {
				return err
			}
		}
		return nil
	case ServerAcceptedPlayer:
		if err := e.U8(m.Accepted.ID); err != nil {
			return err
		}
		return encodePlayer(e, m.Accepted.Player)
	case ServerGameStarted:
		return encodePlayerMap(e, m.Started.Players)
	case ServerTurn:
		if err := e.U16(m.Turn.Number); err != nil {
			return err
		}
		if err := e.U32(uint32(len(m.Turn.Events))); err != nil {
			return err
		}
		for i := range m.Turn.Events {
			if err := encodeEvent(e, &m.Turn.Events[i]); err != nil {
				return err
			}
		}
		return nil
	case ServerGameEnded:
		return encodeScoreMap(e, m.Ended.Scores)
	default:
		return ErrBadType
	}
}

// EncodeInputMessage 把 GUI 输入消息写入编码器(不刷新缓冲)
func EncodeInputMessage(e *Encoder, m *InputMessage) error {
	if err := e.U8(uint8(m.Kind)); err != nil {
		return err
	}
	if m.Kind == InputMove {
		return e.U8(uint8(m.Direction))
	}
	return nil
}

// EncodeDrawMessage 把绘制消息写入编码器(不刷新缓冲)
func EncodeDrawMessage(e *Encoder, m *DrawMessage) error {
	if err := e.U8(uint8(m.Kind)); err != nil {
		return err
	}
	switch m.Kind {
	case DrawLobby:
		l := m.Lobby
		if err := e.String(l.ServerName); err != nil {
			return err
		}
		if err := e.U8(l.PlayerCount); err != nil {
			return err
		}
		for _, v := range [...]uint16{l.SizeX, l.SizeY, l.GameLength, l.ExplosionRadius, l.BombTimer} {
			if err := e.U16(v); err != nil {
				return err
			}
		}
		return encodePlayerMap(e, l.Players)
	case DrawGame:
		g := m.Game
		if err := e.String(g.ServerName); err != nil {
			return err
		}
		for _, v := range [...]uint16{g.SizeX, g.SizeY, g.GameLength, g.Turn} {
			if err := e.U16(v); err != nil {
				return err
			}
		}
		if err := encodePlayerMap(e, g.Players); err != nil {
			return err
		}
		if err := encodePositionMap(e, g.PlayerPositions); err != nil {
			return err
		}
		if err := encodePositionList(e, g.Blocks); err != nil {
			return err
		}
		if err := e.U32(uint32(len(g.Bombs))); err != nil {
			return err
		}
		for _, b := range g.Bombs {
			if err := encodeBomb(e, b); err != nil {
				return err
			}
		}
		if err := encodePositionList(e, g.Explosions); err != nil {
			return err
		}
		return encodeScoreMap(e, g.Scores)
	default:
		return ErrBadType
	}
}
