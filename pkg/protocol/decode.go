package protocol

// 反序列化:判别字节超出取值范围报 ErrBadType,
// 声明的元素个数未读够就断流报 ErrBadRead。
// 恶意的超大个数声明不预分配,靠 append 随读随涨。

const prealloc = 64

func decodePosition(d *Decoder) (Position, error) {
	x, err := d.U16()
	if err != nil {
		return Position{}, err
	}
	y, err := d.U16()
	if err != nil {
		return Position{}, err
	}
	return Position{X: x, Y: y}, nil
}

func decodePlayer(d *Decoder) (Player, error) {
	name, err := d.String()
	if err != nil {
		return Player{}, err
	}
	address, err := d.String()
	if err != nil {
		return Player{}, err
	}
	return Player{Name: name, Address: address}, nil
}

func decodeBomb(d *Decoder) (Bomb, error) {
	pos, err := decodePosition(d)
	if err != nil {
		return Bomb{}, err
	}
	timer, err := d.U16()
	if err != nil {
		return Bomb{}, err
	}
	return Bomb{Position: pos, Timer: timer}, nil
}

func decodeDirection(d *Decoder) (Direction, error) {
	v, err := d.U8()
	if err != nil {
		return 0, err
	}
	if v > uint8(DirLeft) {
		return 0, ErrBadType
	}
	return Direction(v), nil
}

func decodePositionList(d *Decoder) ([]Position, error) {
	count, err := d.U32()
	if err != nil {
		return nil, err
	}
	list := make([]Position, 0, int(min(count, prealloc)))
	for i := uint32(0); i < count; i++ {
		p, err := decodePosition(d)
		if err != nil {
			return nil, err
		}
		list = append(list, p)
	}
	return list, nil
}

func decodePlayerMap(d *Decoder) (map[uint8]Player, error) {
	count, err := d.U32()
	if err != nil {
		return nil, err
	}
	m := make(map[uint8]Player, int(min(count, prealloc)))
	for i := uint32(0); i < count; i++ {
		id, err := d.U8()
		if err != nil {
			return nil, err
		}
		p, err := decodePlayer(d)
		if err != nil {
			return nil, err
		}
		m[id] = p
	}
	return m, nil
}

func decodeScoreMap(d *Decoder) (map[uint8]uint32, error) {
	count, err := d.U32()
	if err != nil {
		return nil, err
	}
	m := make(map[uint8]uint32, int(min(count, prealloc)))
	for i := uint32(0); i < count; i++ {
		id, err := d.U8()
		if err != nil {
			return nil, err
		}
		score, err := d.U32()
		if err != nil {
			return nil, err
		}
		m[id] = score
	}
	return m, nil
}

func decodePositionMap(d *Decoder) (map[uint8]Position, error) {
	count, err := d.U32()
	if err != nil {
		return nil, err
	}
	m := make(map[uint8]Position, int(min(count, prealloc)))
	for i := uint32(0); i < count; i++ {
		id, err := d.U8()
		if err != nil {
			return nil, err
		}
		p, err := decodePosition(d)
		if err != nil {
			return nil, err
		}
		m[id] = p
	}
	return m, nil
}

func decodeEvent(d *Decoder) (Event, error) {
	kind, err := d.U8()
	if err != nil {
		return Event{}, err
	}
	switch EventKind(kind) {
	case EventBombPlaced:
		id, err := d.U32()
		if err != nil {
			return Event{}, err
		}
		pos, err := decodePosition(d)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventBombPlaced, BombPlaced: &BombPlaced{ID: id, Position: pos}}, nil
	case EventBombExploded:
		id, err := d.U32()
		if err != nil {
			return Event{}, err
		}
		count, err := d.U32()
		if err != nil {
			return Event{}, err
		}
		players := make([]uint8, 0, int(min(count, prealloc)))
		for i := uint32(0); i < count; i++ {
			p, err := d.U8()
			if err != nil {
				return Event{}, err
			}
			players = append(players, p)
		}
		blocks, err := decodePositionList(d)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventBombExploded, BombExploded: &BombExploded{
			ID:               id,
			PlayersDestroyed: players,
			BlocksDestroyed:  blocks,
		}}, nil
	case EventPlayerMoved:
		id, err := d.U8()
		if err != nil {
			return Event{}, err
		}
		pos, err := decodePosition(d)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventPlayerMoved, PlayerMoved: &PlayerMoved{ID: id, Position: pos}}, nil
	case EventBlockPlaced:
		pos, err := decodePosition(d)
		if err != nil {
			return Event{}, err
		}
		return Event{Kind: EventBlockPlaced, BlockPlaced: &BlockPlaced{Position: pos}}, nil
	default:
		return Event{}, ErrBadType
	}
}

// DecodeClientMessage 读取一条完整的客户端指令
func DecodeClientMessage(d *Decoder) (*ClientMessage, error) {
	kind, err := d.U8()
	if err != nil {
		return nil, err
	}
	m := &ClientMessage{Kind: ClientMessageKind(kind)}
	switch m.Kind {
	case ClientJoin:
		if m.Name, err = d.String(); err != nil {
			return nil, err
		}
	case ClientMove:
		if m.Direction, err = decodeDirection(d); err != nil {
			return nil, err
		}
	case ClientPlaceBomb, ClientPlaceBlock:
	default:
		return nil, ErrBadType
	}
	return m, nil
}

// DecodeServerMessage 读取一条完整的服务器消息
func DecodeServerMessage(d *Decoder) (*ServerMessage, error) {
	kind, err := d.U8()
	if err != nil {
		return nil, err
	}
	m := &ServerMessage{Kind: ServerMessageKind(kind)}
	switch m.Kind {
	case ServerHello:
		h := &Hello{}
		if h.ServerName, err = d.String(); err != nil {
			return nil, err
		}
		if h.PlayerCount, err = d.U8(); err != nil {
			return nil, err
		}
		for _, field := range [...]*uint16{&h.SizeX, &h.SizeY, &h.GameLength, &h.ExplosionRadius, &h.BombTimer} {
			if *field, err = d.U16(); err != nil {
				return nil, err
			}
		}
		m.Hello = h
	case ServerAcceptedPlayer:
		a := &AcceptedPlayer{}
		if a.ID, err = d.U8(); err != nil {
			return nil, err
		}
		if a.Player, err = decodePlayer(d); err != nil {
			return nil, err
		}
		m.Accepted = a
	case ServerGameStarted:
		players, err := decodePlayerMap(d)
		if err != nil {
			return nil, err
		}
		m.Started = &GameStarted{Players: players}
	case ServerTurn:
		t := &Turn{}
		if t.Number, err = d.U16(); err != nil {
			return nil, err
		}
		count, err := d.U32()
		if err != nil {
			return nil, err
		}
		t.Events = make([]Event, 0, int(min(count, prealloc)))
		for i := uint32(0); i < count; i++ {
			ev, err := decodeEvent(d)
			if err != nil {
				return nil, err
			}
			t.Events = append(t.Events, ev)
		}
		m.Turn = t
	case ServerGameEnded:
		scores, err := decodeScoreMap(d)
		if err != nil {
			return nil, err
		}
		m.Ended = &GameEnded{Scores: scores}
	default:
		return nil, ErrBadType
	}
	return m, nil
}

// DecodeInputMessage 读取一条 GUI 输入消息
func DecodeInputMessage(d *Decoder) (*InputMessage, error) {
	kind, err := d.U8()
	if err != nil {
		return nil, err
	}
	m := &InputMessage{Kind: InputMessageKind(kind)}
	switch m.Kind {
	case InputMove:
		if m.Direction, err = decodeDirection(d); err != nil {
			return nil, err
		}
	case InputPlaceBomb, InputPlaceBlock:
	default:
		return nil, ErrBadType
	}
	return m, nil
}

// DecodeDrawMessage 读取一条绘制消息
func DecodeDrawMessage(d *Decoder) (*DrawMessage, error) {
	kind, err := d.U8()
	if err != nil {
		return nil, err
	}
	m := &DrawMessage{Kind: DrawMessageKind(kind)}
	switch m.Kind {
	case DrawLobby:
		l := &LobbyDraw{}
		if l.ServerName, err = d.String(); err != nil {
			return nil, err
		}
		if l.PlayerCount, err = d.U8(); err != nil {
			return nil, err
		}
		for _, field := range [...]*uint16{&l.SizeX, &l.SizeY, &l.GameLength, &l.ExplosionRadius, &l.BombTimer} {
			if *field, err = d.U16(); err != nil {
				return nil, err
			}
		}
		if l.Players, err = decodePlayerMap(d); err != nil {
			return nil, err
		}
		m.Lobby = l
	case DrawGame:
		g := &GameDraw{}
		if g.ServerName, err = d.String(); err != nil {
			return nil, err
		}
		for _, field := range [...]*uint16{&g.SizeX, &g.SizeY, &g.GameLength, &g.Turn} {
			if *field, err = d.U16(); err != nil {
				return nil, err
			}
		}
		if g.Players, err = decodePlayerMap(d); err != nil {
			return nil, err
		}
		if g.PlayerPositions, err = decodePositionMap(d); err != nil {
			return nil, err
		}
		if g.Blocks, err = decodePositionList(d); err != nil {
			return nil, err
		}
		count, err := d.U32()
		if err != nil {
			return nil, err
		}
		g.Bombs = make([]Bomb, 0, int(min(count, prealloc)))
		for i := uint32(0); i < count; i++ {
			b, err := decodeBomb(d)
			if err != nil {
				return nil, err
			}
			g.Bombs = append(g.Bombs, b)
		}
		if g.Explosions, err = decodePositionList(d); err != nil {
			return nil, err
		}
		if g.Scores, err = decodeScoreMap(d); err != nil {
			return nil, err
		}
		m.Game = g
	default:
		return nil, ErrBadType
	}
	return m, nil
}
