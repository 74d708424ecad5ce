package client

import (
	"reflect"
	"testing"

	"robots/pkg/protocol"
)

func reducerHello() *protocol.ServerMessage {
	return &protocol.ServerMessage{Kind: protocol.ServerHello, Hello: &protocol.Hello{
		ServerName:      "测试服",
		PlayerCount:     2,
		SizeX:           10,
		SizeY:           10,
		GameLength:      50,
		ExplosionRadius: 2,
		BombTimer:       3,
	}}
}

func accepted(id uint8, name string) *protocol.ServerMessage {
	return &protocol.ServerMessage{
		Kind:     protocol.ServerAcceptedPlayer,
		Accepted: &protocol.AcceptedPlayer{ID: id, Player: protocol.Player{Name: name, Address: "1.1.1.1:1"}},
	}
}

func started(players map[uint8]protocol.Player) *protocol.ServerMessage {
	return &protocol.ServerMessage{
		Kind:    protocol.ServerGameStarted,
		Started: &protocol.GameStarted{Players: players},
	}
}

func turn(n uint16, events ...protocol.Event) *protocol.ServerMessage {
	return &protocol.ServerMessage{
		Kind: protocol.ServerTurn,
		Turn: &protocol.Turn{Number: n, Events: events},
	}
}

func TestReducerHelloIdempotent(t *testing.T) {
	r := NewReducer()
	first := r.Apply(reducerHello())
	second := r.Apply(reducerHello())
	if first.Kind != protocol.DrawLobby {
		t.Fatalf("Hello 后应是大厅画面: %+v", first)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("重复 Hello 应得到相同画面:\n1: %+v\n2: %+v", first.Lobby, second.Lobby)
	}
	if first.Lobby.ServerName != "测试服" || first.Lobby.BombTimer != 3 {
		t.Fatalf("大厅画面应缓存静态参数: %+v", first.Lobby)
	}
}

func TestReducerAcceptedPlayerStaysLobby(t *testing.T) {
	r := NewReducer()
	r.Apply(reducerHello())
	draw := r.Apply(accepted(0, "小明"))
	if draw.Kind != protocol.DrawLobby {
		t.Fatalf("接纳玩家不应切出大厅: %+v", draw)
	}
	if draw.Lobby.Players[0].Name != "小明" {
		t.Fatalf("玩家表不符: %+v", draw.Lobby.Players)
	}
	if !r.InLobby() {
		t.Fatalf("应仍处于大厅状态")
	}
}

func TestReducerGameStartedSuppressesDraw(t *testing.T) {
	r := NewReducer()
	r.Apply(reducerHello())
	r.Apply(accepted(0, "a"))
	draw := r.Apply(started(map[uint8]protocol.Player{
		0: {Name: "a", Address: "x"},
		1: {Name: "b", Address: "y"},
	}))
	if draw != nil {
		t.Fatalf("GameStarted 不应触发绘制: %+v", draw)
	}
	if r.InLobby() {
		t.Fatalf("GameStarted 后应进入对局状态")
	}
}

func TestReducerTurnFolding(t *testing.T) {
	r := NewReducer()
	r.Apply(reducerHello())
	r.Apply(started(map[uint8]protocol.Player{0: {Name: "a", Address: "x"}}))

	// 回合 0: 玩家出生并放下两个方块
	draw := r.Apply(turn(0,
		protocol.Event{Kind: protocol.EventPlayerMoved, PlayerMoved: &protocol.PlayerMoved{ID: 0, Position: protocol.Position{X: 5, Y: 5}}},
		protocol.Event{Kind: protocol.EventBlockPlaced, BlockPlaced: &protocol.BlockPlaced{Position: protocol.Position{X: 4, Y: 5}}},
		protocol.Event{Kind: protocol.EventBlockPlaced, BlockPlaced: &protocol.BlockPlaced{Position: protocol.Position{X: 7, Y: 7}}},
	))
	if draw.Kind != protocol.DrawGame || draw.Game.Turn != 0 {
		t.Fatalf("应是回合 0 的对局画面: %+v", draw)
	}
	if draw.Game.PlayerPositions[0] != (protocol.Position{X: 5, Y: 5}) {
		t.Fatalf("玩家位置不符: %+v", draw.Game.PlayerPositions)
	}
	wantBlocks := []protocol.Position{{X: 4, Y: 5}, {X: 7, Y: 7}}
	if !reflect.DeepEqual(draw.Game.Blocks, wantBlocks) {
		t.Fatalf("方块列表不符: got %v, want %v", draw.Game.Blocks, wantBlocks)
	}

	// 回合 1: 放下 0 号炸弹,倒计时取自 Hello 的引信参数
	draw = r.Apply(turn(1,
		protocol.Event{Kind: protocol.EventBombPlaced, BombPlaced: &protocol.BombPlaced{ID: 0, Position: protocol.Position{X: 5, Y: 5}}},
	))
	wantBombs := []protocol.Bomb{{Position: protocol.Position{X: 5, Y: 5}, Timer: 3}}
	if !reflect.DeepEqual(draw.Game.Bombs, wantBombs) {
		t.Fatalf("炸弹列表不符: got %v, want %v", draw.Game.Bombs, wantBombs)
	}

	// 回合 2: 空回合,引信倒数
	draw = r.Apply(turn(2))
	if draw.Game.Bombs[0].Timer != 2 {
		t.Fatalf("引信应倒数到 2: %+v", draw.Game.Bombs)
	}
	if len(draw.Game.Explosions) != 0 {
		t.Fatalf("没有爆炸: %+v", draw.Game.Explosions)
	}

	// 回合 3: 爆炸。波及格子按炸前的方块布局推算:
	// 左射线在 (4,5) 被方块挡住,其余方向延伸到半径 2
	draw = r.Apply(turn(3,
		protocol.Event{Kind: protocol.EventBombExploded, BombExploded: &protocol.BombExploded{
			ID:               0,
			PlayersDestroyed: []uint8{0},
			BlocksDestroyed:  []protocol.Position{{X: 4, Y: 5}},
		}},
		protocol.Event{Kind: protocol.EventPlayerMoved, PlayerMoved: &protocol.PlayerMoved{ID: 0, Position: protocol.Position{X: 1, Y: 1}}},
	))
	if len(draw.Game.Bombs) != 0 {
		t.Fatalf("爆炸后炸弹应移除: %+v", draw.Game.Bombs)
	}
	wantExplosions := []protocol.Position{
		{X: 4, Y: 5},
		{X: 5, Y: 3}, {X: 5, Y: 4}, {X: 5, Y: 5}, {X: 5, Y: 6}, {X: 5, Y: 7},
		{X: 6, Y: 5}, {X: 7, Y: 5},
	}
	if !reflect.DeepEqual(draw.Game.Explosions, wantExplosions) {
		t.Fatalf("爆炸格子不符:\ngot  %v\nwant %v", draw.Game.Explosions, wantExplosions)
	}
	if draw.Game.Scores[0] != 1 {
		t.Fatalf("被炸玩家计分应加一: %+v", draw.Game.Scores)
	}
	if !reflect.DeepEqual(draw.Game.Blocks, []protocol.Position{{X: 7, Y: 7}}) {
		t.Fatalf("被炸方块应移除: %+v", draw.Game.Blocks)
	}
	if draw.Game.PlayerPositions[0] != (protocol.Position{X: 1, Y: 1}) {
		t.Fatalf("玩家应传送到新位置: %+v", draw.Game.PlayerPositions)
	}
}

// 未知炸弹编号的爆炸不推算波及格,但照常记死亡与拆方块
func TestReducerUnknownBombExplosion(t *testing.T) {
	r := NewReducer()
	r.Apply(reducerHello())
	r.Apply(started(map[uint8]protocol.Player{0: {Name: "a", Address: "x"}}))
	draw := r.Apply(turn(0,
		protocol.Event{Kind: protocol.EventBombExploded, BombExploded: &protocol.BombExploded{
			ID:               99,
			PlayersDestroyed: []uint8{0},
		}},
	))
	if len(draw.Game.Explosions) != 0 {
		t.Fatalf("未知炸弹不应有波及格: %+v", draw.Game.Explosions)
	}
	if draw.Game.Scores[0] != 1 {
		t.Fatalf("死亡仍应计分: %+v", draw.Game.Scores)
	}
}

func TestReducerGameEndedResetsToLobby(t *testing.T) {
	r := NewReducer()
	r.Apply(reducerHello())
	r.Apply(started(map[uint8]protocol.Player{0: {Name: "a", Address: "x"}}))
	r.Apply(turn(0,
		protocol.Event{Kind: protocol.EventPlayerMoved, PlayerMoved: &protocol.PlayerMoved{ID: 0, Position: protocol.Position{X: 2, Y: 2}}},
		protocol.Event{Kind: protocol.EventBombPlaced, BombPlaced: &protocol.BombPlaced{ID: 0, Position: protocol.Position{X: 2, Y: 2}}},
	))

	draw := r.Apply(&protocol.ServerMessage{
		Kind:  protocol.ServerGameEnded,
		Ended: &protocol.GameEnded{Scores: map[uint8]uint32{0: 4}},
	})
	if draw.Kind != protocol.DrawLobby {
		t.Fatalf("对局结束应回到大厅画面: %+v", draw)
	}
	if !r.InLobby() {
		t.Fatalf("应回到大厅状态")
	}

	// 随后的下一局不应继承上一局的炸弹与位置
	r.Apply(started(map[uint8]protocol.Player{0: {Name: "a", Address: "x"}}))
	next := r.Apply(turn(0))
	if len(next.Game.Bombs) != 0 || len(next.Game.PlayerPositions) != 0 {
		t.Fatalf("新对局不应继承旧状态: %+v", next.Game)
	}
	if next.Game.Scores[0] != 0 {
		t.Fatalf("新对局计分应清零: %+v", next.Game.Scores)
	}
}
