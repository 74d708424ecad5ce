package protocol

// 客户端、服务器与 GUI 之间交换的全部消息结构。
// 变体消息统一用 Kind 判别字段加对应负载指针表示,
// 负载指针只在 Kind 匹配时有效。

// Position 棋盘格坐标,x 向右增长,y 向上增长
type Position struct {
	X uint16
	Y uint16
}

// Player 玩家的名字与远端地址
type Player struct {
	Name    string
	Address string
}

// Bomb 炸弹位置与剩余回合数
type Bomb struct {
	Position Position
	Timer    uint16
}

// Direction 移动方向
type Direction uint8

const (
	DirUp Direction = iota
	DirRight
	DirDown
	DirLeft
)

// ========== 客户端 → 服务器 ==========

// ClientMessageKind 客户端消息判别字节
type ClientMessageKind uint8

const (
	ClientJoin ClientMessageKind = iota
	ClientPlaceBomb
	ClientPlaceBlock
	ClientMove
)

// ClientMessage 客户端发给服务器的指令
type ClientMessage struct {
	Kind      ClientMessageKind
	Name      string    // Kind == ClientJoin
	Direction Direction // Kind == ClientMove
}

// ========== 服务器 → 客户端 ==========

// ServerMessageKind 服务器消息判别字节
type ServerMessageKind uint8

const (
	ServerHello ServerMessageKind = iota
	ServerAcceptedPlayer
	ServerGameStarted
	ServerTurn
	ServerGameEnded
)

// Hello 连接建立后服务器下发的静态对局参数
type Hello struct {
	ServerName      string
	PlayerCount     uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
}

// AcceptedPlayer 大厅内新玩家被接纳
type AcceptedPlayer struct {
	ID     uint8
	Player Player
}

// GameStarted 对局开始,携带完整玩家名册
type GameStarted struct {
	Players map[uint8]Player
}

// Turn 一个回合内按序发生的全部事件
type Turn struct {
	Number uint16
	Events []Event
}

// GameEnded 对局结束,携带每位玩家的死亡计分
type GameEnded struct {
	Scores map[uint8]uint32
}

// ServerMessage 服务器广播消息
type ServerMessage struct {
	Kind     ServerMessageKind
	Hello    *Hello
	Accepted *AcceptedPlayer
	Started  *GameStarted
	Turn     *Turn
	Ended    *GameEnded
}

// ========== 回合事件 ==========

// EventKind 回合事件判别字节
type EventKind uint8

const (
	EventBombPlaced EventKind = iota
	EventBombExploded
	EventPlayerMoved
	EventBlockPlaced
)

// BombPlaced 玩家放置了炸弹
type BombPlaced struct {
	ID       uint32
	Position Position
}

// BombExploded 炸弹爆炸及其波及到的玩家与方块
type BombExploded struct {
	ID               uint32
	PlayersDestroyed []uint8
	BlocksDestroyed  []Position
}

// PlayerMoved 玩家出现在新的格子上
type PlayerMoved struct {
	ID       uint8
	Position Position
}

// BlockPlaced 某个格子上出现了方块
type BlockPlaced struct {
	Position Position
}

// Event 回合内的单个事件
type Event struct {
	Kind         EventKind
	BombPlaced   *BombPlaced
	BombExploded *BombExploded
	PlayerMoved  *PlayerMoved
	BlockPlaced  *BlockPlaced
}

// ========== GUI → 客户端 ==========

// InputMessageKind GUI 输入消息判别字节
type InputMessageKind uint8

const (
	InputPlaceBomb InputMessageKind = iota
	InputPlaceBlock
	InputMove
)

// InputMessage GUI 发来的单次按键输入
type InputMessage struct {
	Kind      InputMessageKind
	Direction Direction // Kind == InputMove
}

// ========== 客户端 → GUI ==========

// DrawMessageKind 绘制消息判别字节
type DrawMessageKind uint8

const (
	DrawLobby DrawMessageKind = iota
	DrawGame
)

// LobbyDraw 大厅画面:静态参数加当前已接纳的玩家
type LobbyDraw struct {
	ServerName      string
	PlayerCount     uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
	Players         map[uint8]Player
}

// GameDraw 对局画面:完整的可渲染世界快照
type GameDraw struct {
	ServerName      string
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	Turn            uint16
	Players         map[uint8]Player
	PlayerPositions map[uint8]Position
	Blocks          []Position
	Bombs           []Bomb
	Explosions      []Position
	Scores          map[uint8]uint32
}

// DrawMessage 客户端发给 GUI 的绘制消息
type DrawMessage struct {
	Kind  DrawMessageKind
	Lobby *LobbyDraw
	Game  *GameDraw
}
