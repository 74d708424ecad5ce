package client

import (
	"bytes"
	"errors"
	"net"
	"testing"
	"time"

	"robots/pkg/protocol"
)

// 用桩服务器和桩 GUI 把客户端的两条 I/O 循环连起来跑一遍:
// 大厅按键译成 Join、GameStarted 不出画面、回合出画面、对局按键一一对应。
func TestClientIOLoops(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("桩服务器监听失败: %v", err)
	}
	defer ln.Close()

	gui, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("桩 GUI 绑定失败: %v", err)
	}
	defer gui.Close()

	opts := &Options{
		GUIAddress:    gui.LocalAddr().String(),
		PlayerName:    "小明",
		Port:          0,
		ServerAddress: ln.Addr().String(),
	}
	c, err := NewClient(opts)
	if err != nil {
		t.Fatalf("客户端启动失败: %v", err)
	}
	c.Start()

	serverConn, err := ln.Accept()
	if err != nil {
		t.Fatalf("接受连接失败: %v", err)
	}
	defer serverConn.Close()
	_ = serverConn.SetDeadline(time.Now().Add(5 * time.Second))
	serverEnc := protocol.NewEncoder(serverConn)
	serverDec := protocol.NewDecoder(serverConn)

	sendServer := func(m *protocol.ServerMessage) {
		t.Helper()
		if err := protocol.EncodeServerMessage(serverEnc, m); err != nil {
			t.Fatalf("桩服务器编码失败: %v", err)
		}
		if err := serverEnc.Flush(); err != nil {
			t.Fatalf("桩服务器发送失败: %v", err)
		}
	}

	clientUDP := &net.UDPAddr{
		IP:   net.IPv4(127, 0, 0, 1),
		Port: c.gui.LocalAddr().(*net.UDPAddr).Port,
	}
	sendInput := func(m *protocol.InputMessage) {
		t.Helper()
		var buf bytes.Buffer
		enc := protocol.NewEncoder(&buf)
		if err := protocol.EncodeInputMessage(enc, m); err != nil {
			t.Fatalf("编码输入失败: %v", err)
		}
		if err := enc.Flush(); err != nil {
			t.Fatalf("编码输入失败: %v", err)
		}
		if _, err := gui.WriteToUDP(buf.Bytes(), clientUDP); err != nil {
			t.Fatalf("发送输入失败: %v", err)
		}
	}

	recvDraw := func() *protocol.DrawMessage {
		t.Helper()
		_ = gui.SetReadDeadline(time.Now().Add(5 * time.Second))
		buf := make([]byte, 65507)
		n, _, err := gui.ReadFromUDP(buf)
		if err != nil {
			t.Fatalf("桩 GUI 接收失败: %v", err)
		}
		m, err := protocol.DecodeDrawMessage(protocol.NewDecoder(bytes.NewReader(buf[:n])))
		if err != nil {
			t.Fatalf("解码绘制消息失败: %v", err)
		}
		return m
	}

	// Hello → 大厅画面
	sendServer(&protocol.ServerMessage{Kind: protocol.ServerHello, Hello: &protocol.Hello{
		ServerName: "桩", PlayerCount: 1, SizeX: 5, SizeY: 5,
		GameLength: 10, ExplosionRadius: 1, BombTimer: 2,
	}})
	if draw := recvDraw(); draw.Kind != protocol.DrawLobby || draw.Lobby.ServerName != "桩" {
		t.Fatalf("应收到大厅画面: %+v", draw)
	}

	// 大厅中任何按键都译成 Join
	sendInput(&protocol.InputMessage{Kind: protocol.InputPlaceBomb})
	join, err := protocol.DecodeClientMessage(serverDec)
	if err != nil {
		t.Fatalf("读 Join 失败: %v", err)
	}
	if join.Kind != protocol.ClientJoin || join.Name != "小明" {
		t.Fatalf("大厅按键应译成 Join: %+v", join)
	}

	// 畸形数据报(判别字节越界)被静默丢弃:不产生任何服务器指令,
	// 输入循环也不受影响
	if _, err := gui.WriteToUDP([]byte{9}, clientUDP); err != nil {
		t.Fatalf("发送畸形数据报失败: %v", err)
	}
	_ = serverConn.SetReadDeadline(time.Now().Add(200 * time.Millisecond))
	if _, err := protocol.DecodeClientMessage(serverDec); err == nil {
		t.Fatalf("畸形数据报不应译出服务器指令")
	} else if netErr, ok := err.(net.Error); !ok || !netErr.Timeout() {
		t.Fatalf("应是读超时而非其他错误: %v", err)
	}
	_ = serverConn.SetDeadline(time.Now().Add(5 * time.Second))

	// GameStarted 不触发绘制,紧随的回合 0 才出画面
	sendServer(&protocol.ServerMessage{
		Kind:    protocol.ServerGameStarted,
		Started: &protocol.GameStarted{Players: map[uint8]protocol.Player{0: {Name: "小明", Address: "x"}}},
	})
	sendServer(&protocol.ServerMessage{
		Kind: protocol.ServerTurn,
		Turn: &protocol.Turn{Number: 0, Events: []protocol.Event{
			{Kind: protocol.EventPlayerMoved, PlayerMoved: &protocol.PlayerMoved{ID: 0, Position: protocol.Position{X: 2, Y: 2}}},
		}},
	})
	draw := recvDraw()
	if draw.Kind != protocol.DrawGame || draw.Game.Turn != 0 {
		t.Fatalf("回合 0 应产出对局画面: %+v", draw)
	}

	// 对局中的按键一一对应
	sendInput(&protocol.InputMessage{Kind: protocol.InputMove, Direction: protocol.DirLeft})
	cmd, err := protocol.DecodeClientMessage(serverDec)
	if err != nil {
		t.Fatalf("读指令失败: %v", err)
	}
	if cmd.Kind != protocol.ClientMove || cmd.Direction != protocol.DirLeft {
		t.Fatalf("对局按键应原样转发: %+v", cmd)
	}

	c.Interrupt()
	if err := c.Wait(); !errors.Is(err, ErrInterrupted) {
		t.Fatalf("停机应返回 ErrInterrupted: %v", err)
	}
}
