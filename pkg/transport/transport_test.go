package transport

import (
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"robots/pkg/protocol"
)

// TCP 流上消息自定界,连续写入的多条消息按序完整解码
func TestStreamBackToBackMessages(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	server := NewStream(serverSide)
	client := NewStream(clientSide)
	defer server.Close()
	defer client.Close()

	sent := []*protocol.ClientMessage{
		{Kind: protocol.ClientJoin, Name: "小明"},
		{Kind: protocol.ClientMove, Direction: protocol.DirRight},
		{Kind: protocol.ClientPlaceBomb},
	}
	go func() {
		enc := client.Encoder()
		for _, m := range sent {
			if err := protocol.EncodeClientMessage(enc, m); err != nil {
				return
			}
		}
		_ = enc.Flush()
	}()

	for i, want := range sent {
		got, err := protocol.DecodeClientMessage(server.Decoder())
		if err != nil {
			t.Fatalf("第 %d 条解码失败: %v", i, err)
		}
		if *got != *want {
			t.Fatalf("第 %d 条不符: got %+v, want %+v", i, got, want)
		}
	}
}

func TestStreamShutdownUnblocksReader(t *testing.T) {
	serverSide, clientSide := net.Pipe()
	server := NewStream(serverSide)
	defer clientSide.Close()

	done := make(chan error, 1)
	go func() {
		_, err := protocol.DecodeClientMessage(server.Decoder())
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	server.Shutdown()

	select {
	case err := <-done:
		if err == nil {
			t.Fatalf("关闭后读取应出错")
		}
	case <-time.After(time.Second):
		t.Fatalf("关闭后读取仍阻塞")
	}
}

func udpPair(t *testing.T) (*Datagram, *Datagram) {
	t.Helper()
	recv, err := ListenDatagram(0, "127.0.0.1:9")
	if err != nil {
		t.Fatalf("绑定接收端失败: %v", err)
	}
	port := recv.LocalAddr().(*net.UDPAddr).Port
	send, err := ListenDatagram(0, fmt.Sprintf("127.0.0.1:%d", port))
	if err != nil {
		t.Fatalf("绑定发送端失败: %v", err)
	}
	t.Cleanup(func() {
		recv.Close()
		send.Close()
	})
	return send, recv
}

// 一个数据报恰好承载一条消息
func TestDatagramRoundTrip(t *testing.T) {
	send, recv := udpPair(t)

	want := &protocol.InputMessage{Kind: protocol.InputMove, Direction: protocol.DirUp}
	if err := send.Send(func(e *protocol.Encoder) error {
		return protocol.EncodeInputMessage(e, want)
	}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}

	dec, err := recv.Recv()
	if err != nil {
		t.Fatalf("接收失败: %v", err)
	}
	got, err := protocol.DecodeInputMessage(dec)
	if err != nil {
		t.Fatalf("解码失败: %v", err)
	}
	if *got != *want {
		t.Fatalf("往返不一致: got %+v, want %+v", got, want)
	}
}

// 畸形数据报只废弃自己,后续数据报照常解码
func TestDatagramBadThenGood(t *testing.T) {
	send, recv := udpPair(t)

	// 判别字节越界的坏数据报
	if err := send.Send(func(e *protocol.Encoder) error {
		return e.U8(200)
	}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}
	want := &protocol.InputMessage{Kind: protocol.InputPlaceBlock}
	if err := send.Send(func(e *protocol.Encoder) error {
		return protocol.EncodeInputMessage(e, want)
	}); err != nil {
		t.Fatalf("发送失败: %v", err)
	}

	dec, err := recv.Recv()
	if err != nil {
		t.Fatalf("接收失败: %v", err)
	}
	if _, err := protocol.DecodeInputMessage(dec); !errors.Is(err, protocol.ErrBadType) {
		t.Fatalf("坏数据报应报 ErrBadType: %v", err)
	}

	dec, err = recv.Recv()
	if err != nil {
		t.Fatalf("接收失败: %v", err)
	}
	got, err := protocol.DecodeInputMessage(dec)
	if err != nil {
		t.Fatalf("第二个数据报解码失败: %v", err)
	}
	if *got != *want {
		t.Fatalf("往返不一致: got %+v, want %+v", got, want)
	}
}
