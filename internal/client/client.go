package client

import (
	"errors"
	"sync"

	"robots/pkg/logging"
	"robots/pkg/protocol"
	"robots/pkg/transport"
)

// ErrInterrupted 客户端被信号打断,属于正常停机路径
var ErrInterrupted = errors.New("客户端被中断")

// Client 客户端顶层:一条到服务器的 TCP 流、一个面向 GUI 的
// UDP 收发器,以及被互斥锁串行化的归约器。
// 两个 I/O 循环各占一条协程,任何一侧的致命错误都会拆掉整个客户端。
type Client struct {
	opts   *Options
	stream *transport.Stream
	gui    *transport.Datagram

	mu      sync.Mutex
	reducer *Reducer

	fatal    chan error
	failOnce sync.Once
	wg       sync.WaitGroup
}

// NewClient 建立到服务器的连接并绑定 GUI 端口。
// 任一套接字失败都属于启动错误。
func NewClient(opts *Options) (*Client, error) {
	stream, err := transport.Dial(opts.ServerAddress)
	if err != nil {
		return nil, err
	}
	gui, err := transport.ListenDatagram(opts.Port, opts.GUIAddress)
	if err != nil {
		stream.Close()
		return nil, err
	}
	logging.Log.Infof("已连接服务器 %s, GUI 端口 %s", opts.ServerAddress, gui.LocalAddr())
	return &Client{
		opts:    opts,
		stream:  stream,
		gui:     gui,
		reducer: NewReducer(),
		fatal:   make(chan error, 1),
	}, nil
}

// Start 启动两个 I/O 循环
func (c *Client) Start() {
	c.wg.Add(2)
	go func() {
		defer c.wg.Done()
		c.runInputLoop()
	}()
	go func() {
		defer c.wg.Done()
		c.runServerLoop()
	}()
}

// fail 记录第一个致命错误,后续错误丢弃
func (c *Client) fail(err error) {
	if err == nil {
		return
	}
	c.failOnce.Do(func() {
		c.fatal <- err
	})
}

// Interrupt 信号处理:把中断作为第一个错误注入
func (c *Client) Interrupt() {
	c.fail(ErrInterrupted)
}

// Wait 阻塞到第一个致命错误,关闭两个套接字并等协程退出
func (c *Client) Wait() error {
	err := <-c.fatal

	c.stream.Shutdown()
	_ = c.gui.Close()
	c.wg.Wait()

	logging.Log.Infof("客户端已退出: %v", err)
	return err
}

// runInputLoop GUI→服务器:解码按键输入并译成指令发给服务器。
// 畸形数据报直接跳过;大厅状态下任何按键都译成 Join。
func (c *Client) runInputLoop() {
	for {
		dec, err := c.gui.Recv()
		if err != nil {
			c.fail(err)
			return
		}
		input, err := protocol.DecodeInputMessage(dec)
		if err != nil {
			logging.Log.Debugf("丢弃畸形 GUI 数据报: %v", err)
			continue
		}
		if err := c.sendCommand(input); err != nil {
			c.fail(err)
			return
		}
	}
}

// sendCommand 持锁译码并写到服务器
func (c *Client) sendCommand(input *protocol.InputMessage) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var msg protocol.ClientMessage
	if c.reducer.InLobby() {
		msg = protocol.ClientMessage{Kind: protocol.ClientJoin, Name: c.opts.PlayerName}
	} else {
		switch input.Kind {
		case protocol.InputPlaceBomb:
			msg = protocol.ClientMessage{Kind: protocol.ClientPlaceBomb}
		case protocol.InputPlaceBlock:
			msg = protocol.ClientMessage{Kind: protocol.ClientPlaceBlock}
		case protocol.InputMove:
			msg = protocol.ClientMessage{Kind: protocol.ClientMove, Direction: input.Direction}
		}
	}

	enc := c.stream.Encoder()
	if err := protocol.EncodeClientMessage(enc, &msg); err != nil {
		return err
	}
	return enc.Flush()
}

// runServerLoop 服务器→GUI:解码服务器消息折叠进归约器,
// 把得到的绘制快照发给 GUI。流上的任何错误都是致命的。
func (c *Client) runServerLoop() {
	for {
		m, err := protocol.DecodeServerMessage(c.stream.Decoder())
		if err != nil {
			c.fail(err)
			return
		}

		c.mu.Lock()
		draw := c.reducer.Apply(m)
		c.mu.Unlock()
		if draw == nil {
			continue
		}

		if err := c.gui.Send(func(enc *protocol.Encoder) error {
			return protocol.EncodeDrawMessage(enc, draw)
		}); err != nil {
			c.fail(err)
			return
		}
	}
}
