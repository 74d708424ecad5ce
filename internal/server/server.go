package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"golang.org/x/time/rate"

	"robots/pkg/logging"
	"robots/pkg/protocol"
	"robots/pkg/transport"
)

// ErrInterrupted 服务器被信号打断,属于正常停机路径
var ErrInterrupted = errors.New("服务器被中断")

// acceptLimit 入站连接限速,防止恶意客户端用连接风暴拖垮服务器
const (
	acceptRate  rate.Limit = 64
	acceptBurst            = 16
)

// GameServer 服务器顶层:监听器、会话管理器与引擎的组装与停机编排
type GameServer struct {
	opts    *Options
	session *Session
	engine  *Engine

	listener *transport.Listener
	limiter  *rate.Limiter

	stop   chan struct{}
	ctx    context.Context
	cancel context.CancelFunc

	fatal    chan error
	failOnce sync.Once
	wg       sync.WaitGroup
}

// NewGameServer 按命令行参数组装服务器
func NewGameServer(opts *Options) *GameServer {
	hello := protocol.Hello{
		ServerName:      opts.ServerName,
		PlayerCount:     opts.PlayerCount,
		SizeX:           opts.SizeX,
		SizeY:           opts.SizeY,
		GameLength:      opts.GameLength,
		ExplosionRadius: opts.ExplosionRadius,
		BombTimer:       opts.BombTimer,
	}
	session := NewSession(hello)
	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())
	return &GameServer{
		opts:    opts,
		session: session,
		engine:  NewEngine(opts, session, stop),
		limiter: rate.NewLimiter(acceptRate, acceptBurst),
		stop:    stop,
		ctx:     ctx,
		cancel:  cancel,
		fatal:   make(chan error, 1),
	}
}

// Start 开始监听并启动接入循环与引擎线程。
// 监听失败属于启动错误,直接返回给调用方。
func (s *GameServer) Start() error {
	ln, err := transport.Listen(s.opts.Port)
	if err != nil {
		return err
	}
	s.listener = ln
	logging.Log.Infof("服务器 %q 监听于 %s", s.opts.ServerName, ln.Addr())

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		s.acceptLoop()
	}()
	go func() {
		defer s.wg.Done()
		s.fail(s.engine.Run())
	}()
	return nil
}

// acceptLoop 限速地接纳入站连接并交给会话管理器
func (s *GameServer) acceptLoop() {
	for {
		if err := s.limiter.Wait(s.ctx); err != nil {
			return
		}
		stream, err := s.listener.Accept()
		if err != nil {
			// 停机时监听器被关闭,Accept 以 net.ErrClosed 返回
			if !errors.Is(err, net.ErrClosed) {
				s.fail(err)
			}
			return
		}
		s.session.Attach(stream, &s.wg)
	}
}

// fail 记录第一个致命错误,后续错误丢弃
func (s *GameServer) fail(err error) {
	if err == nil {
		return
	}
	s.failOnce.Do(func() {
		s.fatal <- err
	})
}

// Interrupt 信号处理:把中断作为第一个错误注入
func (s *GameServer) Interrupt() {
	s.fail(ErrInterrupted)
}

// Wait 阻塞到第一个致命错误出现,然后执行完整的停机序列并等待
// 所有协程退出。返回 ErrInterrupted 表示正常的信号停机。
func (s *GameServer) Wait() error {
	err := <-s.fatal

	close(s.stop)
	s.cancel()
	_ = s.listener.Close()
	s.session.CloseAll()
	s.session.pending.Close()
	s.session.broadcast.Close()
	s.wg.Wait()

	logging.Log.Infof("服务器已停机: %v", err)
	return err
}
