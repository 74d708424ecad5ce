package server

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/pflag"
)

// Options 服务器命令行参数
type Options struct {
	ServerName      string
	Port            uint16
	PlayerCount     uint8
	SizeX           uint16
	SizeY           uint16
	GameLength      uint16
	ExplosionRadius uint16
	BombTimer       uint16
	TurnDuration    time.Duration
	InitialBlocks   uint16
	Seed            uint32
	LogFile         string
}

// ErrHelp 用户请求 --help,调用方打印用法后以 0 退出
var ErrHelp = pflag.ErrHelp

// requiredServerFlags 除 seed 与 log-file 外所有选项都必须显式给出
var requiredServerFlags = []string{
	"server-name", "port", "players-count", "size-x", "size-y",
	"game-length", "explosion-radius", "bomb-timer", "turn-duration",
	"initial-blocks",
}

func newServerFlagSet(opts *Options, turnDurationMs *uint64) *pflag.FlagSet {
	fs := pflag.NewFlagSet("robots-server", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	fs.StringVar(&opts.ServerName, "server-name", "", "服务器名字")
	fs.Uint16Var(&opts.Port, "port", 0, "监听端口")
	fs.Uint8Var(&opts.PlayerCount, "players-count", 0, "一局游戏的玩家数")
	fs.Uint16Var(&opts.SizeX, "size-x", 0, "棋盘宽度")
	fs.Uint16Var(&opts.SizeY, "size-y", 0, "棋盘高度")
	fs.Uint16Var(&opts.GameLength, "game-length", 0, "一局游戏的回合数")
	fs.Uint16Var(&opts.ExplosionRadius, "explosion-radius", 0, "爆炸半径")
	fs.Uint16Var(&opts.BombTimer, "bomb-timer", 0, "炸弹引信回合数")
	fs.Uint64Var(turnDurationMs, "turn-duration", 0, "回合时长(毫秒)")
	fs.Uint16Var(&opts.InitialBlocks, "initial-blocks", 0, "初始方块数")
	fs.Uint32Var(&opts.Seed, "seed", 0, "随机数种子")
	fs.StringVar(&opts.LogFile, "log-file", "", "滚动日志文件路径(可选)")
	return fs
}

// ServerUsage 服务器用法说明,--help 时打印到标准输出
func ServerUsage() string {
	var opts Options
	var ms uint64
	return "robots-server 选项:\n" + newServerFlagSet(&opts, &ms).FlagUsages()
}

// ParseOptions 解析服务器命令行参数。
// --help 返回 ErrHelp;缺少必要选项或取值非法返回可打印的错误。
func ParseOptions(args []string) (*Options, error) {
	opts := &Options{}
	var turnDurationMs uint64
	fs := newServerFlagSet(opts, &turnDurationMs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("参数解析失败: %w", err)
	}
	for _, name := range requiredServerFlags {
		if !fs.Changed(name) {
			return nil, fmt.Errorf("缺少必要选项 --%s", name)
		}
	}
	if opts.SizeX == 0 || opts.SizeY == 0 {
		return nil, errors.New("棋盘尺寸不能为 0")
	}
	if opts.PlayerCount == 0 {
		return nil, errors.New("玩家数不能为 0")
	}
	opts.TurnDuration = time.Duration(turnDurationMs) * time.Millisecond
	return opts, nil
}
