package client

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/pflag"
)

// Options 客户端命令行参数
type Options struct {
	GUIAddress    string
	PlayerName    string
	Port          uint16
	ServerAddress string
	LogFile       string
}

// ErrHelp 用户请求 --help,调用方打印用法后以 0 退出
var ErrHelp = pflag.ErrHelp

// requiredClientFlags 除 log-file 外所有选项都必须显式给出
var requiredClientFlags = []string{
	"gui-address", "player-name", "port", "server-address",
}

func newClientFlagSet(opts *Options) *pflag.FlagSet {
	fs := pflag.NewFlagSet("robots-client", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.SortFlags = false
	fs.StringVarP(&opts.GUIAddress, "gui-address", "d", "", "GUI 地址(host:port)")
	fs.StringVarP(&opts.PlayerName, "player-name", "n", "", "玩家名字")
	fs.Uint16VarP(&opts.Port, "port", "p", 0, "监听 GUI 输入的本地 UDP 端口")
	fs.StringVarP(&opts.ServerAddress, "server-address", "s", "", "服务器地址(host:port)")
	fs.StringVar(&opts.LogFile, "log-file", "", "滚动日志文件路径(可选)")
	return fs
}

// ClientUsage 客户端用法说明,--help 时打印到标准输出
func ClientUsage() string {
	var opts Options
	return "robots-client 选项:\n" + newClientFlagSet(&opts).FlagUsages()
}

// ParseOptions 解析客户端命令行参数。
// --help 返回 ErrHelp;缺少必要选项返回可打印的错误。
func ParseOptions(args []string) (*Options, error) {
	opts := &Options{}
	fs := newClientFlagSet(opts)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil, ErrHelp
		}
		return nil, fmt.Errorf("参数解析失败: %w", err)
	}
	for _, name := range requiredClientFlags {
		if !fs.Changed(name) {
			return nil, fmt.Errorf("缺少必要选项 --%s", name)
		}
	}
	if opts.PlayerName == "" {
		return nil, errors.New("玩家名字不能为空")
	}
	return opts, nil
}
