package protocol

import "errors"

// 协议层错误分类。
// 调用方通过 errors.Is 区分"消息类型无法解析"、"数据不足"与"写入超限"。
var (
	// ErrBadType 未知的消息判别字节
	ErrBadType = errors.New("无法解析的消息类型")
	// ErrBadRead 数据不足,消息未读完对端就关闭了
	ErrBadRead = errors.New("可读数据不足")
	// ErrBadWrite 内容超出编码上限,无法写出
	ErrBadWrite = errors.New("超出可写入的空间上限")
)
