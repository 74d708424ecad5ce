package protocol

import (
	"bufio"
	"encoding/binary"
	"errors"
	"io"
)

const (
	// TCPBufferSize TCP 流内部工作缓冲区大小
	TCPBufferSize = 2048
	// MaxStringLen 字符串以 u8 长度前缀编码,最长 255 字节
	MaxStringLen = 255
)

// Encoder 把消息按大端字节序写入底层流。
// 内部缓冲允许单条消息跨多次刷新写出,Flush 把残留字节推给对端。
type Encoder struct {
	w *bufio.Writer
}

// NewEncoder 创建写入 w 的编码器
func NewEncoder(w io.Writer) *Encoder {
	return &Encoder{w: bufio.NewWriterSize(w, TCPBufferSize)}
}

// U8 写入单字节
func (e *Encoder) U8(v uint8) error {
	return e.w.WriteByte(v)
}

// U16 写入大端 16 位整数
func (e *Encoder) U16(v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := e.w.Write(b[:])
	return err
}

// U32 写入大端 32 位整数
func (e *Encoder) U32(v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := e.w.Write(b[:])
	return err
}

// String 写入 u8 长度前缀加 UTF-8 内容,超过 255 字节报 ErrBadWrite
func (e *Encoder) String(s string) error {
	if len(s) > MaxStringLen {
		return ErrBadWrite
	}
	if err := e.w.WriteByte(uint8(len(s))); err != nil {
		return err
	}
	_, err := e.w.WriteString(s)
	return err
}

// Flush 把缓冲中剩余的字节写出
func (e *Encoder) Flush() error {
	return e.w.Flush()
}

// Decoder 从底层流按大端字节序读出消息。
// 读取阻塞到凑齐所需字节为止;对端中途关闭表现为 ErrBadRead。
type Decoder struct {
	r *bufio.Reader
}

// NewDecoder 创建从 r 读取的解码器
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReaderSize(r, TCPBufferSize)}
}

func (d *Decoder) fill(b []byte) error {
	if _, err := io.ReadFull(d.r, b); err != nil {
		if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
			return ErrBadRead
		}
		return err
	}
	return nil
}

// U8 读取单字节
func (d *Decoder) U8() (uint8, error) {
	b, err := d.r.ReadByte()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return 0, ErrBadRead
		}
		return 0, err
	}
	return b, nil
}

// U16 读取大端 16 位整数
func (d *Decoder) U16() (uint16, error) {
	var b [2]byte
	if err := d.fill(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}

// U32 读取大端 32 位整数
func (d *Decoder) U32() (uint32, error) {
	var b [4]byte
	if err := d.fill(b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

// String 读取 u8 长度前缀的字符串
func (d *Decoder) String() (string, error) {
	length, err := d.U8()
	if err != nil {
		return "", err
	}
	b := make([]byte, length)
	if err := d.fill(b); err != nil {
		return "", err
	}
	return string(b), nil
}
