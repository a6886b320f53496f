// Package borsh 实现签名服务回调使用的 Borsh 子集: bool、u8、u32、u64、定长字节与字符串。
package borsh

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
)

var (
	ErrInvalidBool   = errors.New("borsh: bool must be a single 0x00 or 0x01 byte")
	ErrUnexpectedEOF = errors.New("borsh: unexpected end of input")
	ErrTrailingBytes = errors.New("borsh: trailing bytes after value")
)

// DecodeBool 解码一个完整的 Borsh bool，输入必须恰好 1 字节
func DecodeBool(data []byte) (bool, error) {
	if len(data) != 1 {
		return false, fmt.Errorf("%w: got %d bytes", ErrInvalidBool, len(data))
	}
	switch data[0] {
	case 0:
		return false, nil
	case 1:
		return true, nil
	default:
		return false, fmt.Errorf("%w: got 0x%02x", ErrInvalidBool, data[0])
	}
}

// EncodeBool 编码 bool
func EncodeBool(v bool) []byte {
	if v {
		return []byte{1}
	}
	return []byte{0}
}

// Writer 以 little-endian 顺序写出 Borsh 标量
type Writer struct {
	buf bytes.Buffer
}

func (w *Writer) WriteU8(v uint8) *Writer {
	w.buf.WriteByte(v)
	return w
}

func (w *Writer) WriteU32(v uint32) *Writer {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	w.buf.Write(b[:])
	return w
}

func (w *Writer) WriteU64(v uint64) *Writer {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	w.buf.Write(b[:])
	return w
}

// WriteFixed 写入定长数组 (无长度前缀)
func (w *Writer) WriteFixed(b []byte) *Writer {
	w.buf.Write(b)
	return w
}

// WriteString 写入 u32 长度前缀 + UTF-8 字节
func (w *Writer) WriteString(s string) *Writer {
	w.WriteU32(uint32(len(s)))
	w.buf.WriteString(s)
	return w
}

func (w *Writer) Bytes() []byte {
	return w.buf.Bytes()
}

// Reader 按顺序读取 Borsh 标量
type Reader struct {
	data []byte
	off  int
}

func NewReader(data []byte) *Reader {
	return &Reader{data: data}
}

func (r *Reader) take(n int) ([]byte, error) {
	if n < 0 || r.off+n > len(r.data) {
		return nil, ErrUnexpectedEOF
	}
	b := r.data[r.off : r.off+n]
	r.off += n
	return b, nil
}

func (r *Reader) ReadU8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *Reader) ReadU32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *Reader) ReadU64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

func (r *Reader) ReadFixed(n int) ([]byte, error) {
	b, err := r.take(n)
	if err != nil {
		return nil, err
	}
	out := make([]byte, n)
	copy(out, b)
	return out, nil
}

func (r *Reader) ReadString() (string, error) {
	n, err := r.ReadU32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Finish 确认输入已被完全消费
func (r *Reader) Finish() error {
	if r.off != len(r.data) {
		return ErrTrailingBytes
	}
	return nil
}
