package rw

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
)

var ErrBadMagic = errors.New("rw: bad magic")

// ReaderWriter reads and writes fixed-layout blobs. Every field goes through
// the current byte order; the first failure is kept and later calls are no-ops.
type ReaderWriter struct {
	order   binary.ByteOrder
	dataBuf []byte
	rw      bytes.Buffer
	err     error
}

func NewBinWriter() *ReaderWriter {
	return &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
}

func NewBinReader(data []byte) *ReaderWriter {
	d := &ReaderWriter{order: binary.LittleEndian, dataBuf: make([]byte, 8)}
	d.rw.Write(data)
	return d
}

func (w *ReaderWriter) Err() error {
	return w.err
}

func (w *ReaderWriter) Order() binary.ByteOrder {
	return w.order
}

func (w *ReaderWriter) ChangeOrder(order binary.ByteOrder) {
	w.order = order
}

func (w *ReaderWriter) read(n int) []byte {
	if w.err != nil {
		return nil
	}
	if _, err := io.ReadFull(&w.rw, w.dataBuf[:n]); err != nil {
		w.err = fmt.Errorf("rw: read %d bytes: %w", n, err)
		return nil
	}
	return w.dataBuf[:n]
}

// ReadMagic reads a 32-bit magic and switches the byte order when the blob
// was written with the other endianness.
func (w *ReaderWriter) ReadMagic(magic uint32) error {
	b := w.read(4)
	if b == nil {
		return w.err
	}
	switch {
	case binary.LittleEndian.Uint32(b) == magic:
		w.order = binary.LittleEndian
	case binary.BigEndian.Uint32(b) == magic:
		w.order = binary.BigEndian
	default:
		w.err = fmt.Errorf("%w: got %#x want %#x", ErrBadMagic, binary.LittleEndian.Uint32(b), magic)
	}
	return w.err
}

func (w *ReaderWriter) ReadUInt8() uint8 {
	b := w.read(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (w *ReaderWriter) ReadInt8() int8 {
	return int8(w.ReadUInt8())
}

func (w *ReaderWriter) ReadUInt16() uint16 {
	b := w.read(2)
	if b == nil {
		return 0
	}
	return w.order.Uint16(b)
}

func (w *ReaderWriter) ReadInt16() int16 {
	return int16(w.ReadUInt16())
}

func (w *ReaderWriter) ReadUInt32() uint32 {
	b := w.read(4)
	if b == nil {
		return 0
	}
	return w.order.Uint32(b)
}

func (w *ReaderWriter) ReadInt32() int32 {
	return int32(w.ReadUInt32())
}

func (w *ReaderWriter) ReadInt32s(value []int32) {
	for i := range value {
		value[i] = w.ReadInt32()
	}
}

func (w *ReaderWriter) ReadFloat32() float32 {
	return math.Float32frombits(w.ReadUInt32())
}

func (w *ReaderWriter) ReadUInt64() uint64 {
	b := w.read(8)
	if b == nil {
		return 0
	}
	return w.order.Uint64(b)
}

func (w *ReaderWriter) ReadFloat64() float64 {
	return math.Float64frombits(w.ReadUInt64())
}

func (w *ReaderWriter) ReadFloat32s(value []float32) {
	for i := range value {
		value[i] = w.ReadFloat32()
	}
}

// ReadCount reads an int32 element count and rejects counts the remaining
// payload cannot hold, given the minimum encoded size of one element.
func (w *ReaderWriter) ReadCount(elemSize int) int {
	n := w.ReadInt32()
	if w.err != nil {
		return 0
	}
	if n < 0 || (elemSize > 0 && int(n) > w.rw.Len()/elemSize) {
		w.err = fmt.Errorf("rw: invalid element count %d", n)
		return 0
	}
	return int(n)
}

func (w *ReaderWriter) WriteUInt8(v uint8) {
	w.rw.WriteByte(v)
}

func (w *ReaderWriter) WriteInt8(v int8) {
	w.rw.WriteByte(byte(v))
}

func (w *ReaderWriter) WriteUInt16(v uint16) {
	w.order.PutUint16(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:2])
}

func (w *ReaderWriter) WriteInt16(v int16) {
	w.WriteUInt16(uint16(v))
}

func (w *ReaderWriter) WriteUInt32(v uint32) {
	w.order.PutUint32(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:4])
}

func (w *ReaderWriter) WriteInt32(v int32) {
	w.WriteUInt32(uint32(v))
}

func (w *ReaderWriter) WriteInt32s(v []int32) {
	for _, tmp := range v {
		w.WriteInt32(tmp)
	}
}

func (w *ReaderWriter) WriteFloat32(v float32) {
	w.WriteUInt32(math.Float32bits(v))
}

func (w *ReaderWriter) WriteUInt64(v uint64) {
	w.order.PutUint64(w.dataBuf, v)
	w.rw.Write(w.dataBuf[:8])
}

func (w *ReaderWriter) WriteFloat64(v float64) {
	w.WriteUInt64(math.Float64bits(v))
}

func (w *ReaderWriter) WriteFloat32s(v []float32) {
	for _, tmp := range v {
		w.WriteFloat32(tmp)
	}
}

func (w *ReaderWriter) WriteString(s string) {
	w.rw.WriteString(s)
}

func (w *ReaderWriter) Skip(size int) {
	w.rw.Next(size)
}

func (w *ReaderWriter) GetWriteBytes() (res []byte) {
	return w.rw.Bytes()
}

func (w *ReaderWriter) PadZero(n int) {
	for i := 0; i < n; i++ {
		w.rw.WriteByte(0)
	}
}

func (w *ReaderWriter) Size() int {
	return w.rw.Len()
}
