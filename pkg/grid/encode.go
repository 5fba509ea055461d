package grid

import (
	"bufio"
	"encoding/binary"
	"io"
)

// WriteTo writes a compact binary form of m to w: the extent as two
// big-endian uint32 values followed by the pixels packed eight per byte.
// Equal masks always produce equal bytes, so the output can be hashed.
func (m *Mask) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var hdr [8]byte
	binary.BigEndian.PutUint32(hdr[0:], uint32(m.Rows))
	binary.BigEndian.PutUint32(hdr[4:], uint32(m.Cols))
	n, _ := bw.Write(hdr[:])
	total := int64(n)

	var b byte
	for i, v := range m.data {
		if v {
			b |= 1 << (i % 8)
		}
		if i%8 == 7 || i == len(m.data)-1 {
			bw.WriteByte(b)
			total++
			b = 0
		}
	}
	return total, bw.Flush()
}

// WriteTo writes a binary form of l to w: the extent followed by one
// big-endian int32 per pixel.
func (l *Labels) WriteTo(w io.Writer) (int64, error) {
	bw := bufio.NewWriter(w)
	var buf [8]byte
	binary.BigEndian.PutUint32(buf[0:], uint32(l.Rows))
	binary.BigEndian.PutUint32(buf[4:], uint32(l.Cols))
	n, _ := bw.Write(buf[:])
	total := int64(n)
	for _, v := range l.data {
		binary.BigEndian.PutUint32(buf[:4], uint32(int32(v)))
		n, _ = bw.Write(buf[:4])
		total += int64(n)
	}
	return total, bw.Flush()
}
