package frameio

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/golang/snappy"

	"chunkframe/columnar"
	"chunkframe/frame"
)

// Snapshot format: a snappy-framed stream holding a small header and,
// per column, its type tag, name, length, serialized null bitmap and raw
// values. Null elements are stored as zero values; the bitmap restores
// them on read.

var snapshotMagic = [8]byte{'C', 'H', 'U', 'N', 'K', 'F', 'R', '1'}

// WriteSnapshot stores a frame in the snapshot format.
func WriteSnapshot(path string, f *frame.Frame) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot: %w", err)
	}
	defer file.Close()

	sw := snappy.NewBufferedWriter(file)
	w := bufio.NewWriter(sw)

	if _, err := w.Write(snapshotMagic[:]); err != nil {
		return err
	}
	if err := writeUint32(w, uint32(f.Width())); err != nil {
		return err
	}
	for _, c := range f.Columns() {
		if err := writeColumn(w, c); err != nil {
			return fmt.Errorf("snapshot column %q: %w", c.Name(), err)
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return sw.Close()
}

// ReadSnapshot loads a frame stored by WriteSnapshot.
func ReadSnapshot(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	defer file.Close()

	r := bufio.NewReader(snappy.NewReader(file))
	var magic [8]byte
	if _, err := io.ReadFull(r, magic[:]); err != nil {
		return nil, fmt.Errorf("failed to read snapshot header: %w", err)
	}
	if magic != snapshotMagic {
		return nil, fmt.Errorf("not a frame snapshot: %w", columnar.ErrInvalidOperation)
	}
	ncols, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	cols := make([]columnar.Column, 0, ncols)
	for i := uint32(0); i < ncols; i++ {
		c, err := readColumn(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read snapshot column %d: %w", i, err)
		}
		cols = append(cols, c)
	}
	return frame.New(cols...)
}

func writeColumn(w *bufio.Writer, c columnar.Column) error {
	dt := c.DataType()
	if dt == columnar.ListType {
		return fmt.Errorf("list columns are not snapshottable: %w", columnar.ErrInvalidOperation)
	}
	if err := w.WriteByte(byte(dt)); err != nil {
		return err
	}
	if err := writeString(w, c.Name()); err != nil {
		return err
	}
	n := c.Len()
	if err := writeUint32(w, uint32(n)); err != nil {
		return err
	}

	nulls := roaring.New()
	for i := 0; i < n; i++ {
		if c.IsNull(i) {
			nulls.Add(uint32(i))
		}
	}
	var bitmap []byte
	if !nulls.IsEmpty() {
		var err error
		if bitmap, err = nulls.ToBytes(); err != nil {
			return err
		}
	}
	if err := writeUint32(w, uint32(len(bitmap))); err != nil {
		return err
	}
	if _, err := w.Write(bitmap); err != nil {
		return err
	}

	for i := 0; i < n; i++ {
		v, ok := c.Value(i)
		switch dt {
		case columnar.Int64Type:
			var x int64
			if ok {
				x = v.(int64)
			}
			if err := writeUint64(w, uint64(x)); err != nil {
				return err
			}
		case columnar.Float64Type:
			var x float64
			if ok {
				x = v.(float64)
			}
			if err := writeUint64(w, math.Float64bits(x)); err != nil {
				return err
			}
		case columnar.BoolType:
			var b byte
			if ok && v.(bool) {
				b = 1
			}
			if err := w.WriteByte(b); err != nil {
				return err
			}
		case columnar.StringType:
			var s string
			if ok {
				s = v.(string)
			}
			if err := writeString(w, s); err != nil {
				return err
			}
		}
	}
	return nil
}

func readColumn(r *bufio.Reader) (columnar.Column, error) {
	dtByte, err := r.ReadByte()
	if err != nil {
		return nil, err
	}
	dt := columnar.DataType(dtByte)
	name, err := readString(r)
	if err != nil {
		return nil, err
	}
	n, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	bitmapLen, err := readUint32(r)
	if err != nil {
		return nil, err
	}
	nulls := roaring.New()
	if bitmapLen > 0 {
		raw := make([]byte, bitmapLen)
		if _, err := io.ReadFull(r, raw); err != nil {
			return nil, err
		}
		if _, err := nulls.ReadFrom(bytes.NewReader(raw)); err != nil {
			return nil, err
		}
	}

	switch dt {
	case columnar.Int64Type:
		return readValues(r, name, n, nulls, func(r *bufio.Reader) (int64, error) {
			u, err := readUint64(r)
			return int64(u), err
		})
	case columnar.Float64Type:
		return readValues(r, name, n, nulls, func(r *bufio.Reader) (float64, error) {
			u, err := readUint64(r)
			return math.Float64frombits(u), err
		})
	case columnar.BoolType:
		return readValues(r, name, n, nulls, func(r *bufio.Reader) (bool, error) {
			b, err := r.ReadByte()
			return b == 1, err
		})
	case columnar.StringType:
		return readValues(r, name, n, nulls, readString)
	default:
		return nil, fmt.Errorf("unknown column type tag %d: %w", dtByte, columnar.ErrInvalidOperation)
	}
}

func readValues[T columnar.Elem](r *bufio.Reader, name string, n uint32, nulls *roaring.Bitmap,
	read func(*bufio.Reader) (T, error)) (columnar.Column, error) {
	b := columnar.NewBuilder[T](name, int(n))
	for i := uint32(0); i < n; i++ {
		v, err := read(r)
		if err != nil {
			return nil, err
		}
		b.AppendOpt(v, !nulls.Contains(i))
	}
	return b.Finish(), nil
}

func writeUint32(w *bufio.Writer, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint32(r *bufio.Reader) (uint32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func writeUint64(w *bufio.Writer, v uint64) error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], v)
	_, err := w.Write(buf[:])
	return err
}

func readUint64(r *bufio.Reader) (uint64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(buf[:]), nil
}

func writeString(w *bufio.Writer, s string) error {
	var buf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(buf[:], uint64(len(s)))
	if _, err := w.Write(buf[:n]); err != nil {
		return err
	}
	_, err := w.WriteString(s)
	return err
}

func readString(r *bufio.Reader) (string, error) {
	n, err := binary.ReadUvarint(r)
	if err != nil {
		return "", err
	}
	raw := make([]byte, n)
	if _, err := io.ReadFull(r, raw); err != nil {
		return "", err
	}
	return string(raw), nil
}
