// Package frameio loads and stores frames: Parquet files (local or over
// HTTP range requests) and a compact snappy-compressed snapshot format.
package frameio

import (
	"fmt"
	"os"

	"github.com/parquet-go/parquet-go"

	"chunkframe/columnar"
	"chunkframe/frame"
)

// ReadFile loads a Parquet file into a frame. Column types map onto the
// engine's element kinds: integers widen to int64, floats to float64,
// byte arrays become strings.
func ReadFile(path string) (*frame.Frame, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to get file stats: %w", err)
	}
	pf, err := parquet.OpenFile(file, stat.Size())
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet file: %w", err)
	}
	return frameFromParquet(pf)
}

func frameFromParquet(pf *parquet.File) (*frame.Frame, error) {
	fields := pf.Schema().Fields()
	types := make([]columnar.DataType, len(fields))
	names := make([]string, len(fields))
	for i, field := range fields {
		names[i] = field.Name()
		switch field.Type().Kind() {
		case parquet.Boolean:
			types[i] = columnar.BoolType
		case parquet.Int32, parquet.Int64:
			types[i] = columnar.Int64Type
		case parquet.Float, parquet.Double:
			types[i] = columnar.Float64Type
		case parquet.ByteArray, parquet.FixedLenByteArray:
			types[i] = columnar.StringType
		default:
			return nil, fmt.Errorf("parquet column %q has unsupported kind %s: %w",
				field.Name(), field.Type().Kind(), columnar.ErrInvalidOperation)
		}
	}

	builders := make([]anyBuilder, len(fields))
	for i := range fields {
		builders[i] = newAnyBuilder(names[i], types[i])
	}

	// Generic row reading with a map per row, the same approach the
	// columnar batches are filled from.
	reader := parquet.NewReader(pf)
	defer reader.Close()
	for {
		row := make(map[string]any)
		if err := reader.Read(&row); err != nil {
			break // end of file
		}
		for i, name := range names {
			builders[i].append(row[name])
		}
	}

	cols := make([]columnar.Column, len(builders))
	for i, b := range builders {
		cols[i] = b.finish()
	}
	return frame.New(cols...)
}

// WriteFile stores a frame as a Parquet file. Every column is written as
// an optional leaf field.
func WriteFile(path string, f *frame.Frame) error {
	group := parquet.Group{}
	for _, c := range f.Columns() {
		var node parquet.Node
		switch c.DataType() {
		case columnar.Int64Type:
			node = parquet.Int(64)
		case columnar.Float64Type:
			node = parquet.Leaf(parquet.DoubleType)
		case columnar.BoolType:
			node = parquet.Leaf(parquet.BooleanType)
		case columnar.StringType:
			node = parquet.String()
		default:
			return fmt.Errorf("cannot write %s column %q to parquet: %w",
				c.DataType(), c.Name(), columnar.ErrInvalidOperation)
		}
		group[c.Name()] = parquet.Optional(node)
	}
	schema := parquet.NewSchema("frame", group)

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create parquet file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[map[string]any](file, schema)
	defer writer.Close()

	rows := make([]map[string]any, f.Height())
	for r := range rows {
		row := make(map[string]any, f.Width())
		for _, c := range f.Columns() {
			if v, ok := c.Value(r); ok {
				row[c.Name()] = v
			}
		}
		rows[r] = row
	}
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	return nil
}

// anyBuilder adapts the typed builders to schema-driven construction.
type anyBuilder interface {
	append(v any)
	finish() columnar.Column
}

func newAnyBuilder(name string, dt columnar.DataType) anyBuilder {
	switch dt {
	case columnar.Int64Type:
		return &typedBuilder[int64]{b: columnar.NewBuilder[int64](name, 0), conv: toInt64}
	case columnar.Float64Type:
		return &typedBuilder[float64]{b: columnar.NewBuilder[float64](name, 0), conv: toFloat64}
	case columnar.BoolType:
		return &typedBuilder[bool]{b: columnar.NewBuilder[bool](name, 0), conv: toBool}
	default:
		return &typedBuilder[string]{b: columnar.NewBuilder[string](name, 0), conv: toString}
	}
}

type typedBuilder[T columnar.Elem] struct {
	b    *columnar.Builder[T]
	conv func(any) (T, bool)
}

func (tb *typedBuilder[T]) append(v any) {
	if c, ok := tb.conv(v); ok {
		tb.b.Append(c)
	} else {
		tb.b.AppendNull()
	}
}

func (tb *typedBuilder[T]) finish() columnar.Column { return tb.b.Finish() }

func toInt64(v any) (int64, bool) {
	switch x := v.(type) {
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case int:
		return int64(x), true
	default:
		return 0, false
	}
}

func toFloat64(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	default:
		return 0, false
	}
}

func toBool(v any) (bool, bool) {
	x, ok := v.(bool)
	return x, ok
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case []byte:
		return string(x), true
	default:
		return "", false
	}
}
