package engine

import (
	"fmt"
	"sync"

	"chunkframe/columnar"
	"chunkframe/frame"
)

// Engine holds named frames and executes SELECT statements against them.
type Engine struct {
	mu     sync.RWMutex
	tables map[string]*frame.Frame
}

func New() *Engine {
	return &Engine{tables: make(map[string]*frame.Frame)}
}

// Register makes a frame queryable under the given table name, replacing
// any previous registration.
func (e *Engine) Register(name string, f *frame.Frame) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tables[name] = f
}

// Tables returns the registered table names.
func (e *Engine) Tables() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	names := make([]string, 0, len(e.tables))
	for name := range e.tables {
		names = append(names, name)
	}
	return names
}

func (e *Engine) lookup(name string) (*frame.Frame, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	f, ok := e.tables[name]
	if !ok {
		return nil, fmt.Errorf("table %q: %w", name, columnar.ErrNotFound)
	}
	return f, nil
}

// Execute parses and runs one SELECT statement, returning the result frame.
func (e *Engine) Execute(sql string) (*frame.Frame, error) {
	query, err := Parse(sql)
	if err != nil {
		return nil, err
	}

	result, err := e.lookup(query.TableName)
	if err != nil {
		return nil, err
	}

	if query.HasJoin {
		result, err = e.executeJoin(result, query)
		if err != nil {
			return nil, err
		}
	}

	if query.GroupBy != "" {
		return executeGroupBy(result, query)
	}

	if len(query.Columns) > 0 {
		result, err = result.Select(query.Columns...)
		if err != nil {
			return nil, err
		}
	}
	return result, nil
}

func (e *Engine) executeJoin(left *frame.Frame, query *ParsedQuery) (*frame.Frame, error) {
	right, err := e.lookup(query.Join.TableName)
	if err != nil {
		return nil, err
	}

	leftKey, rightKey := query.Join.LeftColumn, query.Join.RightColumn
	if e.conditionReversed(query) {
		leftKey, rightKey = rightKey, leftKey
	}
	return left.Join(right, []string{leftKey}, []string{rightKey}, query.Join.Type)
}

// conditionReversed reports whether the ON condition names the joined table
// on its left side, as in "a JOIN b ON b.k = a.k".
func (e *Engine) conditionReversed(query *ParsedQuery) bool {
	leftRef := query.Join.LeftTable
	if leftRef == "" {
		return false
	}
	return leftRef == query.Join.TableName || leftRef == query.Join.Alias
}

func executeGroupBy(f *frame.Frame, query *ParsedQuery) (*frame.Frame, error) {
	gb, err := f.GroupBy(query.GroupBy)
	if err != nil {
		return nil, err
	}

	agg := query.Agg
	column := agg.Column
	if column == "" {
		// count(*): any column works since count includes nulls.
		column = query.GroupBy
	}
	gb = gb.Select(column)

	switch agg.Function {
	case "sum":
		return gb.Sum()
	case "mean":
		return gb.Mean()
	case "min":
		return gb.Min()
	case "max":
		return gb.Max()
	case "count":
		return gb.Count()
	default:
		return nil, fmt.Errorf("unsupported aggregate %q: %w", agg.Function, columnar.ErrInvalidOperation)
	}
}
