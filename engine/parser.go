// Package engine is a thin SQL front over the frame layer: it parses a
// subset of SELECT statements (projection, one JOIN, GROUP BY with a
// single aggregate) and maps them onto frame joins and groupings.
package engine

import (
	"fmt"
	"strings"

	pg_query "github.com/pganalyze/pg_query_go/v6"

	"chunkframe/columnar"
	"chunkframe/frame"
)

// ParsedQuery is the subset of a SELECT statement the engine executes.
type ParsedQuery struct {
	RawSQL    string
	TableName string
	Alias     string

	Columns []string // empty means SELECT *

	HasJoin  bool
	Join     JoinClause
	GroupBy  string
	Agg      *AggregateCall
}

// JoinClause describes one JOIN ... ON a.x = b.y.
type JoinClause struct {
	TableName   string
	Alias       string
	Type        frame.JoinType
	LeftColumn  string
	LeftTable   string
	RightColumn string
	RightTable  string
}

// AggregateCall is one aggregate function over one column.
type AggregateCall struct {
	Function string // sum, mean, min, max, count
	Column   string
}

// Parse parses one SELECT statement.
func Parse(sql string) (*ParsedQuery, error) {
	result, err := pg_query.Parse(sql)
	if err != nil {
		return nil, fmt.Errorf("failed to parse SQL: %w", err)
	}
	if len(result.Stmts) == 0 {
		return nil, fmt.Errorf("no statements found in SQL: %w", columnar.ErrInvalidOperation)
	}

	stmt := result.Stmts[0].Stmt
	selectStmt := stmt.GetSelectStmt()
	if selectStmt == nil {
		return nil, fmt.Errorf("only SELECT statements are supported: %w", columnar.ErrInvalidOperation)
	}

	query := &ParsedQuery{RawSQL: sql}
	if err := parseFromClause(selectStmt.FromClause, query); err != nil {
		return nil, err
	}
	if err := parseTargets(selectStmt.TargetList, query); err != nil {
		return nil, err
	}
	if err := parseGroupClause(selectStmt.GroupClause, query); err != nil {
		return nil, err
	}
	if query.GroupBy != "" && query.Agg == nil {
		return nil, fmt.Errorf("GROUP BY requires an aggregate in the target list: %w",
			columnar.ErrInvalidOperation)
	}
	return query, nil
}

func parseFromClause(fromClause []*pg_query.Node, query *ParsedQuery) error {
	if len(fromClause) != 1 {
		return fmt.Errorf("expected a single FROM item: %w", columnar.ErrInvalidOperation)
	}
	fromNode := fromClause[0]

	if rangeVar := fromNode.GetRangeVar(); rangeVar != nil {
		query.TableName = rangeVar.Relname
		if rangeVar.Alias != nil {
			query.Alias = rangeVar.Alias.Aliasname
		}
		return nil
	}
	if joinExpr := fromNode.GetJoinExpr(); joinExpr != nil {
		return parseJoinExpression(joinExpr, query)
	}
	return fmt.Errorf("unsupported FROM clause: %w", columnar.ErrInvalidOperation)
}

func parseJoinExpression(joinExpr *pg_query.JoinExpr, query *ParsedQuery) error {
	query.HasJoin = true

	if left := joinExpr.Larg; left != nil {
		if rangeVar := left.GetRangeVar(); rangeVar != nil {
			query.TableName = rangeVar.Relname
			if rangeVar.Alias != nil {
				query.Alias = rangeVar.Alias.Aliasname
			}
		} else {
			return fmt.Errorf("nested joins are not supported: %w", columnar.ErrInvalidOperation)
		}
	}
	if right := joinExpr.Rarg; right != nil {
		if rangeVar := right.GetRangeVar(); rangeVar != nil {
			query.Join.TableName = rangeVar.Relname
			if rangeVar.Alias != nil {
				query.Join.Alias = rangeVar.Alias.Aliasname
			}
		} else {
			return fmt.Errorf("nested joins are not supported: %w", columnar.ErrInvalidOperation)
		}
	}

	switch joinExpr.Jointype {
	case pg_query.JoinType_JOIN_INNER:
		query.Join.Type = frame.InnerJoin
	case pg_query.JoinType_JOIN_LEFT:
		query.Join.Type = frame.LeftJoin
	case pg_query.JoinType_JOIN_FULL:
		query.Join.Type = frame.OuterJoin
	default:
		return fmt.Errorf("unsupported join type %s: %w", joinExpr.Jointype, columnar.ErrInvalidOperation)
	}

	if joinExpr.Quals == nil {
		return fmt.Errorf("JOIN requires an ON condition: %w", columnar.ErrInvalidOperation)
	}
	return parseJoinCondition(joinExpr.Quals, query)
}

func parseJoinCondition(quals *pg_query.Node, query *ParsedQuery) error {
	aExpr := quals.GetAExpr()
	if aExpr == nil {
		return fmt.Errorf("unsupported JOIN condition: %w", columnar.ErrInvalidOperation)
	}
	if len(aExpr.Name) > 0 {
		if str := aExpr.Name[0].GetString_(); str != nil && str.Sval != "=" {
			return fmt.Errorf("JOIN condition operator %q, only equality is supported: %w",
				str.Sval, columnar.ErrInvalidOperation)
		}
	}
	var err error
	if query.Join.LeftTable, query.Join.LeftColumn, err = columnRefParts(aExpr.Lexpr); err != nil {
		return err
	}
	if query.Join.RightTable, query.Join.RightColumn, err = columnRefParts(aExpr.Rexpr); err != nil {
		return err
	}
	return nil
}

func columnRefParts(node *pg_query.Node) (table, column string, err error) {
	if node == nil {
		return "", "", fmt.Errorf("missing join expression side: %w", columnar.ErrInvalidOperation)
	}
	columnRef := node.GetColumnRef()
	if columnRef == nil {
		return "", "", fmt.Errorf("join condition must compare columns: %w", columnar.ErrInvalidOperation)
	}
	switch len(columnRef.Fields) {
	case 1:
		if str := columnRef.Fields[0].GetString_(); str != nil {
			return "", str.Sval, nil
		}
	case 2:
		tableStr := columnRef.Fields[0].GetString_()
		columnStr := columnRef.Fields[1].GetString_()
		if tableStr != nil && columnStr != nil {
			return tableStr.Sval, columnStr.Sval, nil
		}
	}
	return "", "", fmt.Errorf("unsupported column reference: %w", columnar.ErrInvalidOperation)
}

func parseTargets(targets []*pg_query.Node, query *ParsedQuery) error {
	for _, target := range targets {
		resTarget := target.GetResTarget()
		if resTarget == nil || resTarget.Val == nil {
			continue
		}
		if columnRef := resTarget.Val.GetColumnRef(); columnRef != nil {
			if len(columnRef.Fields) > 0 && columnRef.Fields[len(columnRef.Fields)-1].GetAStar() != nil {
				query.Columns = nil
				return nil // SELECT *
			}
			_, column, err := columnRefParts(resTarget.Val)
			if err != nil {
				return err
			}
			query.Columns = append(query.Columns, column)
			continue
		}
		if funcCall := resTarget.Val.GetFuncCall(); funcCall != nil {
			agg, err := parseAggregateCall(funcCall)
			if err != nil {
				return err
			}
			if query.Agg != nil {
				return fmt.Errorf("multiple aggregates are not supported: %w", columnar.ErrInvalidOperation)
			}
			query.Agg = agg
			continue
		}
		return fmt.Errorf("unsupported select target: %w", columnar.ErrInvalidOperation)
	}
	return nil
}

func parseAggregateCall(funcCall *pg_query.FuncCall) (*AggregateCall, error) {
	if len(funcCall.Funcname) == 0 {
		return nil, fmt.Errorf("aggregate without a name: %w", columnar.ErrInvalidOperation)
	}
	name := ""
	if str := funcCall.Funcname[len(funcCall.Funcname)-1].GetString_(); str != nil {
		name = strings.ToLower(str.Sval)
	}
	switch name {
	case "sum", "min", "max", "count", "mean":
	case "avg":
		name = "mean"
	default:
		return nil, fmt.Errorf("unsupported aggregate %q: %w", name, columnar.ErrInvalidOperation)
	}

	if funcCall.AggStar {
		if name != "count" {
			return nil, fmt.Errorf("only count(*) may use a star argument: %w", columnar.ErrInvalidOperation)
		}
		return &AggregateCall{Function: name}, nil
	}
	if len(funcCall.Args) != 1 {
		return nil, fmt.Errorf("aggregate %q needs exactly one column argument: %w",
			name, columnar.ErrInvalidOperation)
	}
	_, column, err := columnRefParts(funcCall.Args[0])
	if err != nil {
		return nil, err
	}
	return &AggregateCall{Function: name, Column: column}, nil
}

func parseGroupClause(groupClause []*pg_query.Node, query *ParsedQuery) error {
	if len(groupClause) == 0 {
		return nil
	}
	if len(groupClause) > 1 {
		return fmt.Errorf("GROUP BY supports a single column: %w", columnar.ErrInvalidOperation)
	}
	_, column, err := columnRefParts(groupClause[0])
	if err != nil {
		return err
	}
	query.GroupBy = column
	return nil
}
