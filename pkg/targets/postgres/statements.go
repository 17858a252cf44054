package postgres

import (
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/lib/pq"

	"github.com/otterbrix/pgchurn/pkg/data"
)

const (
	keyColumn      = "_id"
	updatedColumn  = "varchar_field1"
	arrayColumn    = "int_array"
	randomRowWhere = keyColumn + " = (SELECT " + keyColumn + " FROM %s ORDER BY RANDOM() LIMIT 1)"
)

var primaryColumns = []string{
	keyColumn, "varchar_field1", "varchar_field2", "int_field",
	"double_field", "text_field", "bit_field", "bool_field",
}

// statement is a rendered SQL query and its arguments.
type statement struct {
	query string
	args  []interface{}
}

// statementBuilder renders the workload's statements for a pair of tables.
type statementBuilder struct {
	tables Tables
	qb     squirrel.StatementBuilderType
}

func newStatementBuilder(tables Tables) *statementBuilder {
	return &statementBuilder{
		tables: tables,
		qb:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

func (s *statementBuilder) insertPrimary(r *data.PrimaryRecord) (statement, error) {
	return render(s.qb.Insert(s.tables.Primary).
		Columns(primaryColumns...).
		Values(int64(r.ID), r.VarcharField1, r.VarcharField2, r.IntField,
			r.DoubleField, r.TextField, r.BitField, r.BoolField))
}

func (s *statementBuilder) insertSecondary(r *data.SecondaryRecord) (statement, error) {
	return render(s.qb.Insert(s.tables.Secondary).
		Columns(keyColumn, arrayColumn).
		Values(int64(r.ID), pq.Array(r.IntArray)))
}

// updateRandomPrimary overwrites varchar_field1 of one row sampled uniformly
// from the whole primary table.
func (s *statementBuilder) updateRandomPrimary(text string) (statement, error) {
	return render(s.qb.Update(s.tables.Primary).
		Set(updatedColumn, text).
		Where(fmt.Sprintf(randomRowWhere, s.tables.Primary)))
}

// deleteRandom removes one row sampled uniformly from table.
func (s *statementBuilder) deleteRandom(table string) (statement, error) {
	return render(s.qb.Delete(table).
		Where(fmt.Sprintf(randomRowWhere, table)))
}

// batch renders every statement of b in execution order.
func (s *statementBuilder) batch(b *data.Batch) ([]statement, error) {
	stmts := make([]statement, 0, b.Len())
	add := func(st statement, err error) error {
		if err != nil {
			return err
		}
		stmts = append(stmts, st)
		return nil
	}

	if err := add(s.insertPrimary(b.Primary)); err != nil {
		return nil, err
	}
	if err := add(s.insertSecondary(b.Secondary)); err != nil {
		return nil, err
	}
	if b.HasUpdate() {
		if err := add(s.updateRandomPrimary(b.UpdateFirstText)); err != nil {
			return nil, err
		}
	}
	if b.DeleteRandom {
		if err := add(s.deleteRandom(s.tables.Primary)); err != nil {
			return nil, err
		}
		if err := add(s.deleteRandom(s.tables.Secondary)); err != nil {
			return nil, err
		}
	}
	return stmts, nil
}

func render(sqlizer squirrel.Sqlizer) (statement, error) {
	query, args, err := sqlizer.ToSql()
	if err != nil {
		return statement{}, err
	}
	return statement{query: query, args: args}, nil
}
