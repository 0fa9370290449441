package pg

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/kennethjason07/schoolmangmentsystem-sub018/pkg/scope"
)

// Store executes scoped CRUD statements. Every statement runs in its own
// transaction with the tenant session variable set, so row-level security
// policies on the server enforce the same tenant the client validated.
type Store struct {
	db      DB
	column  string
	setting string
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithTenantColumn sets the column the tenant id is read from.
func WithTenantColumn(column string) StoreOption {
	return func(s *Store) {
		if column != "" {
			s.column = column
		}
	}
}

// WithTenantSetting sets the session variable name passed to set_config.
func WithTenantSetting(name string) StoreOption {
	return func(s *Store) {
		if name != "" {
			s.setting = name
		}
	}
}

// NewStore creates a store over db.
func NewStore(db DB, opts ...StoreOption) *Store {
	s := &Store{
		db:      db,
		column:  scope.DefaultTenantColumn,
		setting: "app.tenant_id",
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) Create(ctx context.Context, table string, row scope.Row) (scope.Row, error) {
	sql, args, err := buildInsert(table, row)
	if err != nil {
		return nil, err
	}

	var out scope.Row
	err = s.inTenantTx(ctx, row, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		m, err := pgx.CollectExactlyOneRow(rows, pgx.RowToMap)
		out = scope.Row(m)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("insert into %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) Read(ctx context.Context, table string, filter scope.Row) ([]scope.Row, error) {
	sql, args, err := buildSelect(table, filter)
	if err != nil {
		return nil, err
	}

	var out []scope.Row
	err = s.inTenantTx(ctx, filter, func(tx pgx.Tx) error {
		rows, err := tx.Query(ctx, sql, args...)
		if err != nil {
			return err
		}
		maps, err := pgx.CollectRows(rows, pgx.RowToMap)
		for _, m := range maps {
			out = append(out, scope.Row(m))
		}
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("select from %s: %w", table, err)
	}
	return out, nil
}

func (s *Store) Update(ctx context.Context, table string, filter, changes scope.Row) (int64, error) {
	sql, args, err := buildUpdate(table, filter, changes)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, filter, sql, args, "update "+table)
}

func (s *Store) Delete(ctx context.Context, table string, filter scope.Row) (int64, error) {
	sql, args, err := buildDelete(table, filter)
	if err != nil {
		return 0, err
	}
	return s.exec(ctx, filter, sql, args, "delete from "+table)
}

func (s *Store) exec(ctx context.Context, scoped scope.Row, sql string, args []any, op string) (int64, error) {
	var n int64
	err := s.inTenantTx(ctx, scoped, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, sql, args...)
		n = tag.RowsAffected()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s *Store) inTenantTx(ctx context.Context, scoped scope.Row, fn func(pgx.Tx) error) error {
	tenantID, ok := scoped[s.column].(string)
	if !ok || tenantID == "" {
		return fmt.Errorf("%w: column %s", ErrMissingTenantFilter, s.column)
	}

	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, "SELECT set_config($1, $2, true)", s.setting, tenantID); err != nil {
			return fmt.Errorf("set tenant: %w", err)
		}
		return fn(tx)
	})
}

func identifier(name string) (string, error) {
	parts := strings.Split(name, ".")
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			return "", fmt.Errorf("%w: %q", ErrInvalidTable, name)
		}
	}
	return pgx.Identifier(parts).Sanitize(), nil
}

func sortedKeys(r scope.Row) []string {
	keys := make([]string, 0, len(r))
	for k := range r {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// where renders an AND of equality conditions with placeholders numbered
// from len(args)+1. Nil values compare with IS NULL.
func where(filter scope.Row, args []any) (string, []any) {
	if len(filter) == 0 {
		return "", args
	}
	conds := make([]string, 0, len(filter))
	for _, k := range sortedKeys(filter) {
		col := pgx.Identifier{k}.Sanitize()
		if filter[k] == nil {
			conds = append(conds, col+" IS NULL")
			continue
		}
		args = append(args, filter[k])
		conds = append(conds, col+" = $"+strconv.Itoa(len(args)))
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func buildInsert(table string, row scope.Row) (string, []any, error) {
	tbl, err := identifier(table)
	if err != nil {
		return "", nil, err
	}
	if len(row) == 0 {
		return "", nil, ErrEmptyRow
	}

	keys := sortedKeys(row)
	cols := make([]string, len(keys))
	marks := make([]string, len(keys))
	args := make([]any, len(keys))
	for i, k := range keys {
		cols[i] = pgx.Identifier{k}.Sanitize()
		marks[i] = "$" + strconv.Itoa(i+1)
		args[i] = row[k]
	}
	sql := "INSERT INTO " + tbl + " (" + strings.Join(cols, ", ") + ") VALUES (" + strings.Join(marks, ", ") + ") RETURNING *"
	return sql, args, nil
}

func buildSelect(table string, filter scope.Row) (string, []any, error) {
	tbl, err := identifier(table)
	if err != nil {
		return "", nil, err
	}
	cond, args := where(filter, nil)
	return "SELECT * FROM " + tbl + cond, args, nil
}

func buildUpdate(table string, filter, changes scope.Row) (string, []any, error) {
	tbl, err := identifier(table)
	if err != nil {
		return "", nil, err
	}
	if len(changes) == 0 {
		return "", nil, errors.Join(ErrEmptyRow, errors.New("update has no changes"))
	}

	keys := sortedKeys(changes)
	sets := make([]string, len(keys))
	args := make([]any, 0, len(keys)+len(filter))
	for i, k := range keys {
		args = append(args, changes[k])
		sets[i] = pgx.Identifier{k}.Sanitize() + " = $" + strconv.Itoa(len(args))
	}
	cond, args := where(filter, args)
	return "UPDATE " + tbl + " SET " + strings.Join(sets, ", ") + cond, args, nil
}

func buildDelete(table string, filter scope.Row) (string, []any, error) {
	tbl, err := identifier(table)
	if err != nil {
		return "", nil, err
	}
	cond, args := where(filter, nil)
	return "DELETE FROM " + tbl + cond, args, nil
}
