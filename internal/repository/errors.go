// Package repository implements the inventory store on MySQL.  Each table
// has a small repo bound to a querier, which is either the *sql.DB or the
// *sql.Tx of the surrounding Store.Tx call.
package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"

    "github.com/go-sql-driver/mysql"

    "github.com/iliyamo/raffle-reservation/internal/inventory"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
    ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
    QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
    QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const mysqlDuplicateEntry = 1062

// mapErr translates driver errors into inventory sentinels.
func mapErr(err error) error {
    if err == nil {
        return nil
    }
    if errors.Is(err, sql.ErrNoRows) {
        return inventory.ErrNotFound
    }
    var me *mysql.MySQLError
    if errors.As(err, &me) && me.Number == mysqlDuplicateEntry {
        return inventory.ErrDuplicate
    }
    return err
}

// placeholders returns "?,?,?" for n arguments.
func placeholders(n int) string {
    if n <= 0 {
        return ""
    }
    return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

func stringArgs(head []any, vals []string) []any {
    out := make([]any, 0, len(head)+len(vals))
    out = append(out, head...)
    for _, v := range vals {
        out = append(out, v)
    }
    return out
}

func nullString(s string) sql.NullString {
    return sql.NullString{String: s, Valid: s != ""}
}

func rowsAffected(res sql.Result, err error) (int64, error) {
    if err != nil {
        return 0, err
    }
    return res.RowsAffected()
}
