// Package sqldb wraps database/sql with the SQL Server driver for Azure
// SQL Database access.
package sqldb

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/microsoft/go-mssqldb/azuread"
	log "github.com/sirupsen/logrus"

	_ "github.com/microsoft/go-mssqldb"

	"github.com/datakraft/azurekit/pkg/errs"
	"github.com/datakraft/azurekit/pkg/logging"
)

type Params struct {
	Server     string
	Database   string
	Username   string
	Password   string
	UseAzureAD bool
}

type Client struct {
	log log.FieldLogger
	db  *sql.DB
}

// New opens a connection pool against the configured database. SQL
// authentication is used unless UseAzureAD selects federated Azure AD
// authentication.
func New(params Params, logger log.FieldLogger) (*Client, error) {
	var (
		db  *sql.DB
		err error
	)

	if params.UseAzureAD {
		dsn := fmt.Sprintf("server=%s;port=1433;database=%s;fedauth=ActiveDirectoryDefault;encrypt=true",
			params.Server, params.Database)
		db, err = sql.Open(azuread.DriverName, dsn)
	} else {
		u := &url.URL{
			Scheme:   "sqlserver",
			User:     url.UserPassword(params.Username, params.Password),
			Host:     params.Server + ":1433",
			RawQuery: url.Values{"database": {params.Database}, "encrypt": {"true"}}.Encode(),
		}
		db, err = sql.Open("sqlserver", u.String())
	}
	if err != nil {
		return nil, fmt.Errorf("opening sql connection: %w", err)
	}

	logger = logger.WithField("database", params.Database)
	logger.Infof("initialized azure sql client for database: %s", params.Database)

	return &Client{log: logger, db: db}, nil
}

// ExecuteQuery runs a SELECT and returns the rows as maps keyed by column
// name.
func (c *Client) ExecuteQuery(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	op := logging.Begin(c.log, "sqldb.execute_query", nil)

	rows, err := c.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "sqldb.execute_query", err))
	}
	defer rows.Close()

	result, err := scanRows(rows)
	if err != nil {
		return nil, op.Done(errs.E(errs.KindVendor, "sqldb.execute_query", err))
	}

	_ = op.Done(nil)
	return result, nil
}

// ExecuteNonQuery runs an INSERT, UPDATE, or DELETE and returns the number
// of rows affected.
func (c *Client) ExecuteNonQuery(ctx context.Context, query string, args ...any) (int64, error) {
	op := logging.Begin(c.log, "sqldb.execute_non_query", nil)

	res, err := c.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, op.Done(errs.E(errs.KindVendor, "sqldb.execute_non_query", err))
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return 0, op.Done(errs.E(errs.KindVendor, "sqldb.execute_non_query", err))
	}

	_ = op.Done(nil)
	return affected, nil
}

// ExecuteStoredProcedure executes a stored procedure with positional
// parameters and returns its result rows.
func (c *Client) ExecuteStoredProcedure(ctx context.Context, procedure string, args ...any) ([]map[string]any, error) {
	placeholders := make([]string, len(args))
	for i := range args {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
	}
	query := fmt.Sprintf("EXEC %s %s", procedure, strings.Join(placeholders, ", "))
	return c.ExecuteQuery(ctx, query, args...)
}

// BulkInsert inserts the given rows into a table inside a single
// transaction with one prepared statement. Columns are taken from the
// first row and ordered by name.
func (c *Client) BulkInsert(ctx context.Context, table string, rows []map[string]any) error {
	op := logging.Begin(c.log, "sqldb.bulk_insert", log.Fields{"table": table, "rows": len(rows)})

	if len(rows) == 0 {
		c.log.Warn("no data to insert")
		return op.Done(nil)
	}

	columns := make([]string, 0, len(rows[0]))
	for col := range rows[0] {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	placeholders := make([]string, len(columns))
	for i := range columns {
		placeholders[i] = fmt.Sprintf("@p%d", i+1)
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(columns, ", "), strings.Join(placeholders, ", "))

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "sqldb.bulk_insert", err))
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return op.Done(errs.E(errs.KindVendor, "sqldb.bulk_insert", err))
	}
	defer stmt.Close()

	for _, row := range rows {
		args := make([]any, len(columns))
		for i, col := range columns {
			args[i] = row[col]
		}
		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return op.Done(errs.E(errs.KindVendor, "sqldb.bulk_insert", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return op.Done(errs.E(errs.KindVendor, "sqldb.bulk_insert", err))
	}
	return op.Done(nil)
}

// GetTableSchema returns column metadata for a table.
func (c *Client) GetTableSchema(ctx context.Context, table string) ([]map[string]any, error) {
	const query = `
		SELECT
			COLUMN_NAME,
			DATA_TYPE,
			CHARACTER_MAXIMUM_LENGTH,
			IS_NULLABLE,
			COLUMN_DEFAULT
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_NAME = @p1
		ORDER BY ORDINAL_POSITION`
	return c.ExecuteQuery(ctx, query, table)
}

func (c *Client) ListTables(ctx context.Context) ([]string, error) {
	const query = `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME`

	rows, err := c.ExecuteQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	tables := make([]string, 0, len(rows))
	for _, row := range rows {
		if name, ok := row["TABLE_NAME"].(string); ok {
			tables = append(tables, name)
		}
	}
	return tables, nil
}

func (c *Client) TableExists(ctx context.Context, table string) (bool, error) {
	const query = `
		SELECT COUNT(*) AS count
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_NAME = @p1`

	rows, err := c.ExecuteQuery(ctx, query, table)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}

	switch count := rows[0]["count"].(type) {
	case int64:
		return count > 0, nil
	case int:
		return count > 0, nil
	default:
		return false, nil
	}
}

func (c *Client) Close() error {
	c.log.Info("closing database connection")
	return c.db.Close()
}

func scanRows(rows *sql.Rows) ([]map[string]any, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var result []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, err
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			if b, ok := values[i].([]byte); ok {
				row[col] = string(b)
			} else {
				row[col] = values[i]
			}
		}
		result = append(result, row)
	}
	return result, rows.Err()
}
