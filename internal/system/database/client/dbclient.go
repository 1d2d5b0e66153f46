/*
 * Copyright (c) 2025, WSO2 LLC. (http://www.wso2.com).
 *
 * WSO2 LLC. licenses this file to you under the Apache License,
 * Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.
 * You may obtain a copy of the License at
 *
 * http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing,
 * software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
 * KIND, either express or implied.  See the License for the
 * specific language governing permissions and limitations
 * under the License.
 */

package client

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/wso2/regional-consent-service/internal/system/database/scripts"
	"github.com/wso2/regional-consent-service/internal/system/log"
)

// DBClientInterface defines the interface for database operations.
type DBClientInterface interface {
	ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error)
	Execute(ctx context.Context, query string, args ...interface{}) (int64, error)
	BeginTx(ctx context.Context) (*sql.Tx, error)
	Dialect() string
	Close() error
	InitDatabase(ctx context.Context) error
}

// DBClient is the implementation of DBClientInterface.
type DBClient struct {
	db      *sql.DB
	dialect string
}

// NewDBClient creates a new instance of DBClient with the provided database connection.
func NewDBClient(db *sql.DB, dialect string) DBClientInterface {

	return &DBClient{
		db:      db,
		dialect: dialect,
	}
}

// InitDatabase creates the consent log schema for the client's dialect when it does not exist.
func (client *DBClient) InitDatabase(ctx context.Context) error {

	schema, ok := scripts.ConsentLogSchema[client.dialect]
	if !ok {
		return fmt.Errorf("no schema available for dialect %q", client.dialect)
	}
	for _, stmt := range strings.Split(schema, ";") {
		if strings.TrimSpace(stmt) == "" {
			continue
		}
		if _, err := client.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}
	log.GetLogger().Info("Database schema created successfully", log.String("dialect", client.dialect))
	return nil
}

// ExecuteQuery executes a SELECT query and returns the result as a slice of maps.
func (client *DBClient) ExecuteQuery(ctx context.Context, query string, args ...interface{}) ([]map[string]interface{}, error) {

	rows, err := client.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanRows(rows)
}

// Execute runs a statement that returns no rows and reports the number of affected rows.
func (client *DBClient) Execute(ctx context.Context, query string, args ...interface{}) (int64, error) {

	result, err := client.db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// BeginTx starts a new database transaction.
func (client *DBClient) BeginTx(ctx context.Context) (*sql.Tx, error) {

	return client.db.BeginTx(ctx, nil)
}

// Dialect returns the SQL dialect key used to pick statements from the scripts package.
func (client *DBClient) Dialect() string {
	return client.dialect
}

// Close releases the client. The underlying pool is shared and owned by the provider.
func (client *DBClient) Close() error {
	return nil
}

// QueryTx executes a SELECT query inside the given transaction.
func QueryTx(ctx context.Context, tx *sql.Tx, query string, args ...interface{}) ([]map[string]interface{}, error) {

	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return ScanRows(rows)
}

// ScanRows converts the result set into a slice of column name to value maps.
func ScanRows(rows *sql.Rows) ([]map[string]interface{}, error) {

	columns, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var results []map[string]interface{}
	for rows.Next() {
		row := make([]interface{}, len(columns))
		rowPointers := make([]interface{}, len(columns))
		for i := range row {
			rowPointers[i] = &row[i]
		}

		if err := rows.Scan(rowPointers...); err != nil {
			return nil, err
		}

		result := map[string]interface{}{}
		for i, col := range columns {
			// Normalize column names to lowercase for consistency.
			result[strings.ToLower(col)] = row[i]
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
