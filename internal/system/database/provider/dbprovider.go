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

package provider

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/wso2/regional-consent-service/internal/system/config"
	"github.com/wso2/regional-consent-service/internal/system/constants"
	"github.com/wso2/regional-consent-service/internal/system/database/client"
)

// DBConfig represents the local database configuration.
type DBConfig struct {
	dsn        string
	driverName string
	dialect    string
}

// DBProviderInterface defines the interface for getting database clients.
type DBProviderInterface interface {
	GetDBClient() (client.DBClientInterface, error)
}

// DBProvider is the implementation of DBProviderInterface backed by the runtime configuration.
type DBProvider struct{}

var (
	poolMu      sync.Mutex
	pool        *sql.DB
	poolDialect string
)

// NewDBProvider creates a new instance of DBProvider.
func NewDBProvider() DBProviderInterface {

	return &DBProvider{}
}

// GetDBClient returns a client over the shared connection pool, opening it on first use.
func (d *DBProvider) GetDBClient() (client.DBClientInterface, error) {

	poolMu.Lock()
	defer poolMu.Unlock()

	if pool != nil {
		return client.NewDBClient(pool, poolDialect), nil
	}

	runtimeConfig := config.GetRCSRuntime().Config
	dbConfig := getDBConfig(runtimeConfig.DataSource)

	db, err := sql.Open(dbConfig.driverName, dbConfig.dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %v", err)
	}
	if dbConfig.dialect == constants.DialectSQLite {
		// SQLite allows a single writer; one connection avoids SQLITE_BUSY between pooled connections.
		db.SetMaxOpenConns(1)
	} else if runtimeConfig.DataSource.MaxOpenConns > 0 {
		db.SetMaxOpenConns(runtimeConfig.DataSource.MaxOpenConns)
	}

	// Test the database connection.
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %v", err)
	}

	pool = db
	poolDialect = dbConfig.dialect
	return client.NewDBClient(pool, poolDialect), nil
}

// SetTestDB installs an already opened database as the shared pool.
func SetTestDB(db *sql.DB, dialect string) {
	poolMu.Lock()
	defer poolMu.Unlock()
	pool = db
	poolDialect = dialect
}

// ClosePool closes the shared pool, if any.
func ClosePool() error {
	poolMu.Lock()
	defer poolMu.Unlock()
	if pool == nil {
		return nil
	}
	err := pool.Close()
	pool = nil
	return err
}

// StaticDBProvider serves clients for a fixed database handle.
type StaticDBProvider struct {
	db      *sql.DB
	dialect string
}

// NewStaticDBProvider creates a provider that always returns clients over db.
func NewStaticDBProvider(db *sql.DB, dialect string) DBProviderInterface {
	return &StaticDBProvider{db: db, dialect: dialect}
}

// GetDBClient returns a client over the fixed database handle.
func (s *StaticDBProvider) GetDBClient() (client.DBClientInterface, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database handle is not configured")
	}
	return client.NewDBClient(s.db, s.dialect), nil
}

// getDBConfig returns the database configuration based on the provided data source.
func getDBConfig(dataSource config.DataSourceConfig) DBConfig {

	if dataSource.Type == constants.DialectSQLite {
		return DBConfig{
			driverName: "sqlite3",
			dialect:    constants.DialectSQLite,
			dsn:        SQLiteDSN(dataSource.Path),
		}
	}

	return DBConfig{
		driverName: "postgres",
		dialect:    constants.DialectPostgres,
		dsn: fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
			dataSource.Hostname, dataSource.Port, dataSource.Username, dataSource.Password,
			dataSource.Name, dataSource.SSLMode),
	}
}

// OpenSQLite opens a SQLite database file limited to a single connection.
func OpenSQLite(path string) (*sql.DB, error) {

	db, err := sql.Open("sqlite3", SQLiteDSN(path))
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}

// SQLiteDSN builds the go-sqlite3 connection string. Write transactions start with BEGIN IMMEDIATE.
func SQLiteDSN(path string) string {
	return fmt.Sprintf("file:%s?_txlock=immediate&_busy_timeout=5000&_foreign_keys=on", path)
}
