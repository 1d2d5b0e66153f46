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

//go:build integration

package setup

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
)

// TestPostgres is a throwaway Postgres container with an open connection.
type TestPostgres struct {
	Container *postgres.PostgresContainer
	DB        *sql.DB
}

// SetupTestPostgres starts a Postgres container and connects to it.
func SetupTestPostgres(ctx context.Context) (*TestPostgres, error) {

	container, err := postgres.Run(ctx, "postgres:16-alpine",
		postgres.WithDatabase("consent"),
		postgres.WithUsername("rcs"),
		postgres.WithPassword("rcs"),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to start container: %w", err)
	}

	connStr, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		_ = testcontainers.TerminateContainer(container)
		return nil, err
	}
	return &TestPostgres{Container: container, DB: db}, nil
}

// Terminate closes the connection and removes the container.
func (p *TestPostgres) Terminate() {
	_ = p.DB.Close()
	_ = testcontainers.TerminateContainer(p.Container)
}
