/*
 * Copyright (c) 2025-2026, BDA Portal.
 *
 * BDA Portal licenses this file to you under the Apache License,
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

package setup

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	testDBName     = "irstestdb"
	testDBUser     = "testuser"
	testDBPassword = "testpass"
)

// TestPostgres holds the running container and an open connection to it.
type TestPostgres struct {
	Container testcontainers.Container
	DB        *sql.DB
	Host      string
	Port      int
}

// SetupTestPostgres spins up a Postgres container and applies the schema
// file when one is given.
func SetupTestPostgres(ctx context.Context, schemaFile string) (*TestPostgres, error) {
	req := testcontainers.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_USER":     testDBUser,
			"POSTGRES_PASSWORD": testDBPassword,
			"POSTGRES_DB":       testDBName,
		},
		WaitingFor: wait.ForListeningPort("5432/tcp"),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	if err != nil {
		return nil, err
	}

	host, err := container.Host(ctx)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}
	port, err := container.MappedPort(ctx, "5432")
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host, port.Port(), testDBUser, testDBPassword, testDBName)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		_ = container.Terminate(ctx)
		return nil, err
	}

	if schemaFile != "" {
		schemaBytes, err := os.ReadFile(schemaFile)
		if err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("failed to read schema file: %w", err)
		}
		if _, err := db.Exec(string(schemaBytes)); err != nil {
			_ = container.Terminate(ctx)
			return nil, fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	return &TestPostgres{
		Container: container,
		DB:        db,
		Host:      host,
		Port:      port.Int(),
	}, nil
}

// Teardown closes the connection and stops the container.
func (p *TestPostgres) Teardown(ctx context.Context) {
	if p.DB != nil {
		_ = p.DB.Close()
	}
	if p.Container != nil {
		_ = p.Container.Terminate(ctx)
	}
}
