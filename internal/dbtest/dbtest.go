// Package dbtest opens migrated in-memory databases for package tests.
package dbtest

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/smallbiznis/invoicely/internal/migration"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Open returns a private in-memory sqlite database with the billing schema.
// A single connection keeps the memory database alive for the whole test.
func Open(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(uuid.NewString(), "-", ""))
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  gormlogger.Discard,
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, migration.AutoMigrate(conn))
	return conn
}

func Node(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	return node
}

// Client inserts a client row for userID and returns its id.
func Client(t testing.TB, conn *gorm.DB, node *snowflake.Node, userID int64, name, email, status string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	require.NoError(t, conn.Exec(
		`INSERT INTO clients (id, user_id, name, email, phone, address, status, created_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, userID, name, email, nil, nil, status, time.Now().UTC(),
	).Error)
	return id
}

// Product inserts a product row for userID and returns its id.
func Product(t testing.TB, conn *gorm.DB, node *snowflake.Node, userID int64, name, price string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	require.NoError(t, conn.Exec(
		`INSERT INTO products (id, user_id, name, description, price, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, userID, name, nil, price, time.Now().UTC(),
	).Error)
	return id
}
