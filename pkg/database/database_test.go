package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type sample struct {
	ID   int64 `gorm:"primaryKey"`
	Name string
}

func TestDialector(t *testing.T) {
	for _, driver := range []string{"sqlite", "mysql", "postgres", ""} {
		d, err := Dialector(driver, "x")
		require.NoError(t, err, driver)
		assert.NotNil(t, d)
	}

	_, err := Dialector("oracle", "x")
	assert.Error(t, err)
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, logger.Silent, ParseLogLevel("silent"))
	assert.Equal(t, logger.Info, ParseLogLevel("INFO"))
	assert.Equal(t, logger.Warn, ParseLogLevel("unknown"))
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.sqlite")
	db, err := Open(&Config{Driver: DriverSQLite, DSN: path, LogLevel: "silent"})
	require.NoError(t, err)

	require.NoError(t, Migrate(db, &sample{}))
	require.NoError(t, db.Create(&sample{Name: "a"}).Error)

	var count int64
	db.Model(&sample{}).Count(&count)
	assert.Equal(t, int64(1), count)

	sqlDB, _ := db.DB()
	assert.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
}

func TestSQLiteFilePath(t *testing.T) {
	assert.Equal(t, "data.sqlite", SQLiteFilePath("data.sqlite"))
	assert.Equal(t, "/tmp/a.db", SQLiteFilePath("file:/tmp/a.db?_busy_timeout=5000"))
	assert.Equal(t, "", SQLiteFilePath(":memory:"))
	assert.Equal(t, "", SQLiteFilePath("file:t1?mode=memory&cache=shared"))
}

func TestInitializer_RunsSeedersAfterMigrate(t *testing.T) {
	db, err := Open(&Config{Driver: DriverSQLite, DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)

	seed := Seeder{Name: "写入样例", Run: func(ctx context.Context, db *gorm.DB) error {
		return db.FirstOrCreate(&sample{}, sample{Name: "seed"}).Error
	}}
	opts := InitOptions{Models: []interface{}{&sample{}}, Seeders: []Seeder{seed}}

	require.NoError(t, QuickInit(db, opts))
	require.NoError(t, QuickInit(db, opts))

	var count int64
	db.Model(&sample{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestInitializer_StopsOnSeederError(t *testing.T) {
	db, err := Open(&Config{Driver: DriverSQLite, DSN: ":memory:", LogLevel: "silent"})
	require.NoError(t, err)

	boom := errors.New("boom")
	err = NewInitializer(db, InitOptions{
		Models:  []interface{}{&sample{}},
		Seeders: []Seeder{{Name: "失败步骤", Run: func(context.Context, *gorm.DB) error { return boom }}},
	}).Initialize(context.Background())
	assert.ErrorIs(t, err, boom)
}
