package db

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type recordingWriter struct {
	lines []string
}

func (w *recordingWriter) Printf(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

type station struct {
	ID   int64
	Name string
}

func TestGormLogger_IgnoresRecordNotFound(t *testing.T) {
	w := &recordingWriter{}
	cfg := GormConfig()
	cfg.Logger = gormLogger(w)

	gdb, err := gorm.Open(sqlite.Open("file:orm_logger?mode=memory&cache=shared"), cfg)
	require.NoError(t, err, "failed to open sqlite")
	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, gdb.AutoMigrate(&station{}))

	var s station
	err = gdb.WithContext(context.Background()).First(&s, "id = ?", 42).Error
	require.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	assert.Empty(t, w.lines)

	err = gdb.Table("no_such_table").First(&s).Error
	require.Error(t, err)
	require.Len(t, w.lines, 1)
	assert.True(t, strings.Contains(w.lines[0], "no_such_table"))
}
