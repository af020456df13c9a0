package database

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"shareit/internal/config"
	"shareit/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBackupService(t *testing.T) {
	db := setupTestDB(t)
	owner := createTestUser(t, db, "owner")
	booker := createTestUser(t, db, "booker")
	item := createTestItem(t, db, owner.ID, true)
	createTestBooking(t, db, item.ID, booker.ID, testNow, testNow.Add(time.Hour), models.StatusApproved)

	storagePath := filepath.Join(t.TempDir(), "backups")
	logger := zerolog.New(io.Discard)
	s := NewBackupService(db, config.BackupConfig{Enabled: true, StoragePath: storagePath, RetentionDays: 1}, &logger)

	t.Run("PerformBackup", func(t *testing.T) {
		path, err := s.PerformBackup(context.Background())
		require.NoError(t, err)

		copyDB, err := NewDB(path, &logger)
		require.NoError(t, err)
		defer copyDB.Close()

		got, err := copyDB.FindBookings(context.Background(), models.BookingQuery{Viewpoint: models.ViewpointBooker, UserID: booker.ID})
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("CleanupOldBackups", func(t *testing.T) {
		oldFile := filepath.Join(storagePath, backupPrefix+"old.db")
		require.NoError(t, os.WriteFile(oldFile, []byte("old"), 0o644))
		oldTime := time.Now().AddDate(0, 0, -2)
		require.NoError(t, os.Chtimes(oldFile, oldTime, oldTime))

		foreign := filepath.Join(storagePath, "keep-me.txt")
		require.NoError(t, os.WriteFile(foreign, []byte("x"), 0o644))
		require.NoError(t, os.Chtimes(foreign, oldTime, oldTime))

		assert.Equal(t, 1, s.CleanupOldBackups())

		_, err := os.Stat(oldFile)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(foreign)
		assert.NoError(t, err)
	})
}

func TestBackupServiceDisabled(t *testing.T) {
	logger := zerolog.New(io.Discard)
	s := NewBackupService(nil, config.BackupConfig{Enabled: false}, &logger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	s.Start(ctx)
}
