package db

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type txRecord struct {
	ID    int
	Label string
}

func newTestClient(t *testing.T) (*Client, *gorm.DB) {
	t.Helper()

	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&txRecord{}))
	return &Client{conn: conn}, conn
}

func TestWithTxCommitsOnNilError(t *testing.T) {
	client, conn := newTestClient(t)

	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		return tx.Create(&txRecord{Label: "kept"}).Error
	})
	require.NoError(t, err)

	var count int64
	require.NoError(t, conn.Model(&txRecord{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

func TestWithTxRollsBackOnError(t *testing.T) {
	client, conn := newTestClient(t)

	boom := errors.New("boom")
	err := client.WithTx(context.Background(), func(tx *gorm.DB) error {
		if err := tx.Create(&txRecord{Label: "discarded"}).Error; err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)

	var count int64
	require.NoError(t, conn.Model(&txRecord{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
}
