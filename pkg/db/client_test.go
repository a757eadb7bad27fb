package db_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/angelmondragon/tms-backend/pkg/config"
	"github.com/angelmondragon/tms-backend/pkg/db"
	"github.com/angelmondragon/tms-backend/pkg/db/dbtest"
	"github.com/angelmondragon/tms-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/tms-backend/pkg/errors"
	"github.com/angelmondragon/tms-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func countTypes(t *testing.T, client *db.Client) int64 {
	t.Helper()
	var n int64
	require.NoError(t, client.DB().Model(&models.EquipmentType{}).Count(&n).Error)
	return n
}

func TestWithTxCommitsAndRollsBack(t *testing.T) {
	client := dbtest.NewClient(t)
	ctx := context.Background()

	require.NoError(t, client.WithTx(ctx, func(tx *gorm.DB) error {
		return tx.Create(&models.EquipmentType{Name: "Tipper Truck"}).Error
	}))
	assert.EqualValues(t, 1, countTypes(t, client))

	boom := errors.New("plan rejected")
	err := client.WithTx(ctx, func(tx *gorm.DB) error {
		if err := tx.Create(&models.EquipmentType{Name: "Water Bowser"}).Error; err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.EqualValues(t, 1, countTypes(t, client))
}

func TestWithTxRollsBackOnPanic(t *testing.T) {
	client := dbtest.NewClient(t)

	assert.Panics(t, func() {
		_ = client.WithTx(context.Background(), func(tx *gorm.DB) error {
			require.NoError(t, tx.Create(&models.EquipmentType{Name: "Low Bed"}).Error)
			panic("driver vanished")
		})
	})
	assert.Zero(t, countTypes(t, client))
}

func TestClassify(t *testing.T) {
	client := dbtest.NewClient(t)
	conn := client.DB()
	require.NoError(t, conn.Create(&models.EquipmentType{Name: "Tipper Truck"}).Error)

	dup := conn.Create(&models.EquipmentType{Name: "Tipper Truck"}).Error
	require.Error(t, dup)
	assert.True(t, db.IsUniqueViolation(dup, ""))
	assert.Equal(t, pkgerrors.CodeConflict, pkgerrors.As(db.Classify(dup, "create equipment type")).Code())

	var missing models.EquipmentType
	err := conn.First(&missing, "name = ?", "Grader").Error
	assert.Equal(t, pkgerrors.CodeNotFound, pkgerrors.As(db.Classify(err, "load equipment type")).Code())

	assert.Nil(t, db.Classify(nil, "noop"))
}

func TestNewSQLiteAndClose(t *testing.T) {
	ctx := context.Background()
	_, err := db.New(ctx, config.DBConfig{Driver: "oracle", DSN: "x"}, nil)
	assert.Error(t, err)
	_, err = db.New(ctx, config.DBConfig{Driver: db.DriverSQLite}, nil)
	assert.Error(t, err)

	client, err := db.New(ctx, config.DBConfig{
		Driver:       db.DriverSQLite,
		DSN:          filepath.Join(t.TempDir(), "tms.db"),
		MaxOpenConns: 1,
		SlowQuery:    time.Second,
	}, logger.Nop())
	require.NoError(t, err)
	require.NoError(t, client.Ping(ctx))
	require.NoError(t, client.Close())
	assert.Error(t, client.Ping(ctx))
}
