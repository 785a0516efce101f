package batch

import (
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"courier-booking/apperrors"
	batchModel "courier-booking/models/batch"
	staffconfigModel "courier-booking/models/staffconfig"
	userModel "courier-booking/models/user"
	"courier-booking/services/sequence"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&staffconfigModel.StaffConfig{},
		&batchModel.Batch{},
	))
	return db
}

func newService(db *gorm.DB) *BatchService {
	return NewBatchService(db, sequence.NewSequenceService())
}

func seedUser(t *testing.T, db *gorm.DB, username, role string) *userModel.User {
	t.Helper()
	u := userModel.User{
		Uuid:      "u-" + username,
		Username:  username,
		LegalName: "Test User",
		Phone:     fmt.Sprintf("017%08d", len(username)*1111),
		Role:      role,
	}
	require.NoError(t, db.Create(&u).Error)
	return &u
}

func TestEnsureActiveBatchCreatesAndReuses(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "alice", "staff")

	first, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)
	assert.Equal(t, batchModel.BatchStatusActive, first.Status)

	day := sequence.DatePrefix(time.Now())
	assert.Equal(t, fmt.Sprintf("alice-%s-1", day), first.BatchCode)

	second, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID, "a second ensure must return the same batch")

	var total int64
	require.NoError(t, db.Model(&batchModel.Batch{}).Where("staff_id = ?", owner.ID).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestEnsureActiveBatchConcurrently(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "alice", "staff")

	const workers = 8
	batchIDs := make([]uint, workers)
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			b, err := svc.EnsureActiveBatch(owner)
			if err != nil {
				errs[i] = err
				return
			}
			batchIDs[i] = b.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < workers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, batchIDs[0], batchIDs[i], "all ensures must land on the same batch")
	}

	var total int64
	require.NoError(t, db.Model(&batchModel.Batch{}).Where("staff_id = ?", owner.ID).Count(&total).Error)
	assert.Equal(t, int64(1), total)
}

func TestEnsureActiveBatchSupervisorNeedsConfig(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "bob", "supervisor")

	_, err := svc.EnsureActiveBatch(owner)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConfigurationMissing))

	var total int64
	require.NoError(t, db.Model(&batchModel.Batch{}).Count(&total).Error)
	assert.Zero(t, total, "a failed ensure must not leave a batch behind")
}

func TestEnsureActiveBatchSupervisorCodeScheme(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "carla", "supervisor")
	require.NoError(t, db.Create(&staffconfigModel.StaffConfig{
		UserID:      owner.ID,
		StationCode: "DHK",
		StaffCode:   "ST07",
		RouteCode:   "R1",
	}).Error)

	b, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)

	day := sequence.DatePrefix(time.Now())
	assert.Equal(t, fmt.Sprintf("ST07-DHK-%s-1", day), b.BatchCode)
}

func TestCloseBatchAndReopenNumbering(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "alice", "staff")

	first, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)

	closed, err := svc.CloseBatch(first.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, batchModel.BatchStatusClosed, closed.Status)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ClosedBy)
	assert.Equal(t, "alice", *closed.ClosedBy)

	_, err = svc.CloseBatch(first.ID, "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))

	second, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	day := sequence.DatePrefix(time.Now())
	assert.Equal(t, fmt.Sprintf("alice-%s-2", day), second.BatchCode)
}

func TestSetActiveDemotesOtherBatches(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "alice", "staff")

	first, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)
	_, err = svc.CloseBatch(first.ID, "alice")
	require.NoError(t, err)

	second, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)

	reopened, err := svc.SetActive(first.ID, "alice")
	require.NoError(t, err)
	assert.Equal(t, batchModel.BatchStatusActive, reopened.Status)
	assert.Nil(t, reopened.ClosedAt)

	var active int64
	require.NoError(t, db.Model(&batchModel.Batch{}).
		Where("staff_id = ? AND status = ?", owner.ID, batchModel.BatchStatusActive).
		Count(&active).Error)
	assert.Equal(t, int64(1), active, "at most one ACTIVE batch per owner")

	var demoted batchModel.Batch
	require.NoError(t, db.First(&demoted, second.ID).Error)
	assert.Equal(t, batchModel.BatchStatusClosed, demoted.Status)
}

func TestCloseBatchNotFound(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)

	_, err := svc.CloseBatch(404, "alice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestLatestAndList(t *testing.T) {
	db := newTestDB(t)
	svc := newService(db)
	owner := seedUser(t, db, "alice", "staff")

	_, err := svc.Latest(owner.ID)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	b, err := svc.EnsureActiveBatch(owner)
	require.NoError(t, err)

	latest, err := svc.Latest(owner.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, latest.ID)

	all, err := svc.List(nil)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	mine, err := svc.List(&owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)
}
