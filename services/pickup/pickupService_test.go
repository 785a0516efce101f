package pickup

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"courier-booking/apperrors"
	batchModel "courier-booking/models/batch"
	bookingModel "courier-booking/models/booking"
	cityModel "courier-booking/models/city"
	pickupModel "courier-booking/models/pickup"
	userModel "courier-booking/models/user"
	pickupTypes "courier-booking/types/pickup"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db        *gorm.DB
	svc       *PickupService
	requester *userModel.User
	rider     *userModel.User
	admin     *userModel.User
	stranger  *userModel.User
	batchID   uint
	originID  uint
	destID    uint
	nextCn    int
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&userModel.User{},
		&cityModel.City{},
		&batchModel.Batch{},
		&bookingModel.Booking{},
		&bookingModel.BookingHistory{},
		&pickupModel.PickupRequest{},
	))

	mkUser := func(username, role, phone string) *userModel.User {
		u := userModel.User{
			Uuid: "u-" + username, Username: username, LegalName: username,
			Phone: phone, Role: role,
		}
		require.NoError(t, db.Create(&u).Error)
		return &u
	}

	requester := mkUser("alice", "staff", "01711111111")
	rider := mkUser("rafiq", "rider", "01722222222")
	admin := mkUser("boss", "admin", "01733333333")
	stranger := mkUser("mallory", "staff", "01744444444")

	origin := cityModel.City{Name: "Dhaka", StationCode: "DHK", Active: true}
	dest := cityModel.City{Name: "Chattogram", StationCode: "CTG", Active: true}
	require.NoError(t, db.Create(&origin).Error)
	require.NoError(t, db.Create(&dest).Error)

	batch := batchModel.Batch{BatchCode: "alice-1", Status: batchModel.BatchStatusActive, StaffID: requester.ID}
	require.NoError(t, db.Create(&batch).Error)

	return &fixture{
		db:        db,
		svc:       NewPickupService(db),
		requester: requester,
		rider:     rider,
		admin:     admin,
		stranger:  stranger,
		batchID:   batch.ID,
		originID:  origin.ID,
		destID:    dest.ID,
	}
}

func (f *fixture) seedBooking(t *testing.T, status bookingModel.BookingStatus) *bookingModel.Booking {
	t.Helper()
	f.nextCn++
	cn := fmt.Sprintf("20260831%02d", f.nextCn)

	b := bookingModel.Booking{
		Uuid:              fmt.Sprintf("bk-%d", f.nextCn),
		CnNumber:          &cn,
		Status:            status,
		BatchID:           f.batchID,
		OriginCityID:      f.originID,
		DestinationCityID: f.destID,
		Weight:            1.0,
		Pieces:            1,
		PaymentMode:       "CASH",
		Rate:              100,
		Total:             100,
		ShipperName:       "Shipper", ShipperPhone: "01755555555", ShipperAddress: "addr",
		ConsigneeName: "Consignee", ConsigneePhone: "01766666666", ConsigneeAddress: "addr",
		UserID:    f.requester.ID,
		CreatedBy: "alice",
	}
	require.NoError(t, f.db.Create(&b).Error)
	return &b
}

func (f *fixture) createRequest(bookingID uint) *pickupTypes.PickupCreateRequest {
	return &pickupTypes.PickupCreateRequest{
		BookingID:     bookingID,
		PickupAddress: "12 Station Rd",
		ContactPhone:  "01777777777",
	}
}

func (f *fixture) bookingStatus(t *testing.T, id uint) bookingModel.BookingStatus {
	t.Helper()
	var b bookingModel.Booking
	require.NoError(t, f.db.First(&b, id).Error)
	return b.Status
}

func TestCreatePickup(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	p, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)
	assert.Equal(t, pickupModel.PickupStatusRequested, p.Status)
	assert.Equal(t, f.requester.ID, p.RequestedByID)
	assert.Equal(t, bookingModel.BookingStatusPickupRequested, f.bookingStatus(t, b.ID))
}

func TestCreatePickupDuplicateConflicts(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	_, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)

	// A second live request is rejected even from a different user.
	_, err = f.svc.Create(f.admin, f.createRequest(b.ID))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestCreatePickupConcurrentlyHasOneWinner(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	const workers = 8
	errs := make([]error, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.svc.Create(f.requester, f.createRequest(b.ID))
		}(i)
	}
	wg.Wait()

	wins := 0
	for i := 0; i < workers; i++ {
		if errs[i] == nil {
			wins++
			continue
		}
		assert.True(t, errors.Is(errs[i], apperrors.ErrConflict))
	}
	assert.Equal(t, 1, wins)

	var live int64
	require.NoError(t, f.db.Model(&pickupModel.PickupRequest{}).
		Where("booking_id = ?", b.ID).Count(&live).Error)
	assert.Equal(t, int64(1), live)
	assert.Equal(t, bookingModel.BookingStatusPickupRequested, f.bookingStatus(t, b.ID))
}

func TestCreatePickupOnPendingBooking(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusPending)

	_, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIllegalTransition))
}

func TestCancelPickupPermissions(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	p, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)

	// A third party can neither cancel...
	_, err = f.svc.Cancel(p.ID, f.stranger)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrForbidden))

	// ...but the requester can, and the booking drops back to BOOKED.
	cancelled, err := f.svc.Cancel(p.ID, f.requester)
	require.NoError(t, err)
	assert.Equal(t, pickupModel.PickupStatusCancelled, cancelled.Status)
	require.NotNil(t, cancelled.CancelledAt)
	assert.Equal(t, bookingModel.BookingStatusBooked, f.bookingStatus(t, b.ID))

	// Cancelling twice is a conflict.
	_, err = f.svc.Cancel(p.ID, f.requester)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestCancelPickupByAdmin(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	p, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)

	cancelled, err := f.svc.Cancel(p.ID, f.admin)
	require.NoError(t, err)
	assert.Equal(t, pickupModel.PickupStatusCancelled, cancelled.Status)
}

func TestCancelledPickupFreesBookingForNewRequest(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	p, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)
	_, err = f.svc.Cancel(p.ID, f.requester)
	require.NoError(t, err)

	second, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)
	assert.NotEqual(t, p.ID, second.ID)
}

func TestPickupLifecycle(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	p, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)

	// Assigning needs a rider.
	_, err = f.svc.UpdateStatus(p.ID, &pickupTypes.PickupUpdateStatusRequest{
		Status: string(pickupModel.PickupStatusAssigned),
	}, f.admin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))

	assigned, err := f.svc.UpdateStatus(p.ID, &pickupTypes.PickupUpdateStatusRequest{
		Status:  string(pickupModel.PickupStatusAssigned),
		RiderID: f.rider.ID,
	}, f.admin)
	require.NoError(t, err)
	assert.Equal(t, pickupModel.PickupStatusAssigned, assigned.Status)
	require.NotNil(t, assigned.RiderID)
	assert.Equal(t, f.rider.ID, *assigned.RiderID)

	picked, err := f.svc.UpdateStatus(p.ID, &pickupTypes.PickupUpdateStatusRequest{
		Status: string(pickupModel.PickupStatusPicked),
	}, f.rider)
	require.NoError(t, err)
	assert.Equal(t, pickupModel.PickupStatusPicked, picked.Status)
	require.NotNil(t, picked.PickedAt)
	assert.Equal(t, bookingModel.BookingStatusAtHub, f.bookingStatus(t, b.ID))
}

func TestPickupSkipAssignIsIllegal(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusBooked)

	p, err := f.svc.Create(f.requester, f.createRequest(b.ID))
	require.NoError(t, err)

	_, err = f.svc.UpdateStatus(p.ID, &pickupTypes.PickupUpdateStatusRequest{
		Status: string(pickupModel.PickupStatusPicked),
	}, f.admin)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIllegalTransition))
}

func TestEligibleBookings(t *testing.T) {
	f := newFixture(t)
	free := f.seedBooking(t, bookingModel.BookingStatusBooked)
	busy := f.seedBooking(t, bookingModel.BookingStatusBooked)
	f.seedBooking(t, bookingModel.BookingStatusPending)

	_, err := f.svc.Create(f.requester, f.createRequest(busy.ID))
	require.NoError(t, err)

	eligible, err := f.svc.EligibleBookings(f.requester.ID)
	require.NoError(t, err)
	require.Len(t, eligible, 1)
	assert.Equal(t, free.ID, eligible[0].ID)
}

func TestListMineAndAll(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusBooked)
	b2 := f.seedBooking(t, bookingModel.BookingStatusBooked)

	_, err := f.svc.Create(f.requester, f.createRequest(b1.ID))
	require.NoError(t, err)
	_, err = f.svc.Create(f.admin, f.createRequest(b2.ID))
	require.NoError(t, err)

	mine, err := f.svc.ListMine(f.requester.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := f.svc.ListAll("")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	requested, err := f.svc.ListAll(string(pickupModel.PickupStatusRequested))
	require.NoError(t, err)
	assert.Len(t, requested, 2)
}
