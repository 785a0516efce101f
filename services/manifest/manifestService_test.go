package manifest

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"courier-booking/apperrors"
	batchModel "courier-booking/models/batch"
	bookingModel "courier-booking/models/booking"
	cityModel "courier-booking/models/city"
	manifestModel "courier-booking/models/manifest"
	userModel "courier-booking/models/user"
	"courier-booking/services/sequence"
	manifestTypes "courier-booking/types/manifest"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     *ManifestService
	origin  cityModel.City
	dest    cityModel.City
	userID  uint
	batchID uint
	nextCn  int
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
		&manifestModel.Manifest{},
		&manifestModel.ManifestShipment{},
	))

	operator := userModel.User{
		Uuid: "u-alice", Username: "alice", LegalName: "Alice Rahman",
		Phone: "01711111111", Role: "staff",
	}
	require.NoError(t, db.Create(&operator).Error)

	origin := cityModel.City{Name: "Dhaka", StationCode: "DHK", Active: true}
	dest := cityModel.City{Name: "Chattogram", StationCode: "CTG", Active: true}
	require.NoError(t, db.Create(&origin).Error)
	require.NoError(t, db.Create(&dest).Error)

	batch := batchModel.Batch{BatchCode: "alice-1", Status: batchModel.BatchStatusActive, StaffID: operator.ID}
	require.NoError(t, db.Create(&batch).Error)

	return &fixture{
		db:      db,
		svc:     NewManifestService(db),
		origin:  origin,
		dest:    dest,
		userID:  operator.ID,
		batchID: batch.ID,
	}
}

// seedBooking inserts a booking with a CN number already assigned, in the
// given status.
func (f *fixture) seedBooking(t *testing.T, status bookingModel.BookingStatus) *bookingModel.Booking {
	t.Helper()
	f.nextCn++
	cn := fmt.Sprintf("20260831%02d", f.nextCn)

	b := bookingModel.Booking{
		Uuid:              fmt.Sprintf("bk-%d", f.nextCn),
		CnNumber:          &cn,
		Status:            status,
		BatchID:           f.batchID,
		OriginCityID:      f.origin.ID,
		DestinationCityID: f.dest.ID,
		Weight:            1.0,
		Pieces:            1,
		PaymentMode:       "CASH",
		Rate:              100,
		Total:             100,
		ShipperName:       "Shipper", ShipperPhone: "01722222222", ShipperAddress: "addr",
		ConsigneeName: "Consignee", ConsigneePhone: "01733333333", ConsigneeAddress: "addr",
		UserID:    f.userID,
		CreatedBy: "alice",
	}
	require.NoError(t, f.db.Create(&b).Error)
	return &b
}

func (f *fixture) createRequest(cns ...string) *manifestTypes.ManifestCreateRequest {
	return &manifestTypes.ManifestCreateRequest{
		FromCityID: f.origin.ID,
		ToCityID:   f.dest.ID,
		CnNumbers:  cns,
	}
}

func TestCreateManifest(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	b2 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber, *b2.CnNumber), "carol")
	require.NoError(t, err)

	day := sequence.DatePrefix(time.Now())
	assert.Equal(t, "MF-"+day+"-1", m.ManifestCode)
	assert.Equal(t, manifestModel.ManifestStatusPending, m.Status)
	assert.Equal(t, 2, m.TotalCns)
	assert.Len(t, m.Shipments, 2)

	for _, id := range []uint{b1.ID, b2.ID} {
		var b bookingModel.Booking
		require.NoError(t, f.db.First(&b, id).Error)
		assert.Equal(t, bookingModel.BookingStatusInTransit, b.Status)
		require.NotNil(t, b.ManifestID)
		assert.Equal(t, m.ID, *b.ManifestID)
	}
}

func TestCreateManifestUnknownCnAbortsEverything(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	b2 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	_, err := f.svc.Create(f.createRequest(*b1.CnNumber, *b2.CnNumber, "2026083199"), "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	// Nothing survived the rollback: no header, no membership, no transitions.
	var manifests, shipments int64
	require.NoError(t, f.db.Model(&manifestModel.Manifest{}).Count(&manifests).Error)
	require.NoError(t, f.db.Model(&manifestModel.ManifestShipment{}).Count(&shipments).Error)
	assert.Zero(t, manifests)
	assert.Zero(t, shipments)

	for _, id := range []uint{b1.ID, b2.ID} {
		var b bookingModel.Booking
		require.NoError(t, f.db.First(&b, id).Error)
		assert.Equal(t, bookingModel.BookingStatusAtHub, b.Status)
		assert.Nil(t, b.ManifestID)
	}
}

func TestCreateManifestRejectsDuplicateCn(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	_, err := f.svc.Create(f.createRequest(*b1.CnNumber, *b1.CnNumber), "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrValidation))
}

func TestCreateManifestIllegalMemberAborts(t *testing.T) {
	f := newFixture(t)
	good := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	delivered := f.seedBooking(t, bookingModel.BookingStatusDelivered)

	_, err := f.svc.Create(f.createRequest(*good.CnNumber, *delivered.CnNumber), "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIllegalTransition))

	var b bookingModel.Booking
	require.NoError(t, f.db.First(&b, good.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusAtHub, b.Status)
}

func TestAddShipmentsIsIdempotent(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	late := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber), "carol")
	require.NoError(t, err)

	m, err = f.svc.AddShipments(m.ID, &manifestTypes.AddShipmentsRequest{
		CnNumbers: []string{*late.CnNumber},
	}, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalCns)

	// Re-adding the same CN changes nothing.
	m, err = f.svc.AddShipments(m.ID, &manifestTypes.AddShipmentsRequest{
		CnNumbers: []string{*late.CnNumber},
	}, "carol")
	require.NoError(t, err)
	assert.Equal(t, 2, m.TotalCns)
	assert.Len(t, m.Shipments, 2)
}

func TestCompleteHealsLateMembers(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	late := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber), "carol")
	require.NoError(t, err)

	// The late member joins after creation and is still AT_HUB.
	_, err = f.svc.AddShipments(m.ID, &manifestTypes.AddShipmentsRequest{
		CnNumbers: []string{*late.CnNumber},
	}, "carol")
	require.NoError(t, err)

	m, err = f.svc.Complete(m.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, manifestModel.ManifestStatusCompleted, m.Status)

	var healed bookingModel.Booking
	require.NoError(t, f.db.First(&healed, late.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusInTransit, healed.Status)

	// Completing again transitions nobody and appends no history.
	var before int64
	require.NoError(t, f.db.Model(&bookingModel.BookingHistory{}).Count(&before).Error)

	_, err = f.svc.Complete(m.ID, "carol")
	require.NoError(t, err)

	var after int64
	require.NoError(t, f.db.Model(&bookingModel.BookingHistory{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestCompleteFailsOnIneligibleLiveMember(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	stray := f.seedBooking(t, bookingModel.BookingStatusBooked)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber), "carol")
	require.NoError(t, err)

	// A BOOKED booking slips onto the manifest after creation. It cannot
	// reach IN_TRANSIT, so completion must refuse rather than close over it.
	_, err = f.svc.AddShipments(m.ID, &manifestTypes.AddShipmentsRequest{
		CnNumbers: []string{*stray.CnNumber},
	}, "carol")
	require.NoError(t, err)

	var historyBefore int64
	require.NoError(t, f.db.Model(&bookingModel.BookingHistory{}).Count(&historyBefore).Error)

	_, err = f.svc.Complete(m.ID, "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIllegalTransition))

	// The whole completion rolled back: status, history, and the member.
	var got manifestModel.Manifest
	require.NoError(t, f.db.First(&got, m.ID).Error)
	assert.Equal(t, manifestModel.ManifestStatusPending, got.Status)

	var historyAfter int64
	require.NoError(t, f.db.Model(&bookingModel.BookingHistory{}).Count(&historyAfter).Error)
	assert.Equal(t, historyBefore, historyAfter)

	var b bookingModel.Booking
	require.NoError(t, f.db.First(&b, stray.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusBooked, b.Status)
}

func TestCompleteSkipsTerminalMembers(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	b2 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber, *b2.CnNumber), "carol")
	require.NoError(t, err)

	// One member gets voided while the truck is loading.
	require.NoError(t, f.db.Model(&bookingModel.Booking{}).
		Where("id = ?", b2.ID).
		Update("status", bookingModel.BookingStatusVoided).Error)

	m, err = f.svc.Complete(m.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, manifestModel.ManifestStatusCompleted, m.Status)

	var voided bookingModel.Booking
	require.NoError(t, f.db.First(&voided, b2.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusVoided, voided.Status)
}

func TestAddShipmentsToCompletedManifest(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	b2 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber), "carol")
	require.NoError(t, err)
	_, err = f.svc.Complete(m.ID, "carol")
	require.NoError(t, err)

	_, err = f.svc.AddShipments(m.ID, &manifestTypes.AddShipmentsRequest{
		CnNumbers: []string{*b2.CnNumber},
	}, "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrConflict))
}

func TestRemoveShipmentNeverRevertsStatus(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)
	b2 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber, *b2.CnNumber), "carol")
	require.NoError(t, err)

	m, err = f.svc.RemoveShipment(m.ID, *b2.CnNumber, "carol")
	require.NoError(t, err)
	assert.Equal(t, 1, m.TotalCns)
	assert.Len(t, m.Shipments, 1)

	// The removed booking keeps its reached status and manifest reference.
	var removed bookingModel.Booking
	require.NoError(t, f.db.First(&removed, b2.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusInTransit, removed.Status)
	require.NotNil(t, removed.ManifestID)
	assert.Equal(t, m.ID, *removed.ManifestID)

	// Removing an absent CN is NotFound.
	_, err = f.svc.RemoveShipment(m.ID, *b2.CnNumber, "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
}

func TestGetAndList(t *testing.T) {
	f := newFixture(t)
	b1 := f.seedBooking(t, bookingModel.BookingStatusAtHub)

	_, err := f.svc.Get(404)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	m, err := f.svc.Create(f.createRequest(*b1.CnNumber), "carol")
	require.NoError(t, err)

	got, err := f.svc.Get(m.ID)
	require.NoError(t, err)
	require.Len(t, got.Shipments, 1)
	assert.Equal(t, b1.ID, got.Shipments[0].Booking.ID)

	pending, err := f.svc.List(string(manifestModel.ManifestStatusPending))
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	completed, err := f.svc.List(string(manifestModel.ManifestStatusCompleted))
	require.NoError(t, err)
	assert.Empty(t, completed)
}
