package arrival_scan

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"courier-booking/apperrors"
	arrivalscanModel "courier-booking/models/arrivalscan"
	batchModel "courier-booking/models/batch"
	bookingModel "courier-booking/models/booking"
	cityModel "courier-booking/models/city"
	userModel "courier-booking/models/user"
	"courier-booking/services/sequence"
	arrivalScanTypes "courier-booking/types/arrival_scan"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fixture struct {
	db      *gorm.DB
	svc     *ArrivalScanService
	station cityModel.City
	destID  uint
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
		&arrivalscanModel.ArrivalScan{},
		&arrivalscanModel.ArrivalScanShipment{},
	))

	operator := userModel.User{
		Uuid: "u-alice", Username: "alice", LegalName: "Alice Rahman",
		Phone: "01711111111", Role: "staff",
	}
	require.NoError(t, db.Create(&operator).Error)

	station := cityModel.City{Name: "Dhaka", StationCode: "DHK", Active: true}
	dest := cityModel.City{Name: "Chattogram", StationCode: "CTG", Active: true}
	require.NoError(t, db.Create(&station).Error)
	require.NoError(t, db.Create(&dest).Error)

	batch := batchModel.Batch{BatchCode: "alice-1", Status: batchModel.BatchStatusActive, StaffID: operator.ID}
	require.NoError(t, db.Create(&batch).Error)

	return &fixture{
		db:      db,
		svc:     NewArrivalScanService(db),
		station: station,
		destID:  dest.ID,
		userID:  operator.ID,
		batchID: batch.ID,
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
		OriginCityID:      f.station.ID,
		DestinationCityID: f.destID,
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

func TestCreateArrivalScan(t *testing.T) {
	f := newFixture(t)
	incoming := f.seedBooking(t, bookingModel.BookingStatusInTransit)
	walkIn := f.seedBooking(t, bookingModel.BookingStatusBooked)

	scan, err := f.svc.Create(&arrivalScanTypes.ArrivalScanCreateRequest{
		StationCityID: f.station.ID,
		CnNumbers:     []string{*incoming.CnNumber, *walkIn.CnNumber},
	}, "carol")
	require.NoError(t, err)

	day := sequence.DatePrefix(time.Now())
	assert.Equal(t, "AS-"+day+"-1", scan.ScanCode)
	assert.Equal(t, 2, scan.TotalCns)

	// Both an in-transit parcel and a counter drop-off arrive at the hub.
	for _, id := range []uint{incoming.ID, walkIn.ID} {
		var b bookingModel.Booking
		require.NoError(t, f.db.First(&b, id).Error)
		assert.Equal(t, bookingModel.BookingStatusAtHub, b.Status)
	}
}

func TestCreateArrivalScanUnknownCnAborts(t *testing.T) {
	f := newFixture(t)
	incoming := f.seedBooking(t, bookingModel.BookingStatusInTransit)

	_, err := f.svc.Create(&arrivalScanTypes.ArrivalScanCreateRequest{
		StationCityID: f.station.ID,
		CnNumbers:     []string{*incoming.CnNumber, "2026083199"},
	}, "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	var scans int64
	require.NoError(t, f.db.Model(&arrivalscanModel.ArrivalScan{}).Count(&scans).Error)
	assert.Zero(t, scans)

	var b bookingModel.Booking
	require.NoError(t, f.db.First(&b, incoming.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusInTransit, b.Status)
}

func TestCompleteHealsAndIsIdempotent(t *testing.T) {
	f := newFixture(t)
	first := f.seedBooking(t, bookingModel.BookingStatusInTransit)
	late := f.seedBooking(t, bookingModel.BookingStatusInTransit)

	scan, err := f.svc.Create(&arrivalScanTypes.ArrivalScanCreateRequest{
		StationCityID: f.station.ID,
		CnNumbers:     []string{*first.CnNumber},
	}, "carol")
	require.NoError(t, err)

	_, err = f.svc.AddShipments(scan.ID, &arrivalScanTypes.AddShipmentsRequest{
		CnNumbers: []string{*late.CnNumber},
	}, "carol")
	require.NoError(t, err)

	scan, err = f.svc.Complete(scan.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, arrivalscanModel.ArrivalScanStatusCompleted, scan.Status)

	var healed bookingModel.Booking
	require.NoError(t, f.db.First(&healed, late.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusAtHub, healed.Status)

	var before int64
	require.NoError(t, f.db.Model(&bookingModel.BookingHistory{}).Count(&before).Error)
	_, err = f.svc.Complete(scan.ID, "carol")
	require.NoError(t, err)
	var after int64
	require.NoError(t, f.db.Model(&bookingModel.BookingHistory{}).Count(&after).Error)
	assert.Equal(t, before, after)
}

func TestCompleteFailsOnIneligibleLiveMember(t *testing.T) {
	f := newFixture(t)
	incoming := f.seedBooking(t, bookingModel.BookingStatusInTransit)
	pending := f.seedBooking(t, bookingModel.BookingStatusPending)

	scan, err := f.svc.Create(&arrivalScanTypes.ArrivalScanCreateRequest{
		StationCityID: f.station.ID,
		CnNumbers:     []string{*incoming.CnNumber},
	}, "carol")
	require.NoError(t, err)

	// A never-approved booking sneaks into the session. It cannot reach
	// AT_HUB, so Complete must refuse instead of swallowing it.
	_, err = f.svc.AddShipments(scan.ID, &arrivalScanTypes.AddShipmentsRequest{
		CnNumbers: []string{*pending.CnNumber},
	}, "carol")
	require.NoError(t, err)

	_, err = f.svc.Complete(scan.ID, "carol")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrIllegalTransition))

	var got arrivalscanModel.ArrivalScan
	require.NoError(t, f.db.First(&got, scan.ID).Error)
	assert.Equal(t, arrivalscanModel.ArrivalScanStatusPending, got.Status)
}

func TestCompleteSkipsTerminalMembers(t *testing.T) {
	f := newFixture(t)
	incoming := f.seedBooking(t, bookingModel.BookingStatusInTransit)
	lost := f.seedBooking(t, bookingModel.BookingStatusInTransit)

	scan, err := f.svc.Create(&arrivalScanTypes.ArrivalScanCreateRequest{
		StationCityID: f.station.ID,
		CnNumbers:     []string{*incoming.CnNumber, *lost.CnNumber},
	}, "carol")
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&bookingModel.Booking{}).
		Where("id = ?", lost.ID).
		Update("status", bookingModel.BookingStatusReturned).Error)

	scan, err = f.svc.Complete(scan.ID, "carol")
	require.NoError(t, err)
	assert.Equal(t, arrivalscanModel.ArrivalScanStatusCompleted, scan.Status)

	var returned bookingModel.Booking
	require.NoError(t, f.db.First(&returned, lost.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusReturned, returned.Status)
}

func TestRemoveShipmentKeepsBookingStatus(t *testing.T) {
	f := newFixture(t)
	b := f.seedBooking(t, bookingModel.BookingStatusInTransit)

	scan, err := f.svc.Create(&arrivalScanTypes.ArrivalScanCreateRequest{
		StationCityID: f.station.ID,
		CnNumbers:     []string{*b.CnNumber},
	}, "carol")
	require.NoError(t, err)

	scan, err = f.svc.RemoveShipment(scan.ID, *b.CnNumber, "carol")
	require.NoError(t, err)
	assert.Zero(t, scan.TotalCns)

	var reloaded bookingModel.Booking
	require.NoError(t, f.db.First(&reloaded, b.ID).Error)
	assert.Equal(t, bookingModel.BookingStatusAtHub, reloaded.Status,
		"removal never reverts the status the booking reached")
}
