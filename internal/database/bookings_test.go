package database

import (
	"context"
	"errors"
	"testing"

	"tourguide/internal/domain"
	"tourguide/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bookingFixture struct {
	db      *DB
	tourist *models.TouristProfile
	guide   *models.GuideProfile
	tour    *models.Tour
	date    models.Date
}

func newBookingFixture(t *testing.T) *bookingFixture {
	db := setupTestDB(t)
	w := seedWilaya(t, db, "16", "Algiers")
	guide := seedGuide(t, db, "guide", true, w.ID)
	date, err := models.ParseDate("2030-04-01")
	require.NoError(t, err)
	return &bookingFixture{
		db:      db,
		tourist: seedTourist(t, db, "tourist"),
		guide:   guide,
		tour:    seedTour(t, db, guide.ID, w.ID, 5000),
		date:    date,
	}
}

func TestCreateBookingWithLock(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotMorning)
	assert.Equal(t, int64(1), b.Version)
	assert.Equal(t, models.StatusPending, b.Status)
	assert.Equal(t, f.guide.ID, b.GuideID)

	dup := &models.Booking{TouristID: f.tourist.ID, TourID: f.tour.ID, BookingDate: f.date, TimeSlot: models.SlotMorning, GroupSize: 1, TotalPrice: 5000}
	assert.ErrorIs(t, f.db.CreateBookingWithLock(ctx, dup), domain.ErrSlotTaken)

	other := &models.Booking{TouristID: f.tourist.ID, TourID: f.tour.ID, BookingDate: f.date, TimeSlot: models.SlotAfternoon, GroupSize: 1, TotalPrice: 5000}
	assert.NoError(t, f.db.CreateBookingWithLock(ctx, other))

	got, err := f.db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, f.tour.Title, got.TourTitle)
	assert.Equal(t, "tourist Test", got.TouristName)
	assert.Equal(t, "guide Test", got.GuideName)
	assert.Equal(t, "2030-04-01", got.BookingDate.String())
}

func TestGuideSlotSharedAcrossTours(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	second := seedTour(t, f.db, f.guide.ID, f.tour.WilayaID, 7000)

	seedBooking(t, f.db, f.tourist.ID, second.ID, f.date, models.SlotFullDay)

	for _, tc := range []struct {
		name   string
		tourID int64
		slot   string
	}{
		{"morning on other tour", f.tour.ID, models.SlotMorning},
		{"evening on same tour", second.ID, models.SlotEvening},
		{"full day on other tour", f.tour.ID, models.SlotFullDay},
	} {
		t.Run(tc.name, func(t *testing.T) {
			b := &models.Booking{TouristID: f.tourist.ID, TourID: tc.tourID, BookingDate: f.date, TimeSlot: tc.slot, GroupSize: 1, TotalPrice: 5000}
			assert.ErrorIs(t, f.db.CreateBookingWithLock(ctx, b), domain.ErrSlotTaken)
		})
	}

	nextDay := &models.Booking{TouristID: f.tourist.ID, TourID: f.tour.ID, BookingDate: f.date.AddDays(1), TimeSlot: models.SlotMorning, GroupSize: 1, TotalPrice: 5000}
	assert.NoError(t, f.db.CreateBookingWithLock(ctx, nextDay))
}

func TestFullDayRejectedWhenHalfDayBooked(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()
	second := seedTour(t, f.db, f.guide.ID, f.tour.WilayaID, 7000)

	seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotAfternoon)

	full := &models.Booking{TouristID: f.tourist.ID, TourID: second.ID, BookingDate: f.date, TimeSlot: models.SlotFullDay, GroupSize: 1, TotalPrice: 7000}
	assert.ErrorIs(t, f.db.CreateBookingWithLock(ctx, full), domain.ErrSlotTaken)

	morning := &models.Booking{TouristID: f.tourist.ID, TourID: second.ID, BookingDate: f.date, TimeSlot: models.SlotMorning, GroupSize: 1, TotalPrice: 7000}
	assert.NoError(t, f.db.CreateBookingWithLock(ctx, morning))
}

func TestCancelledBookingFreesSlot(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotEvening)
	require.NoError(t, f.db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusCancelled, "changed plans"))

	again := &models.Booking{TouristID: f.tourist.ID, TourID: f.tour.ID, BookingDate: f.date, TimeSlot: models.SlotEvening, GroupSize: 1, TotalPrice: 5000}
	assert.NoError(t, f.db.CreateBookingWithLock(ctx, again))
}

func TestBookingBlockedByAvailability(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	require.NoError(t, f.db.SetAvailability(ctx, &models.GuideAvailability{
		GuideID: f.guide.ID, Date: f.date, TimeSlot: models.SlotMorning, IsAvailable: false,
	}))

	b := &models.Booking{TouristID: f.tourist.ID, TourID: f.tour.ID, BookingDate: f.date, TimeSlot: models.SlotMorning, GroupSize: 1, TotalPrice: 5000}
	assert.ErrorIs(t, f.db.CreateBookingWithLock(ctx, b), domain.ErrSlotUnavailable)
}

func TestOptimisticLocking(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	booking := seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotMorning)

	err := f.db.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.StatusConfirmed, "")
	require.NoError(t, err)

	err = f.db.UpdateBookingStatusWithVersion(ctx, booking.ID, booking.Version, models.StatusCancelled, "")
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)

	updated, err := f.db.GetBooking(ctx, booking.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), updated.Version)
	assert.Equal(t, models.StatusConfirmed, updated.Status)
}

func TestCompleteBookingIncrementsGuideCounter(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotMorning)

	// Only confirmed bookings can complete.
	assert.ErrorIs(t, f.db.CompleteBooking(ctx, b.ID, b.Version), domain.ErrConcurrentModification)

	require.NoError(t, f.db.UpdateBookingStatusWithVersion(ctx, b.ID, b.Version, models.StatusConfirmed, ""))
	require.NoError(t, f.db.CompleteBooking(ctx, b.ID, b.Version+1))

	got, err := f.db.GetBooking(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, got.Status)

	guide, err := f.db.GetGuideProfile(ctx, f.guide.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, guide.TotalToursCompleted)
}

func TestListBookings(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	other := seedTourist(t, f.db, "other")
	seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotMorning)
	seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date.AddDays(1), models.SlotMorning)
	seedBooking(t, f.db, other.ID, f.tour.ID, f.date.AddDays(2), models.SlotMorning)

	mine, err := f.db.ListBookings(ctx, models.BookingFilter{TouristID: f.tourist.ID})
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.True(t, mine[0].BookingDate.After(mine[1].BookingDate.Time))

	guide, err := f.db.ListBookings(ctx, models.BookingFilter{GuideID: f.guide.ID, Ascending: true})
	require.NoError(t, err)
	require.Len(t, guide, 3)
	assert.Equal(t, f.date.String(), guide[0].BookingDate.String())

	from := f.date.AddDays(1)
	ranged, err := f.db.ListBookings(ctx, models.BookingFilter{GuideID: f.guide.ID, From: &from})
	require.NoError(t, err)
	assert.Len(t, ranged, 2)

	recent, err := f.db.RecentGuideBookings(ctx, f.guide.ID, 2)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	booked, err := f.db.BookedSlots(ctx, f.guide.ID, f.date, f.date.AddDays(5))
	require.NoError(t, err)
	assert.Equal(t, []string{models.SlotMorning}, booked[f.date.String()])
}

func TestGuideCountersAndStats(t *testing.T) {
	f := newBookingFixture(t)
	ctx := context.Background()

	b := seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotMorning)
	require.NoError(t, f.db.UpdateBookingStatusWithVersion(ctx, b.ID, 1, models.StatusConfirmed, ""))
	require.NoError(t, f.db.CompleteBooking(ctx, b.ID, 2))
	seedBooking(t, f.db, f.tourist.ID, f.tour.ID, f.date, models.SlotEvening)

	d, err := f.db.GuideCounters(ctx, f.guide.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, d.TotalTours)
	assert.Equal(t, 1, d.ActiveTours)
	assert.Equal(t, 2, d.TotalBookings)
	assert.Equal(t, 1, d.CompletedBookings)

	s, err := f.db.PlatformStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, s.TotalUsers)
	assert.Equal(t, 1, s.TotalGuides)
	assert.Equal(t, 1, s.TotalTours)
	assert.Equal(t, 2, s.TotalBookings)
	assert.Equal(t, 1, s.CompletedBookings)
}

type stubResult struct {
	rows int64
	err  error
}

func (r stubResult) LastInsertId() (int64, error) { return 0, nil }
func (r stubResult) RowsAffected() (int64, error) { return r.rows, r.err }

func TestVersionApplied(t *testing.T) {
	assert.NoError(t, versionApplied(stubResult{rows: 1}))
	assert.ErrorIs(t, versionApplied(stubResult{}), domain.ErrConcurrentModification)

	driverErr := errors.New("driver does not report affected rows")
	err := versionApplied(stubResult{err: driverErr})
	assert.ErrorIs(t, err, driverErr)
	assert.NotErrorIs(t, err, domain.ErrConcurrentModification)
}
