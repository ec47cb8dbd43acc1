package appointment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BeautifulStudio01/salon-scheduler/internal/httperr"
	"github.com/BeautifulStudio01/salon-scheduler/internal/models"
)

func TestStatusGuards(t *testing.T) {
	cases := []struct {
		name    string
		guard   func(Status) error
		allowed []Status
	}{
		{"confirm", CanConfirm, []Status{StatusPending}},
		{"start", CanStart, []Status{StatusConfirmed}},
		{"cancel", CanCancel, []Status{StatusPending, StatusConfirmed}},
		{"complete", CanComplete, []Status{StatusConfirmed, StatusInProgress}},
		{"no_show", CanMarkNoShow, []Status{StatusConfirmed}},
		{"send_offer", CanSendOffer, []Status{StatusConfirmed}},
	}

	all := []Status{
		StatusPending, StatusConfirmed, StatusInProgress, StatusCompleted,
		StatusCancelled, StatusNoShow, StatusOfferSent, StatusExpired,
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			allowed := map[Status]bool{}
			for _, s := range tc.allowed {
				allowed[s] = true
			}

			for _, s := range all {
				err := tc.guard(s)
				if allowed[s] {
					assert.NoError(t, err, "expected %s to allow %s", tc.name, s)
				} else {
					assert.True(t, httperr.IsBusiness(err, "invalid_state"),
						"expected %s to reject %s", tc.name, s)
				}
			}
		})
	}
}

func TestActiveStatuses(t *testing.T) {
	active := ActiveStatuses()

	assert.Contains(t, active, string(StatusPending))
	assert.Contains(t, active, string(StatusConfirmed))
	assert.Contains(t, active, string(StatusInProgress))
	assert.Contains(t, active, string(StatusOfferSent))

	assert.NotContains(t, active, string(StatusCancelled))
	assert.NotContains(t, active, string(StatusCompleted))
	assert.NotContains(t, active, string(StatusNoShow))
	assert.NotContains(t, active, string(StatusExpired))
}

func TestCancelSetsTimestampAndSnapshot(t *testing.T) {
	ap := &models.Appointment{ID: 7, Status: string(StatusConfirmed)}
	now := time.Date(2026, 3, 10, 15, 0, 0, 0, time.UTC)

	change, err := Cancel(ap, now)
	require.NoError(t, err)

	assert.Equal(t, string(StatusCancelled), ap.Status)
	require.NotNil(t, ap.CancelledAt)
	assert.Equal(t, now, *ap.CancelledAt)

	assert.Equal(t, uint(7), change.AppointmentID)
	assert.Equal(t, StatusConfirmed, change.From)
	assert.Equal(t, StatusCancelled, change.To)
}

func TestSendOfferOnlyFromConfirmed(t *testing.T) {
	ap := &models.Appointment{ID: 3, Status: string(StatusConfirmed)}

	change, err := SendOffer(ap)
	require.NoError(t, err)
	assert.Equal(t, string(StatusOfferSent), ap.Status)
	assert.Equal(t, StatusOfferSent, change.To)

	_, err = SendOffer(ap)
	assert.True(t, httperr.IsBusiness(err, "invalid_state"))
}
