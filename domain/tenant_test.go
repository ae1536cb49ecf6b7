package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTenant(t *testing.T) *Tenant {
	t.Helper()
	tenant, err := NewTenant("landlord-1", "Asha", "9900112233", "asha@example.com")
	require.NoError(t, err)
	return tenant
}

func TestNewTenantValidation(t *testing.T) {
	_, err := NewTenant("", "", "", "")
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Rejected, "landlordId is required")
	assert.Contains(t, verr.Rejected, "name is required")
}

func TestAddAccommodationRejectsDuplicateActive(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	acc, err := tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5000, now)
	require.NoError(t, err)
	assert.True(t, acc.Active)

	_, err = tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5000, now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// closing the first one frees the tuple for a new assignment
	_, err = tenant.CloseAccommodation(acc.AccommodationID, now)
	require.NoError(t, err)

	_, err = tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5500, now)
	require.NoError(t, err)
}

func TestCloseAccommodationTwiceRejected(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	acc, err := tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5000, now)
	require.NoError(t, err)

	closed, err := tenant.CloseAccommodation(acc.AccommodationID, now)
	require.NoError(t, err)
	assert.False(t, closed.Active)
	require.NotNil(t, closed.EndDate)

	_, err = tenant.CloseAccommodation(acc.AccommodationID, now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestBillRaisesPendingDues(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	acc, err := tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5000, now)
	require.NoError(t, err)

	bill, err := tenant.AddBill(acc.AccommodationID, "rent for May", 5000, now)
	require.NoError(t, err)
	assert.Equal(t, BillDue, bill.Status)
	assert.Equal(t, 5000.0, acc.PendingDues)

	_, err = tenant.AddBill(acc.AccommodationID, "", -100, now)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	_, err = tenant.CloseAccommodation(acc.AccommodationID, now)
	require.NoError(t, err)

	_, err = tenant.AddBill(acc.AccommodationID, "rent for June", 5000, now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestPayBillsRestoresFinancialBaseline(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	acc, err := tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5000, now)
	require.NoError(t, err)

	duesBefore := acc.PendingDues
	collectionBefore := acc.MonthlyCollection

	bill, err := tenant.AddBill(acc.AccommodationID, "rent", 5000, now)
	require.NoError(t, err)

	paid, err := tenant.PayBills([]string{bill.BillID}, now)
	require.NoError(t, err)
	assert.Equal(t, 5000.0, paid[acc.AccommodationID])

	assert.Equal(t, duesBefore, acc.PendingDues)
	assert.Equal(t, collectionBefore+5000, acc.MonthlyCollection)
	assert.Equal(t, BillPaid, tenant.Bills[0].Status)
	require.NotNil(t, tenant.Bills[0].PaidAt)
}

func TestPayBillsIsAllOrNothing(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	acc, err := tenant.AddAccommodation("landlord-1", "prop-1", "room-1", "bed-1", 5000, now)
	require.NoError(t, err)

	first, err := tenant.AddBill(acc.AccommodationID, "rent", 5000, now)
	require.NoError(t, err)
	second, err := tenant.AddBill(acc.AccommodationID, "electricity", 800, now)
	require.NoError(t, err)

	tests := []struct {
		name       string
		billIDs    []string
		conflict   bool
		notFound   bool
		validation bool
	}{
		{"empty batch", nil, false, false, true},
		{"duplicate id", []string{first.BillID, first.BillID}, false, false, true},
		{"unknown id", []string{first.BillID, "no-such-bill"}, false, true, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tenant.PayBills(tt.billIDs, now)
			require.Error(t, err)
			if tt.conflict {
				assert.True(t, IsConflict(err))
			}
			if tt.notFound {
				assert.True(t, IsNotFound(err))
			}
			if tt.validation {
				assert.True(t, IsValidation(err))
			}

			// a rejected batch must leave every bill and the dues untouched
			assert.Equal(t, BillDue, tenant.Bills[0].Status)
			assert.Equal(t, BillDue, tenant.Bills[1].Status)
			assert.Equal(t, 5800.0, acc.PendingDues)
			assert.Equal(t, 0.0, acc.MonthlyCollection)
		})
	}

	paid, err := tenant.PayBills([]string{first.BillID, second.BillID}, now)
	require.NoError(t, err)
	assert.Equal(t, 5800.0, paid[acc.AccommodationID])
	assert.Equal(t, 0.0, acc.PendingDues)
	assert.Equal(t, 5800.0, acc.MonthlyCollection)

	_, err = tenant.PayBills([]string{first.BillID}, now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))
}

func TestComplaintLifecycle(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	_, err := tenant.AddComplaint("", "no subject", now)
	require.Error(t, err)
	assert.True(t, IsValidation(err))

	complaint, err := tenant.AddComplaint("water leakage", "in room 2", now)
	require.NoError(t, err)
	assert.Equal(t, ComplaintOpen, complaint.Status)

	require.NoError(t, tenant.ResolveComplaint(complaint.ComplaintID, now))
	assert.Equal(t, ComplaintResolved, tenant.Complaints[0].Status)

	err = tenant.ResolveComplaint(complaint.ComplaintID, now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	err = tenant.ResolveComplaint("no-such-complaint", now)
	require.Error(t, err)
	assert.True(t, IsNotFound(err))
}

func TestBookingRequestLifecycle(t *testing.T) {
	tenant := newTestTenant(t)
	now := time.Now()

	request, err := tenant.AddBookingRequest("prop-1", "room-1", now)
	require.NoError(t, err)
	assert.Equal(t, BookingPending, request.Status)

	_, err = tenant.AddBookingRequest("prop-1", "room-1", now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	require.NoError(t, tenant.DecideBookingRequest(request.RequestID, false, now))
	assert.Equal(t, BookingRejected, tenant.BookingRequests[0].Status)

	err = tenant.DecideBookingRequest(request.RequestID, true, now)
	require.Error(t, err)
	assert.True(t, IsConflict(err))

	// a rejected request no longer blocks a fresh one for the same room
	second, err := tenant.AddBookingRequest("prop-1", "room-1", now)
	require.NoError(t, err)
	require.NoError(t, tenant.DecideBookingRequest(second.RequestID, true, now))
	assert.Equal(t, BookingApproved, tenant.BookingRequests[1].Status)
}
