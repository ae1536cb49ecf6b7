package domain

import (
	"encoding/json"
	"io"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Tenant struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LandlordID string             `bson:"landlordId" json:"landlordId"`
	Name       string             `bson:"name" json:"name"`
	Phone      string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Email      string             `bson:"email,omitempty" json:"email,omitempty"`

	Accommodations  []Accommodation  `bson:"accommodations" json:"accommodations"`
	Bills           []Bill           `bson:"bills" json:"bills"`
	Complaints      []Complaint      `bson:"complaints" json:"complaints"`
	BookingRequests []BookingRequest `bson:"bookingRequests" json:"bookingRequests"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

// Accommodation is one assignment of the tenant to a landlord/property/room/
// bed, with its own financial state. At most one active accommodation may
// exist per (property, room, bed) tuple.
type Accommodation struct {
	AccommodationID   string     `bson:"accommodationId" json:"accommodationId"`
	LandlordID        string     `bson:"landlordId" json:"landlordId"`
	PropertyID        string     `bson:"propertyId" json:"propertyId"`
	RoomID            string     `bson:"roomId" json:"roomId"`
	BedID             string     `bson:"bedId,omitempty" json:"bedId,omitempty"`
	RentAmount        float64    `bson:"rentAmount" json:"rentAmount"`
	PendingDues       float64    `bson:"pendingDues" json:"pendingDues"`
	MonthlyCollection float64    `bson:"monthlyCollection" json:"monthlyCollection"`
	Active            bool       `bson:"active" json:"active"`
	StartDate         time.Time  `bson:"startDate" json:"startDate"`
	EndDate           *time.Time `bson:"endDate,omitempty" json:"endDate,omitempty"`
}

type BillStatus string

const (
	BillDue  BillStatus = "due"
	BillPaid BillStatus = "paid"
)

type Bill struct {
	BillID          string     `bson:"billId" json:"billId"`
	AccommodationID string     `bson:"accommodationId" json:"accommodationId"`
	Description     string     `bson:"description,omitempty" json:"description,omitempty"`
	Amount          float64    `bson:"amount" json:"amount"`
	Status          BillStatus `bson:"status" json:"status"`
	IssuedAt        time.Time  `bson:"issuedAt" json:"issuedAt"`
	PaidAt          *time.Time `bson:"paidAt,omitempty" json:"paidAt,omitempty"`
}

type ComplaintStatus string

const (
	ComplaintOpen     ComplaintStatus = "open"
	ComplaintResolved ComplaintStatus = "resolved"
)

type Complaint struct {
	ComplaintID string          `bson:"complaintId" json:"complaintId"`
	Subject     string          `bson:"subject" json:"subject"`
	Description string          `bson:"description,omitempty" json:"description,omitempty"`
	Status      ComplaintStatus `bson:"status" json:"status"`
	CreatedAt   time.Time       `bson:"createdAt" json:"createdAt"`
	ResolvedAt  *time.Time      `bson:"resolvedAt,omitempty" json:"resolvedAt,omitempty"`
}

type BookingRequestStatus string

const (
	BookingPending  BookingRequestStatus = "pending"
	BookingApproved BookingRequestStatus = "approved"
	BookingRejected BookingRequestStatus = "rejected"
)

type BookingRequest struct {
	RequestID  string               `bson:"requestId" json:"requestId"`
	PropertyID string               `bson:"propertyId" json:"propertyId"`
	RoomID     string               `bson:"roomId,omitempty" json:"roomId,omitempty"`
	Status     BookingRequestStatus `bson:"status" json:"status"`
	CreatedAt  time.Time            `bson:"createdAt" json:"createdAt"`
	DecidedAt  *time.Time           `bson:"decidedAt,omitempty" json:"decidedAt,omitempty"`
}

type Tenants []*Tenant

func NewTenant(landlordID, name, phone, email string) (*Tenant, error) {
	var rejected []string
	if landlordID == "" {
		rejected = append(rejected, "landlordId is required")
	}
	if name == "" {
		rejected = append(rejected, "name is required")
	}
	if len(rejected) > 0 {
		return nil, NewValidationError("invalid tenant", rejected...)
	}
	now := time.Now()
	return &Tenant{
		LandlordID:      landlordID,
		Name:            name,
		Phone:           phone,
		Email:           email,
		Accommodations:  []Accommodation{},
		Bills:           []Bill{},
		Complaints:      []Complaint{},
		BookingRequests: []BookingRequest{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}, nil
}

// AddAccommodation opens a new assignment. A second active accommodation for
// the same (property, room, bed) tuple is a conflict.
func (t *Tenant) AddAccommodation(landlordID, propertyID, roomID, bedID string, rentAmount float64, now time.Time) (*Accommodation, error) {
	if propertyID == "" || roomID == "" {
		return nil, NewValidationError("propertyId and roomId are required")
	}
	if rentAmount <= 0 {
		return nil, NewValidationError("rentAmount must be positive")
	}
	for i := range t.Accommodations {
		acc := &t.Accommodations[i]
		if acc.Active && acc.PropertyID == propertyID && acc.RoomID == roomID && acc.BedID == bedID {
			return nil, NewConflictError("tenant already has an active accommodation for this bed")
		}
	}
	t.Accommodations = append(t.Accommodations, Accommodation{
		AccommodationID: uuid.NewString(),
		LandlordID:      landlordID,
		PropertyID:      propertyID,
		RoomID:          roomID,
		BedID:           bedID,
		RentAmount:      rentAmount,
		Active:          true,
		StartDate:       now,
	})
	t.UpdatedAt = now
	return &t.Accommodations[len(t.Accommodations)-1], nil
}

func (t *Tenant) CloseAccommodation(accommodationID string, now time.Time) (*Accommodation, error) {
	acc, err := t.findAccommodation(accommodationID)
	if err != nil {
		return nil, err
	}
	if !acc.Active {
		return nil, NewConflictError("accommodation %s is already closed", accommodationID)
	}
	acc.Active = false
	acc.EndDate = &now
	t.UpdatedAt = now
	return acc, nil
}

// AddBill issues a bill against an active accommodation and raises its
// pending dues in the same mutation.
func (t *Tenant) AddBill(accommodationID, description string, amount float64, now time.Time) (*Bill, error) {
	if amount <= 0 {
		return nil, NewValidationError("bill amount must be positive")
	}
	acc, err := t.findAccommodation(accommodationID)
	if err != nil {
		return nil, err
	}
	if !acc.Active {
		return nil, NewConflictError("accommodation %s is closed, bills cannot be issued", accommodationID)
	}
	bill := Bill{
		BillID:          uuid.NewString(),
		AccommodationID: accommodationID,
		Description:     description,
		Amount:          amount,
		Status:          BillDue,
		IssuedAt:        now,
	}
	t.Bills = append(t.Bills, bill)
	acc.PendingDues += amount
	t.UpdatedAt = now
	return &t.Bills[len(t.Bills)-1], nil
}

// PayBills settles the named bills. Validation runs over the whole batch
// before any state moves, so a payment is applied all-or-nothing: dues go
// down and collection goes up together, per accommodation.
func (t *Tenant) PayBills(billIDs []string, now time.Time) (map[string]float64, error) {
	if len(billIDs) == 0 {
		return nil, NewValidationError("at least one billId is required")
	}

	bills := make([]*Bill, 0, len(billIDs))
	seen := make(map[string]bool, len(billIDs))
	for _, id := range billIDs {
		if seen[id] {
			return nil, NewValidationError("duplicate billId " + id)
		}
		seen[id] = true
		bill := t.findBill(id)
		if bill == nil {
			return nil, NewNotFoundError("bill", id)
		}
		if bill.Status == BillPaid {
			return nil, NewConflictError("bill %s is already paid", id)
		}
		bills = append(bills, bill)
	}

	paidByAccommodation := make(map[string]float64)
	for _, bill := range bills {
		acc, err := t.findAccommodation(bill.AccommodationID)
		if err != nil {
			return nil, err
		}
		bill.Status = BillPaid
		bill.PaidAt = &now
		acc.PendingDues -= bill.Amount
		acc.MonthlyCollection += bill.Amount
		paidByAccommodation[bill.AccommodationID] += bill.Amount
	}
	t.UpdatedAt = now
	return paidByAccommodation, nil
}

func (t *Tenant) AddComplaint(subject, description string, now time.Time) (*Complaint, error) {
	if subject == "" {
		return nil, NewValidationError("complaint subject is required")
	}
	t.Complaints = append(t.Complaints, Complaint{
		ComplaintID: uuid.NewString(),
		Subject:     subject,
		Description: description,
		Status:      ComplaintOpen,
		CreatedAt:   now,
	})
	t.UpdatedAt = now
	return &t.Complaints[len(t.Complaints)-1], nil
}

func (t *Tenant) ResolveComplaint(complaintID string, now time.Time) error {
	for i := range t.Complaints {
		if t.Complaints[i].ComplaintID != complaintID {
			continue
		}
		if t.Complaints[i].Status == ComplaintResolved {
			return NewConflictError("complaint %s is already resolved", complaintID)
		}
		t.Complaints[i].Status = ComplaintResolved
		t.Complaints[i].ResolvedAt = &now
		t.UpdatedAt = now
		return nil
	}
	return NewNotFoundError("complaint", complaintID)
}

func (t *Tenant) AddBookingRequest(propertyID, roomID string, now time.Time) (*BookingRequest, error) {
	if propertyID == "" {
		return nil, NewValidationError("propertyId is required")
	}
	for i := range t.BookingRequests {
		req := &t.BookingRequests[i]
		if req.Status == BookingPending && req.PropertyID == propertyID && req.RoomID == roomID {
			return nil, NewConflictError("a pending booking request for this room already exists")
		}
	}
	t.BookingRequests = append(t.BookingRequests, BookingRequest{
		RequestID:  uuid.NewString(),
		PropertyID: propertyID,
		RoomID:     roomID,
		Status:     BookingPending,
		CreatedAt:  now,
	})
	t.UpdatedAt = now
	return &t.BookingRequests[len(t.BookingRequests)-1], nil
}

func (t *Tenant) DecideBookingRequest(requestID string, approved bool, now time.Time) error {
	for i := range t.BookingRequests {
		if t.BookingRequests[i].RequestID != requestID {
			continue
		}
		if t.BookingRequests[i].Status != BookingPending {
			return NewConflictError("booking request %s is already decided", requestID)
		}
		if approved {
			t.BookingRequests[i].Status = BookingApproved
		} else {
			t.BookingRequests[i].Status = BookingRejected
		}
		t.BookingRequests[i].DecidedAt = &now
		t.UpdatedAt = now
		return nil
	}
	return NewNotFoundError("booking request", requestID)
}

func (t *Tenant) Accommodation(accommodationID string) (*Accommodation, error) {
	return t.findAccommodation(accommodationID)
}

func (t *Tenant) findAccommodation(accommodationID string) (*Accommodation, error) {
	for i := range t.Accommodations {
		if t.Accommodations[i].AccommodationID == accommodationID {
			return &t.Accommodations[i], nil
		}
	}
	return nil, NewNotFoundError("accommodation", accommodationID)
}

func (t *Tenant) findBill(billID string) *Bill {
	for i := range t.Bills {
		if t.Bills[i].BillID == billID {
			return &t.Bills[i]
		}
	}
	return nil
}

func (o *Tenant) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

func (o *Tenant) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(o)
}

func (o *Tenants) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}
