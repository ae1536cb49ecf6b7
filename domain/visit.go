package domain

import (
	"encoding/json"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type VisitStatus string

const (
	VisitPending   VisitStatus = "pending"
	VisitConfirmed VisitStatus = "confirmed"
	VisitCancelled VisitStatus = "cancelled"
	VisitCompleted VisitStatus = "completed"
)

// Visit links a requesting user with a property and its landlord. Status
// moves pending -> confirmed -> completed, with cancellation possible from
// pending and confirmed. Cancelled and completed are terminal.
type Visit struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	PropertyID string             `bson:"propertyId" json:"propertyId"`
	LandlordID string             `bson:"landlordId" json:"landlordId"`
	UserID     string             `bson:"userId" json:"userId"`
	VisitDate  time.Time          `bson:"visitDate" json:"visitDate"`
	Status     VisitStatus        `bson:"status" json:"status"`

	ConfirmedAt *time.Time `bson:"confirmedAt,omitempty" json:"confirmedAt,omitempty"`
	CancelledAt *time.Time `bson:"cancelledAt,omitempty" json:"cancelledAt,omitempty"`
	CompletedAt *time.Time `bson:"completedAt,omitempty" json:"completedAt,omitempty"`

	CancellationReason string `bson:"cancellationReason,omitempty" json:"cancellationReason,omitempty"`
	CompletionNotes    string `bson:"completionNotes,omitempty" json:"completionNotes,omitempty"`
	Feedback           string `bson:"feedback,omitempty" json:"feedback,omitempty"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
}

type Visits []*Visit

func NewVisit(propertyID, landlordID, userID string, visitDate time.Time, now time.Time) (*Visit, error) {
	var rejected []string
	if propertyID == "" {
		rejected = append(rejected, "propertyId is required")
	}
	if landlordID == "" {
		rejected = append(rejected, "landlordId is required")
	}
	if userID == "" {
		rejected = append(rejected, "userId is required")
	}
	if visitDate.Before(now) {
		rejected = append(rejected, "visitDate cannot be in the past")
	}
	if len(rejected) > 0 {
		return nil, NewValidationError("invalid visit request", rejected...)
	}
	return &Visit{
		PropertyID: propertyID,
		LandlordID: landlordID,
		UserID:     userID,
		VisitDate:  visitDate,
		Status:     VisitPending,
		CreatedAt:  now,
	}, nil
}

func (v *Visit) Confirm(now time.Time) error {
	if v.Status != VisitPending {
		return NewConflictError("visit is %s and cannot be confirmed", v.Status)
	}
	if v.VisitDate.Before(now) {
		return NewValidationError("visit date has passed, confirm is not possible")
	}
	v.Status = VisitConfirmed
	v.ConfirmedAt = &now
	return nil
}

func (v *Visit) Cancel(now time.Time, reason string) error {
	if v.Status == VisitCancelled || v.Status == VisitCompleted {
		return NewConflictError("visit is %s and cannot be cancelled", v.Status)
	}
	v.Status = VisitCancelled
	v.CancelledAt = &now
	v.CancellationReason = reason
	return nil
}

func (v *Visit) Complete(now time.Time, notes, feedback string) error {
	if v.Status != VisitConfirmed {
		return NewConflictError("visit is %s and cannot be completed", v.Status)
	}
	v.Status = VisitCompleted
	v.CompletedAt = &now
	v.CompletionNotes = notes
	v.Feedback = feedback
	return nil
}

func (o *Visit) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

func (o *Visit) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(o)
}

func (o *Visits) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}
