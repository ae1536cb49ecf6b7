package domain

import (
	"encoding/json"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AvailabilityStatus string

const (
	Available    AvailabilityStatus = "Available"
	NotAvailable AvailabilityStatus = "Not Available"
)

type Property struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	LandlordID string             `bson:"landlordId" json:"landlordId"`
	Name       string             `bson:"name" json:"name"`
	Address    Address            `bson:"address" json:"address"`
	Active     bool               `bson:"active" json:"active"`
	Rooms      []Room             `bson:"rooms" json:"rooms"`

	TotalRooms        int     `bson:"totalRooms" json:"totalRooms"`
	TotalBeds         int     `bson:"totalBeds" json:"totalBeds"`
	TotalCapacity     int     `bson:"totalCapacity" json:"totalCapacity"`
	OccupiedBeds      int     `bson:"occupiedBeds" json:"occupiedBeds"`
	PendingDues       float64 `bson:"pendingDues" json:"pendingDues"`
	MonthlyCollection float64 `bson:"monthlyCollection" json:"monthlyCollection"`

	Version   int64     `bson:"version" json:"-"`
	CreatedAt time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt time.Time `bson:"updatedAt" json:"updatedAt"`
}

type Address struct {
	Street  string `bson:"street,omitempty" json:"street,omitempty"`
	City    string `bson:"city,omitempty" json:"city,omitempty"`
	State   string `bson:"state,omitempty" json:"state,omitempty"`
	Pincode string `bson:"pincode,omitempty" json:"pincode,omitempty"`
}

type Room struct {
	RoomID     string             `bson:"roomId" json:"roomId"`
	Type       string             `bson:"type" json:"type"`
	Price      float64            `bson:"price" json:"price"`
	Capacity   int                `bson:"capacity" json:"capacity"`
	Status     AvailabilityStatus `bson:"status" json:"status"`
	Blocked    bool               `bson:"blocked" json:"blocked"`
	Facilities []FacilityGroup    `bson:"facilities,omitempty" json:"facilities,omitempty"`
	Beds       []Bed              `bson:"beds" json:"beds"`
	Tenants    []string           `bson:"tenants" json:"tenants"`

	// Financial rollups for bed-less rooms; rooms with beds carry these on
	// the beds themselves.
	PendingDues       float64 `bson:"pendingDues" json:"pendingDues"`
	MonthlyCollection float64 `bson:"monthlyCollection" json:"monthlyCollection"`
}

// FacilityGroup is a free-form group of facility key-value pairs
// (e.g. category "kitchen" with {"fridge": "shared", "stove": "gas"}).
type FacilityGroup struct {
	Category string            `bson:"category" json:"category"`
	Items    map[string]string `bson:"items" json:"items"`
}

type Bed struct {
	BedID             string             `bson:"bedId" json:"bedId"`
	Price             float64            `bson:"price" json:"price"`
	Status            AvailabilityStatus `bson:"status" json:"status"`
	Blocked           bool               `bson:"blocked" json:"blocked"`
	PendingDues       float64            `bson:"pendingDues" json:"pendingDues"`
	MonthlyCollection float64            `bson:"monthlyCollection" json:"monthlyCollection"`
	Tenants           []string           `bson:"tenants" json:"tenants"`
}

type Properties []*Property

func (o *Property) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

func (o *Property) FromJSON(r io.Reader) error {
	d := json.NewDecoder(r)
	return d.Decode(o)
}

func (o *Properties) ToJSON(w io.Writer) error {
	e := json.NewEncoder(w)
	return e.Encode(o)
}

type OccupancyReport struct {
	PropertyID    string          `json:"propertyId"`
	TotalRooms    int             `json:"totalRooms"`
	TotalBeds     int             `json:"totalBeds"`
	TotalCapacity int             `json:"totalCapacity"`
	OccupiedBeds  int             `json:"occupiedBeds"`
	VacantBeds    int             `json:"vacantBeds"`
	OccupancyRate float64         `json:"occupancyRate"`
	Rooms         []RoomOccupancy `json:"rooms"`
}

type RoomOccupancy struct {
	RoomID       string             `json:"roomId"`
	Type         string             `json:"type"`
	Status       AvailabilityStatus `json:"status"`
	Capacity     int                `json:"capacity"`
	TotalBeds    int                `json:"totalBeds"`
	OccupiedBeds int                `json:"occupiedBeds"`
}
