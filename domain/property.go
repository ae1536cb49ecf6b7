package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RoomSpec struct {
	Type       string          `json:"type"`
	Price      float64         `json:"price"`
	Capacity   int             `json:"capacity"`
	Facilities []FacilityGroup `json:"facilities"`
	Beds       []BedSpec       `json:"beds"`
}

type BedSpec struct {
	Price float64 `json:"price"`
}

// RoomPatch carries the permitted fields of a room update. Nil means the
// field is untouched. A non-nil Beds replaces the bed list wholesale.
type RoomPatch struct {
	Type       *string          `json:"type"`
	Price      *float64         `json:"price"`
	Capacity   *int             `json:"capacity"`
	Facilities *[]FacilityGroup `json:"facilities"`
	Beds       *[]BedSpec       `json:"beds"`
}

type BedPatch struct {
	Price *float64 `json:"price"`
}

func NewProperty(landlordID, name string, address Address, rooms []RoomSpec) (*Property, error) {
	if landlordID == "" {
		return nil, NewValidationError("landlordId is required")
	}
	if name == "" {
		return nil, NewValidationError("property name is required")
	}

	var rejected []string
	for i, spec := range rooms {
		rejected = append(rejected, validateRoomSpec(fmt.Sprintf("rooms[%d]", i), spec)...)
	}
	if len(rejected) > 0 {
		return nil, NewValidationError("invalid room entries", rejected...)
	}

	now := time.Now()
	property := &Property{
		LandlordID: landlordID,
		Name:       name,
		Address:    address,
		Active:     true,
		Rooms:      []Room{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for _, spec := range rooms {
		property.Rooms = append(property.Rooms, buildRoom(spec))
	}
	property.RecomputeRollups()
	return property, nil
}

// PropertyPatch carries the permitted top-level fields of a property update.
// A non-nil Rooms replaces the room list wholesale.
type PropertyPatch struct {
	Name    *string     `json:"name"`
	Address *Address    `json:"address"`
	Active  *bool       `json:"active"`
	Rooms   *[]RoomSpec `json:"rooms"`
}

func (p *Property) ApplyPatch(patch PropertyPatch) error {
	if patch.Rooms != nil {
		if p.HasActiveTenants() {
			return NewConflictError("property has active tenants, room list cannot be replaced")
		}
		var rejected []string
		for i, spec := range *patch.Rooms {
			rejected = append(rejected, validateRoomSpec(fmt.Sprintf("rooms[%d]", i), spec)...)
		}
		if len(rejected) > 0 {
			return NewValidationError("invalid room entries", rejected...)
		}
	}

	if patch.Name != nil {
		if *patch.Name == "" {
			return NewValidationError("property name cannot be empty")
		}
		p.Name = *patch.Name
	}
	if patch.Address != nil {
		p.Address = *patch.Address
	}
	if patch.Active != nil {
		p.Active = *patch.Active
	}
	if patch.Rooms != nil {
		rooms := make([]Room, 0, len(*patch.Rooms))
		for _, spec := range *patch.Rooms {
			rooms = append(rooms, buildRoom(spec))
		}
		p.Rooms = rooms
	}

	p.RecomputeRollups()
	return nil
}

// AddRoom validates the spec and appends a new room. Invalid entries are
// rejected outright, never silently dropped.
func (p *Property) AddRoom(spec RoomSpec) (*Room, error) {
	if rejected := validateRoomSpec("room", spec); len(rejected) > 0 {
		return nil, NewValidationError("invalid room entry", rejected...)
	}
	room := buildRoom(spec)
	p.Rooms = append(p.Rooms, room)
	p.RecomputeRollups()
	return &p.Rooms[len(p.Rooms)-1], nil
}

func (p *Property) UpdateRoom(roomID string, patch RoomPatch) error {
	room, err := p.findRoom(roomID)
	if err != nil {
		return err
	}

	if patch.Beds != nil {
		if room.occupied() {
			return NewConflictError("room %s has active tenants, bed list cannot be replaced", roomID)
		}
		var rejected []string
		for i, spec := range *patch.Beds {
			if spec.Price <= 0 {
				rejected = append(rejected, fmt.Sprintf("beds[%d]: price is required", i))
			}
		}
		if len(rejected) > 0 {
			return NewValidationError("invalid bed entries", rejected...)
		}
	}

	if patch.Type != nil {
		if *patch.Type == "" {
			return NewValidationError("room type cannot be empty")
		}
		room.Type = *patch.Type
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return NewValidationError("room price must be positive")
		}
		room.Price = *patch.Price
	}
	if patch.Facilities != nil {
		room.Facilities = *patch.Facilities
	}
	if patch.Beds != nil {
		beds := make([]Bed, 0, len(*patch.Beds))
		for _, spec := range *patch.Beds {
			beds = append(beds, buildBed(spec))
		}
		room.Beds = beds
	}
	if patch.Capacity != nil {
		if *patch.Capacity < len(room.Beds) {
			return NewValidationError("room capacity cannot be below the number of beds")
		}
		room.Capacity = *patch.Capacity
	}

	p.RecomputeRollups()
	return nil
}

func (p *Property) RemoveRoom(roomID string) error {
	for i := range p.Rooms {
		if p.Rooms[i].RoomID != roomID {
			continue
		}
		if p.Rooms[i].occupied() {
			return NewConflictError("room %s has active tenants and cannot be removed", roomID)
		}
		p.Rooms = append(p.Rooms[:i], p.Rooms[i+1:]...)
		p.RecomputeRollups()
		return nil
	}
	return NewNotFoundError("room", roomID)
}

func (p *Property) AddBed(roomID string, spec BedSpec) (*Bed, error) {
	room, err := p.findRoom(roomID)
	if err != nil {
		return nil, err
	}
	if spec.Price <= 0 {
		return nil, NewValidationError("bed price is required")
	}
	if len(room.Beds)+1 > room.Capacity {
		return nil, NewConflictError("room %s is at capacity %d, cannot add another bed", roomID, room.Capacity)
	}
	room.Beds = append(room.Beds, buildBed(spec))
	p.RecomputeRollups()
	return &room.Beds[len(room.Beds)-1], nil
}

func (p *Property) UpdateBed(roomID, bedID string, patch BedPatch) error {
	_, bed, err := p.findBed(roomID, bedID)
	if err != nil {
		return err
	}
	if patch.Price != nil {
		if *patch.Price <= 0 {
			return NewValidationError("bed price must be positive")
		}
		bed.Price = *patch.Price
	}
	p.RecomputeRollups()
	return nil
}

func (p *Property) RemoveBed(roomID, bedID string) error {
	room, err := p.findRoom(roomID)
	if err != nil {
		return err
	}
	for i := range room.Beds {
		if room.Beds[i].BedID != bedID {
			continue
		}
		if len(room.Beds[i].Tenants) > 0 {
			return NewConflictError("bed %s has an active tenant and cannot be removed", bedID)
		}
		room.Beds = append(room.Beds[:i], room.Beds[i+1:]...)
		p.RecomputeRollups()
		return nil
	}
	return NewNotFoundError("bed", bedID)
}

// AssignTenant places a tenant on a bed, or on the room itself when bedID is
// empty (bed-less rooms track occupancy against room capacity).
func (p *Property) AssignTenant(roomID, bedID, tenantID string) error {
	room, err := p.findRoom(roomID)
	if err != nil {
		return err
	}

	if bedID == "" {
		if len(room.Beds) > 0 {
			return NewValidationError("bedId is required for rooms with beds")
		}
		if room.Blocked {
			return NewConflictError("room %s is not available", roomID)
		}
		if len(room.Tenants) >= room.Capacity {
			return NewConflictError("room %s is fully occupied", roomID)
		}
		room.Tenants = append(room.Tenants, tenantID)
		p.RecomputeRollups()
		return nil
	}

	_, bed, err := p.findBed(roomID, bedID)
	if err != nil {
		return err
	}
	if bed.Blocked {
		return NewConflictError("bed %s is not available", bedID)
	}
	if len(bed.Tenants) > 0 {
		return NewConflictError("bed %s is already occupied", bedID)
	}
	bed.Tenants = append(bed.Tenants, tenantID)
	p.RecomputeRollups()
	return nil
}

func (p *Property) RemoveTenant(roomID, bedID, tenantID string) error {
	room, err := p.findRoom(roomID)
	if err != nil {
		return err
	}

	if bedID == "" {
		if !removeRef(&room.Tenants, tenantID) {
			return NewNotFoundError("tenant reference", tenantID)
		}
		p.RecomputeRollups()
		return nil
	}

	_, bed, err := p.findBed(roomID, bedID)
	if err != nil {
		return err
	}
	if !removeRef(&bed.Tenants, tenantID) {
		return NewNotFoundError("tenant reference", tenantID)
	}
	p.RecomputeRollups()
	return nil
}

// OverrideRoomStatus is the administrative status write. Blocking a room is
// always allowed; unblocking re-validates against actual occupancy.
func (p *Property) OverrideRoomStatus(roomID string, status AvailabilityStatus) error {
	room, err := p.findRoom(roomID)
	if err != nil {
		return err
	}
	switch status {
	case Available:
		if room.fullyOccupied() {
			return NewConflictError("room %s is fully occupied and cannot be marked available", roomID)
		}
		room.Blocked = false
	case NotAvailable:
		room.Blocked = true
	default:
		return NewValidationError(fmt.Sprintf("unknown status %q", status))
	}
	p.RecomputeRollups()
	return nil
}

func (p *Property) OverrideBedStatus(roomID, bedID string, status AvailabilityStatus) error {
	_, bed, err := p.findBed(roomID, bedID)
	if err != nil {
		return err
	}
	switch status {
	case Available:
		if len(bed.Tenants) > 0 {
			return NewConflictError("bed %s is occupied and cannot be marked available", bedID)
		}
		bed.Blocked = false
	case NotAvailable:
		bed.Blocked = true
	default:
		return NewValidationError(fmt.Sprintf("unknown status %q", status))
	}
	p.RecomputeRollups()
	return nil
}

// ApplyBill raises the pending dues on a bed (or bed-less room via the
// property total) for a newly issued bill.
func (p *Property) ApplyBill(roomID, bedID string, amount float64) error {
	if amount <= 0 {
		return NewValidationError("bill amount must be positive")
	}
	if bedID == "" {
		room, err := p.findRoom(roomID)
		if err != nil {
			return err
		}
		room.PendingDues += amount
		p.RecomputeRollups()
		return nil
	}
	_, bed, err := p.findBed(roomID, bedID)
	if err != nil {
		return err
	}
	bed.PendingDues += amount
	p.RecomputeRollups()
	return nil
}

// ApplyPayment moves a paid amount from pending dues to monthly collection.
// Both sides move in the same aggregate write.
func (p *Property) ApplyPayment(roomID, bedID string, amount float64) error {
	if amount <= 0 {
		return NewValidationError("payment amount must be positive")
	}
	if bedID == "" {
		room, err := p.findRoom(roomID)
		if err != nil {
			return err
		}
		room.PendingDues -= amount
		room.MonthlyCollection += amount
		p.RecomputeRollups()
		return nil
	}
	_, bed, err := p.findBed(roomID, bedID)
	if err != nil {
		return err
	}
	bed.PendingDues -= amount
	bed.MonthlyCollection += amount
	p.RecomputeRollups()
	return nil
}

// RecomputeRollups recalculates every denormalized counter from the room and
// bed arrays. It runs after every structural mutation instead of incremental
// deltas; rooms per property are few, so the full pass is cheap and cannot
// drift. Idempotent.
func (p *Property) RecomputeRollups() {
	totalRooms := len(p.Rooms)
	totalBeds, totalCapacity, occupiedBeds := 0, 0, 0
	var dues, collection float64

	for i := range p.Rooms {
		room := &p.Rooms[i]
		if room.Capacity < 1 {
			room.Capacity = 1
		}
		totalCapacity += room.Capacity
		totalBeds += len(room.Beds)

		for j := range room.Beds {
			bed := &room.Beds[j]
			if len(bed.Tenants) > 0 {
				occupiedBeds++
				bed.Status = NotAvailable
			} else if bed.Blocked {
				bed.Status = NotAvailable
			} else {
				bed.Status = Available
			}
			dues += bed.PendingDues
			collection += bed.MonthlyCollection
		}
		dues += room.PendingDues
		collection += room.MonthlyCollection

		if room.Blocked || room.fullyOccupied() {
			room.Status = NotAvailable
		} else {
			room.Status = Available
		}
	}

	p.TotalRooms = totalRooms
	p.TotalBeds = totalBeds
	p.TotalCapacity = totalCapacity
	p.OccupiedBeds = occupiedBeds
	p.PendingDues = dues
	p.MonthlyCollection = collection
	p.UpdatedAt = time.Now()
}

func (p *Property) HasActiveTenants() bool {
	for i := range p.Rooms {
		if p.Rooms[i].occupied() {
			return true
		}
	}
	return false
}

func (p *Property) Occupancy() *OccupancyReport {
	report := &OccupancyReport{
		PropertyID:    p.ID.Hex(),
		TotalRooms:    p.TotalRooms,
		TotalBeds:     p.TotalBeds,
		TotalCapacity: p.TotalCapacity,
		OccupiedBeds:  p.OccupiedBeds,
		VacantBeds:    p.TotalBeds - p.OccupiedBeds,
	}
	if p.TotalBeds > 0 {
		report.OccupancyRate = float64(p.OccupiedBeds) / float64(p.TotalBeds)
	}
	for i := range p.Rooms {
		room := &p.Rooms[i]
		occupied := 0
		for j := range room.Beds {
			if len(room.Beds[j].Tenants) > 0 {
				occupied++
			}
		}
		report.Rooms = append(report.Rooms, RoomOccupancy{
			RoomID:       room.RoomID,
			Type:         room.Type,
			Status:       room.Status,
			Capacity:     room.Capacity,
			TotalBeds:    len(room.Beds),
			OccupiedBeds: occupied,
		})
	}
	return report
}

func (p *Property) findRoom(roomID string) (*Room, error) {
	for i := range p.Rooms {
		if p.Rooms[i].RoomID == roomID {
			return &p.Rooms[i], nil
		}
	}
	return nil, NewNotFoundError("room", roomID)
}

func (p *Property) findBed(roomID, bedID string) (*Room, *Bed, error) {
	room, err := p.findRoom(roomID)
	if err != nil {
		return nil, nil, err
	}
	for i := range room.Beds {
		if room.Beds[i].BedID == bedID {
			return room, &room.Beds[i], nil
		}
	}
	return nil, nil, NewNotFoundError("bed", bedID)
}

func (r *Room) occupied() bool {
	if len(r.Tenants) > 0 {
		return true
	}
	for i := range r.Beds {
		if len(r.Beds[i].Tenants) > 0 {
			return true
		}
	}
	return false
}

func (r *Room) fullyOccupied() bool {
	if len(r.Beds) == 0 {
		return len(r.Tenants) >= r.Capacity
	}
	for i := range r.Beds {
		if len(r.Beds[i].Tenants) == 0 {
			return false
		}
	}
	return true
}

func validateRoomSpec(label string, spec RoomSpec) []string {
	var rejected []string
	if spec.Type == "" {
		rejected = append(rejected, fmt.Sprintf("%s: type is required", label))
	}
	if spec.Price <= 0 {
		rejected = append(rejected, fmt.Sprintf("%s: price is required", label))
	}
	if spec.Capacity > 0 && spec.Capacity < len(spec.Beds) {
		rejected = append(rejected, fmt.Sprintf("%s: capacity is below the number of beds", label))
	}
	for i, bed := range spec.Beds {
		if bed.Price <= 0 {
			rejected = append(rejected, fmt.Sprintf("%s.beds[%d]: price is required", label, i))
		}
	}
	return rejected
}

func buildRoom(spec RoomSpec) Room {
	capacity := spec.Capacity
	if capacity == 0 {
		capacity = len(spec.Beds)
	}
	if capacity < 1 {
		capacity = 1
	}
	room := Room{
		RoomID:     uuid.NewString(),
		Type:       spec.Type,
		Price:      spec.Price,
		Capacity:   capacity,
		Status:     Available,
		Facilities: spec.Facilities,
		Beds:       []Bed{},
		Tenants:    []string{},
	}
	for _, bedSpec := range spec.Beds {
		room.Beds = append(room.Beds, buildBed(bedSpec))
	}
	return room
}

func buildBed(spec BedSpec) Bed {
	return Bed{
		BedID:   uuid.NewString(),
		Price:   spec.Price,
		Status:  Available,
		Tenants: []string{},
	}
}

func removeRef(refs *[]string, id string) bool {
	for i, ref := range *refs {
		if ref == id {
			*refs = append((*refs)[:i], (*refs)[i+1:]...)
			return true
		}
	}
	return false
}
