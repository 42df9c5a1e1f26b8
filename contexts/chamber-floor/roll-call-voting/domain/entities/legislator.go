package entities

// Legislator is a chamber member as published by the external registry.
// Only Active is mutable from inside this service.
type Legislator struct {
	LegislatorID string
	DisplayName  string
	Party        string
	SeatOrder    int
	Active       bool
}
