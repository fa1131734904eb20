package geo

import (
	"context"
	"errors"
	"fmt"
)

// Source records which tier produced a location. It is diagnostic only.
type Source string

const (
	SourceDevice   Source = "Device"
	SourceIP       Source = "IP"
	SourceFallback Source = "Fallback"
	// SourceNamed marks locations named by the caller, e.g. batch weather entries.
	SourceNamed Source = "Named"
)

// Coordinates is a WGS84 position in decimal degrees.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// String renders the coordinates as a short human-readable label.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.4f, %.4f", c.Latitude, c.Longitude)
}

// Valid reports whether the coordinates are inside the WGS84 range.
func (c Coordinates) Valid() bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// LocationLabel is a resolved position with a display name and its provenance.
type LocationLabel struct {
	DisplayName string      `json:"displayName"`
	Source      Source      `json:"source"`
	Coordinates Coordinates `json:"coordinates"`
}

// IPLocation is what an IP geolocation provider reports.
type IPLocation struct {
	Coordinates Coordinates
	City        string
	Country     string
}

// Positioner reports the device's own position.
type Positioner interface {
	CurrentPosition(ctx context.Context) (Coordinates, error)
}

// ReverseGeocoder turns coordinates into a place name. Best effort.
type ReverseGeocoder interface {
	ReverseGeocode(ctx context.Context, c Coordinates) (string, error)
}

// IPLocator resolves the caller's public IP to a position and city.
type IPLocator interface {
	LocateByIP(ctx context.Context) (IPLocation, error)
}

var (
	// ErrPositionUnavailable is returned when the device did not report a position.
	ErrPositionUnavailable = errors.New("device position unavailable")
	// ErrNoPlaceName is returned when a reverse lookup finds nothing usable.
	ErrNoPlaceName = errors.New("no place name for coordinates")
)
