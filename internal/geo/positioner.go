package geo

import (
	"context"
	"fmt"
)

// ReportedPosition is a position the client device sent along with its request.
// A nil ReportedPosition means the device did not share its location.
type ReportedPosition struct {
	coords *Coordinates
}

// NewReportedPosition wraps device-reported coordinates.
func NewReportedPosition(lat, lon float64) ReportedPosition {
	return ReportedPosition{coords: &Coordinates{Latitude: lat, Longitude: lon}}
}

// NoPosition is the positioner for requests without a device report.
var NoPosition = ReportedPosition{}

// CurrentPosition returns the reported coordinates, or ErrPositionUnavailable.
func (p ReportedPosition) CurrentPosition(ctx context.Context) (Coordinates, error) {
	if err := ctx.Err(); err != nil {
		return Coordinates{}, err
	}
	if p.coords == nil {
		return Coordinates{}, ErrPositionUnavailable
	}
	if !p.coords.Valid() {
		return Coordinates{}, fmt.Errorf("%w: out of range %s", ErrPositionUnavailable, p.coords)
	}
	return *p.coords, nil
}
