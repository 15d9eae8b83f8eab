// Package location resolves the single coordinate attached to a report,
// either from device geolocation or from a click on the map.
package location

import (
	"context"
	"errors"
	"fmt"

	"github.com/VicegerentPrince/Urban-Eye/geo"
)

var (
	// ErrLocationUnavailable means device geolocation was denied or failed.
	// The picker stays usable; the caller should prompt for a map click.
	ErrLocationUnavailable = errors.New("device location unavailable")
	// ErrInvalidPoint means a map click produced an out-of-range coordinate.
	ErrInvalidPoint = errors.New("coordinate out of range")
)

// Geolocator reads the device's current position. Tests inject a fake.
type Geolocator interface {
	CurrentLocation(ctx context.Context) (geo.Point, error)
}

// Picker yields exactly one coordinate. A map click always supersedes any
// earlier selection, automatic or manual.
type Picker struct {
	// OnSelect fires whenever the selection changes, e.g. to drop a marker.
	OnSelect func(geo.Point)
	// OnRecenter fires when device geolocation succeeds, so the map view
	// can move to the user's position.
	OnRecenter func(geo.Point)

	geolocator Geolocator
	selected   *geo.Point
}

// NewPicker creates a picker with no coordinate chosen.
func NewPicker(geolocator Geolocator) *Picker {
	return &Picker{geolocator: geolocator}
}

// UseDeviceLocation asks the device for its position and selects it. On
// failure nothing is selected and the previous selection is kept.
func (p *Picker) UseDeviceLocation(ctx context.Context) error {
	point, err := p.geolocator.CurrentLocation(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLocationUnavailable, err)
	}
	if !point.Valid() {
		return fmt.Errorf("%w: %v", ErrLocationUnavailable, ErrInvalidPoint)
	}

	p.selected = &point
	if p.OnRecenter != nil {
		p.OnRecenter(point)
	}
	if p.OnSelect != nil {
		p.OnSelect(point)
	}
	return nil
}

// PickOnMap selects the clicked point, replacing any previous selection.
func (p *Picker) PickOnMap(point geo.Point) error {
	if !point.Valid() {
		return ErrInvalidPoint
	}

	p.selected = &point
	if p.OnSelect != nil {
		p.OnSelect(point)
	}
	return nil
}

// Selection returns the chosen coordinate, if any. An unset selection is
// reported through ok, never as a zero point.
func (p *Picker) Selection() (geo.Point, bool) {
	if p.selected == nil {
		return geo.Point{}, false
	}
	return *p.selected, true
}

// Clear forgets the current selection.
func (p *Picker) Clear() {
	p.selected = nil
}
