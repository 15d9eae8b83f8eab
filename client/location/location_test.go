package location

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VicegerentPrince/Urban-Eye/geo"
)

type fakeGeolocator struct {
	point geo.Point
	err   error
}

func (f *fakeGeolocator) CurrentLocation(ctx context.Context) (geo.Point, error) {
	return f.point, f.err
}

func TestDeviceLocationSelectsAndRecenters(t *testing.T) {
	p := NewPicker(&fakeGeolocator{point: geo.Point{Latitude: 12.34, Longitude: 56.78}})

	var recentered []geo.Point
	p.OnRecenter = func(pt geo.Point) { recentered = append(recentered, pt) }

	require.NoError(t, p.UseDeviceLocation(context.Background()))

	selected, ok := p.Selection()
	require.True(t, ok)
	assert.Equal(t, geo.Point{Latitude: 12.34, Longitude: 56.78}, selected)
	assert.Equal(t, []geo.Point{selected}, recentered)
}

func TestDeviceLocationDenialKeepsPickerUsable(t *testing.T) {
	loc := &fakeGeolocator{err: errors.New("permission denied")}
	p := NewPicker(loc)

	err := p.UseDeviceLocation(context.Background())
	assert.ErrorIs(t, err, ErrLocationUnavailable)

	_, ok := p.Selection()
	assert.False(t, ok, "denial must not set a coordinate")

	// Manual selection still works after the denial.
	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 1, Longitude: 2}))
	selected, ok := p.Selection()
	require.True(t, ok)
	assert.Equal(t, geo.Point{Latitude: 1, Longitude: 2}, selected)
}

func TestMapClickSupersedesDeviceLocation(t *testing.T) {
	p := NewPicker(&fakeGeolocator{point: geo.Point{Latitude: 10, Longitude: 10}})
	require.NoError(t, p.UseDeviceLocation(context.Background()))

	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 20, Longitude: 20}))

	selected, ok := p.Selection()
	require.True(t, ok)
	assert.Equal(t, geo.Point{Latitude: 20, Longitude: 20}, selected)
}

func TestLastClickWins(t *testing.T) {
	p := NewPicker(&fakeGeolocator{})

	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 1, Longitude: 1}))
	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 2, Longitude: 2}))
	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 3, Longitude: 3}))

	selected, _ := p.Selection()
	assert.Equal(t, geo.Point{Latitude: 3, Longitude: 3}, selected)
}

func TestInvalidClickIsRejected(t *testing.T) {
	p := NewPicker(&fakeGeolocator{})
	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 5, Longitude: 5}))

	err := p.PickOnMap(geo.Point{Latitude: 91, Longitude: 0})
	assert.ErrorIs(t, err, ErrInvalidPoint)

	// The previous valid selection survives.
	selected, ok := p.Selection()
	require.True(t, ok)
	assert.Equal(t, geo.Point{Latitude: 5, Longitude: 5}, selected)
}

func TestClear(t *testing.T) {
	p := NewPicker(&fakeGeolocator{})
	require.NoError(t, p.PickOnMap(geo.Point{Latitude: 5, Longitude: 5}))

	p.Clear()
	_, ok := p.Selection()
	assert.False(t, ok)
}
