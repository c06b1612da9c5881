package graspplanning

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/graspplanner/spatialmath"
)

// LocationKind distinguishes locations a bag is poured at from locations it is set down at.
type LocationKind string

// The location kinds.
const (
	LocationGoal  LocationKind = "goal"
	LocationDepot LocationKind = "depot"
)

// Location is a named place a held bag can be transferred to.
type Location struct {
	Name   string                   `json:"name"`
	Kind   LocationKind             `json:"kind"`
	Center *spatialmath.PointConfig `json:"center"`
	// Pour marks the goal whose completed tilts are counted.
	Pour bool `json:"pour,omitempty"`
}

// Point returns the center of the location.
func (l Location) Point() r3.Vector {
	if l.Center == nil {
		return r3.Vector{}
	}
	return r3.Vector{X: l.Center.X, Y: l.Center.Y, Z: l.Center.Z}
}

// Locations is the table of named locations.
type Locations []Location

// DefaultLocations returns the three goal locations around the pour target and the three depots.
func DefaultLocations() Locations {
	goal := func() *spatialmath.PointConfig { return &spatialmath.PointConfig{X: 0.3, Y: 0, Z: 0.1} }
	return Locations{
		{Name: "G0", Kind: LocationGoal, Center: goal(), Pour: true},
		{Name: "G1", Kind: LocationGoal, Center: goal()},
		{Name: "G2", Kind: LocationGoal, Center: goal()},
		{Name: "L0", Kind: LocationDepot, Center: &spatialmath.PointConfig{X: 0.3, Y: 0.48, Z: 0.1}},
		{Name: "L1", Kind: LocationDepot, Center: &spatialmath.PointConfig{X: 0.35, Y: -0.35, Z: 0.1}},
		{Name: "L2", Kind: LocationDepot, Center: &spatialmath.PointConfig{X: 0.01, Y: 0.3, Z: 0.1}},
	}
}

// Lookup returns the location with the given name.
func (ls Locations) Lookup(name string) (Location, error) {
	for _, l := range ls {
		if l.Name == name {
			return l, nil
		}
	}
	return Location{}, errors.Wrapf(ErrUnknownLocation, "%q", name)
}

// Validate ensures every location is named uniquely and has a kind and a center. At most one
// location may be the pour target.
func (ls Locations) Validate(path string) error {
	var errs error
	seen := make(map[string]bool, len(ls))
	pours := 0
	for i, l := range ls {
		field := fmt.Sprintf("%s.%d", path, i)
		if l.Name == "" {
			errs = multierr.Append(errs, errors.Errorf("%s: name is required", field))
		} else if seen[l.Name] {
			errs = multierr.Append(errs, errors.Errorf("%s: duplicate location %q", field, l.Name))
		}
		seen[l.Name] = true
		if l.Kind != LocationGoal && l.Kind != LocationDepot {
			errs = multierr.Append(errs, errors.Errorf("%s: kind must be %q or %q, got %q", field, LocationGoal, LocationDepot, l.Kind))
		}
		if l.Center == nil {
			errs = multierr.Append(errs, errors.Errorf("%s: center is required", field))
		}
		if l.Pour {
			if l.Kind != LocationGoal {
				errs = multierr.Append(errs, errors.Errorf("%s: only a goal can be poured at", field))
			}
			pours++
		}
	}
	if pours > 1 {
		errs = multierr.Append(errs, errors.Errorf("%s: %d locations are marked pour, at most one is allowed", path, pours))
	}
	return errs
}
