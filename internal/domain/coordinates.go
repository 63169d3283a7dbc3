package domain

import "fmt"

// Immutable geographic coordinates (longitude, latitude).
type Coordinates struct {
	Lon float64
	Lat float64
}

// Return coordinates as [lon, lat] for external API compatibility.
func (c Coordinates) CoordsToList() []float64 { return []float64{c.Lon, c.Lat} }

// Render as "lon,lat" the way OSRM path segments expect.
func (c Coordinates) String() string {
	return fmt.Sprintf("%f,%f", c.Lon, c.Lat)
}
