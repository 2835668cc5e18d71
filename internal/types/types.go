// README: Common value objects shared across modules.
package types

import "github.com/google/uuid"

// ID is a string identifier (UUID) for any persisted entity.
type ID string

func NewID() ID {
	return ID(uuid.New().String())
}

// Point is a WGS84 coordinate pair.
type Point struct {
	Lat float64
	Lng float64
}

// Dimensions are package measurements in centimetres.
type Dimensions struct {
	HeightCm float64
	WidthCm  float64
	DepthCm  float64
}

// VolumeM3 converts the centimetre dimensions into cubic metres.
func (d Dimensions) VolumeM3() float64 {
	return (d.HeightCm / 100) * (d.WidthCm / 100) * (d.DepthCm / 100)
}
