package artwork

import (
	"math"

	"github.com/inkthread/storefront/internal/domain/shared"
)

// Transform bounds
const (
	MinScale = 0.05
	MaxScale = 4.0
)

// Transform positions artwork inside a print area.
// X and Y are the normalized center of the image (0..1), Width and Height
// are the normalized unscaled size of the image, Rotation is in degrees.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Scale    float64 `json:"scale"`
	Rotation float64 `json:"rotation"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
}

// DefaultTransform centers the artwork at full size with no rotation
func DefaultTransform() Transform {
	return Transform{X: 0.5, Y: 0.5, Scale: 1, Rotation: 0, Width: 1, Height: 1}
}

// NewTransform validates a transform and normalizes its rotation into [0, 360)
func NewTransform(x, y, scale, rotation, width, height float64) (Transform, error) {
	t := Transform{X: x, Y: y, Scale: scale, Rotation: rotation, Width: width, Height: height}
	return t.Normalize()
}

// Normalize validates the transform and returns a copy with rotation in [0, 360)
func (t Transform) Normalize() (Transform, error) {
	for _, v := range []float64{t.X, t.Y, t.Scale, t.Rotation, t.Width, t.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Transform{}, shared.NewDomainError("INVALID_TRANSFORM", "Transform values must be finite numbers")
		}
	}
	if t.X < 0 || t.X > 1 || t.Y < 0 || t.Y > 1 {
		return Transform{}, shared.NewDomainError("INVALID_TRANSFORM", "Position must be within the print area (0..1)")
	}
	if t.Scale < MinScale || t.Scale > MaxScale {
		return Transform{}, shared.NewDomainError("INVALID_TRANSFORM", "Scale must be between 0.05 and 4")
	}
	if t.Width <= 0 || t.Height <= 0 {
		return Transform{}, shared.NewDomainError("INVALID_TRANSFORM", "Width and height must be positive")
	}
	if t.Width*t.Scale > 1+1e-9 || t.Height*t.Scale > 1+1e-9 {
		return Transform{}, shared.NewDomainError("INVALID_TRANSFORM", "Scaled artwork exceeds the print area")
	}
	t.Rotation = math.Mod(t.Rotation, 360)
	if t.Rotation < 0 {
		t.Rotation += 360
	}
	return t, nil
}

// IsZero reports whether the transform was never set
func (t Transform) IsZero() bool {
	return t == Transform{}
}
