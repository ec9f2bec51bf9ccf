package sensor

import "github.com/san-kum/tiltfluid/internal/dynamo"

// Tilt is a rotation of the bounding container in radians.
type Tilt struct {
	X, Y, Z float64
}

func TiltFrom(o Orientation) Tilt {
	return Tilt{
		X: dynamo.DegToRad(o.Beta),
		Y: dynamo.DegToRad(o.Gamma),
		Z: dynamo.DegToRad(o.Alpha),
	}
}
