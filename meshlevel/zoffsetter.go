package meshlevel

// A ZOffsetter reports the bed offset under an XY position.
type ZOffsetter interface {
	OffsetZ(x, y float64) (bool, float64)
}

type flatBed struct{}

func (flatBed) OffsetZ(x, y float64) (bool, float64) {
	return false, 0
}
