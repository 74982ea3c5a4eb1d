package gcode

type ModalGroup byte

const (
	ModalGroupNone ModalGroup = iota
	ModalGroupNonModal
	ModalGroupMotion
	ModalGroupPlaneSelection
	ModalGroupDistanceMode
	ModalGroupArcDistanceMode
	ModalGroupFeedRateMode
	ModalGroupUnits
	ModalGroupCoordinateSystem
	ModalGroupStopping
	ModalGroupToolChange
	ModalGroupExtrusionMode
	ModalGroupFeedRate
	ModalGroupToolSelect
)

var gGroups = map[float64]ModalGroup{
	4: ModalGroupNonModal, 10: ModalGroupNonModal, 11: ModalGroupNonModal,
	28: ModalGroupNonModal, 53: ModalGroupNonModal, 92: ModalGroupNonModal,

	0: ModalGroupMotion, 1: ModalGroupMotion, 2: ModalGroupMotion, 3: ModalGroupMotion,
	5: ModalGroupMotion, 33: ModalGroupMotion, 38.2: ModalGroupMotion, 38.3: ModalGroupMotion,
	38.4: ModalGroupMotion, 38.5: ModalGroupMotion, 73: ModalGroupMotion, 76: ModalGroupMotion,
	80: ModalGroupMotion, 81: ModalGroupMotion, 82: ModalGroupMotion, 83: ModalGroupMotion,
	84: ModalGroupMotion, 85: ModalGroupMotion, 86: ModalGroupMotion, 87: ModalGroupMotion,
	88: ModalGroupMotion, 89: ModalGroupMotion,

	17: ModalGroupPlaneSelection, 18: ModalGroupPlaneSelection, 19: ModalGroupPlaneSelection,
	90: ModalGroupDistanceMode, 91: ModalGroupDistanceMode,
	90.1: ModalGroupArcDistanceMode, 91.1: ModalGroupArcDistanceMode,
	93: ModalGroupFeedRateMode, 94: ModalGroupFeedRateMode, 95: ModalGroupFeedRateMode,
	20: ModalGroupUnits, 21: ModalGroupUnits,
	54: ModalGroupCoordinateSystem, 55: ModalGroupCoordinateSystem, 56: ModalGroupCoordinateSystem,
	57: ModalGroupCoordinateSystem, 58: ModalGroupCoordinateSystem, 59: ModalGroupCoordinateSystem,
}

var mGroups = map[float64]ModalGroup{
	0: ModalGroupStopping, 1: ModalGroupStopping, 2: ModalGroupStopping, 30: ModalGroupStopping,
	6: ModalGroupToolChange,
	82: ModalGroupExtrusionMode, 83: ModalGroupExtrusionMode,
}

func (w Word) ModalGroup() ModalGroup {
	switch w.W {
	case 'G':
		return gGroups[w.Arg]
	case 'M':
		return mGroups[w.Arg]
	case 'F':
		return ModalGroupFeedRate
	case 'T':
		return ModalGroupToolSelect
	}

	return ModalGroupNone
}
