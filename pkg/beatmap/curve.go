package beatmap

// CurveType is the 2-bit slider path code
type CurveType uint8

const (
	CurveBezier CurveType = iota
	CurveCentripetal
	CurveLinear
	CurvePerfectCircle
)

// CurveMask covers every valid CurveType
const CurveMask = 0b11

func (c CurveType) String() string {
	switch c {
	case CurveBezier:
		return "bezier"
	case CurveCentripetal:
		return "centripetal"
	case CurveLinear:
		return "linear"
	case CurvePerfectCircle:
		return "perfect"
	}
	return "unknown"
}

// DefaultCurve stands in for the curve of events that have no path
const DefaultCurve = CurveLinear
