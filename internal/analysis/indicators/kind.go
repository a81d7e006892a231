package indicators

import (
	"strings"

	apperrors "indicator-engine/internal/errors"
)

// Kind identifies an indicator implementation.
type Kind int

const (
	KindSum Kind = iota
	KindMin
	KindMax
	KindStdDev
	KindSMA
	KindEMA
	KindSMMA
	KindWMA
	KindCMO
	KindVIDYA
	KindMedPrice
	KindTrueRange
	KindATR
	KindBBands
	KindMACD
	KindOsMA
	KindDoubleSMA
	KindChop
	KindVortex
	KindCOG
	KindAlligator
	KindFractal

	kindCount
)

var kindNames = [kindCount]string{
	KindSum:       "SUM",
	KindMin:       "MIN",
	KindMax:       "MAX",
	KindStdDev:    "STDDEV",
	KindSMA:       "SMA",
	KindEMA:       "EMA",
	KindSMMA:      "SMMA",
	KindWMA:       "WMA",
	KindCMO:       "CMO",
	KindVIDYA:     "VIDYA",
	KindMedPrice:  "MEDPRICE",
	KindTrueRange: "TRANGE",
	KindATR:       "ATR",
	KindBBands:    "BBANDS",
	KindMACD:      "MACD",
	KindOsMA:      "OSMA",
	KindDoubleSMA: "DOUBLE_SMA",
	KindChop:      "CHOP",
	KindVortex:    "VORTEX",
	KindCOG:       "COG",
	KindAlligator: "ALLIGATOR",
	KindFractal:   "FRACTAL",
}

func (k Kind) String() string {
	if k < 0 || k >= kindCount {
		return "UNKNOWN"
	}
	return kindNames[k]
}

// AllKinds returns every indicator kind in declaration order.
func AllKinds() []Kind {
	kinds := make([]Kind, kindCount)
	for i := range kinds {
		kinds[i] = Kind(i)
	}
	return kinds
}

// ParseKind resolves an indicator name, case-insensitively.
func ParseKind(name string) (Kind, error) {
	for i, n := range kindNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Kind(i), nil
		}
	}
	return 0, apperrors.Wrapf(apperrors.ErrUnknownIndicator, "%q", name)
}
