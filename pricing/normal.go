package pricing

import "gonum.org/v1/gonum/stat/distuv"

// NormCDF is the standard normal cumulative distribution function,
// evaluated as 0.5*erfc(-x/sqrt(2)). This formula is the numeric contract:
// it is accurate to well below 1e-8 over |x| <= 10 and saturates to exactly
// 0 and 1 in the far tails.
func NormCDF(x float64) float64 {
	return distuv.UnitNormal.CDF(x)
}

// NormPDF is the standard normal density exp(-x^2/2)/sqrt(2*pi).
func NormPDF(x float64) float64 {
	return distuv.UnitNormal.Prob(x)
}
