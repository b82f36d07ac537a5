package geo

import "math"

const (
	halfPi  = math.Pi / 2
	quartPi = math.Pi / 4
	epsilon = 1e-10
)

// rawProjection maps spherical radians to unit projection coordinates with
// y pointing up. Screen centering and scaling happen in Projection.
type rawProjection interface {
	forward(lambda, phi float64) (x, y float64)
	inverse(x, y float64) (lambda, phi float64, ok bool)
}

func rawFor(kind Kind) rawProjection {
	switch kind {
	case Mercator:
		return mercatorRaw{}
	case Equirectangular:
		return equirectangularRaw{}
	case Robinson:
		return robinsonRaw{}
	case Winkel3:
		return winkel3Raw{}
	case Eckert4:
		return eckert4Raw{}
	case Orthographic:
		return orthographicRaw{}
	default:
		return naturalEarthRaw{}
	}
}

type equirectangularRaw struct{}

func (equirectangularRaw) forward(lambda, phi float64) (float64, float64) {
	return lambda, phi
}

func (equirectangularRaw) inverse(x, y float64) (float64, float64, bool) {
	return x, y, inLonLatDomain(x, y)
}

type mercatorRaw struct{}

// maxMercatorPhi is the web-Mercator latitude cut, atan(sinh(pi)). The
// forward transform diverges to infinity beyond it, and world files do
// contain the poles (Antarctica rings close along latitude -90).
const maxMercatorPhi = 1.4844222297453324

func (mercatorRaw) forward(lambda, phi float64) (float64, float64) {
	phi = clamp(phi, -maxMercatorPhi, maxMercatorPhi)
	return lambda, math.Log(math.Tan(quartPi + phi/2))
}

func (mercatorRaw) inverse(x, y float64) (float64, float64, bool) {
	y = clamp(y, -math.Pi, math.Pi)
	return x, 2*math.Atan(math.Exp(y)) - halfPi, math.Abs(x) <= math.Pi+epsilon
}

// naturalEarthRaw is the Natural Earth I polynomial projection.
type naturalEarthRaw struct{}

func (naturalEarthRaw) forward(lambda, phi float64) (float64, float64) {
	phi2 := phi * phi
	phi4 := phi2 * phi2
	x := lambda * (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	y := phi * (1.007226 + phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4)))
	return x, y
}

func (naturalEarthRaw) inverse(x, y float64) (float64, float64, bool) {
	phi := y
	for i := 0; i < 25; i++ {
		phi2 := phi * phi
		phi4 := phi2 * phi2
		f := phi*(1.007226+phi2*(0.015085+phi4*(-0.044475+0.028874*phi2-0.005916*phi4))) - y
		d := 1.007226 + phi2*(0.015085*3+phi4*(-0.044475*7+0.028874*9*phi2-0.005916*11*phi4))
		delta := f / d
		phi -= delta
		if math.Abs(delta) < epsilon {
			break
		}
	}
	phi2 := phi * phi
	phi4 := phi2 * phi2
	lambda := x / (0.8707 - 0.131979*phi2 + phi4*(-0.013791+phi4*(0.003971*phi2-0.001529*phi4)))
	return lambda, phi, inLonLatDomain(lambda, phi)
}

// robinsonRaw uses the classic 5-degree coefficient table with linear
// interpolation; forward and inverse share the table so round trips are
// exact up to floating point.
type robinsonRaw struct{}

var robinsonX = [19]float64{
	1.0000, 0.9986, 0.9954, 0.9900, 0.9822, 0.9730, 0.9600, 0.9427, 0.9216, 0.8962,
	0.8679, 0.8350, 0.7986, 0.7597, 0.7186, 0.6732, 0.6213, 0.5722, 0.5322,
}

var robinsonY = [19]float64{
	0.0000, 0.0620, 0.1240, 0.1860, 0.2480, 0.3100, 0.3720, 0.4340, 0.4958, 0.5571,
	0.6176, 0.6769, 0.7346, 0.7903, 0.8435, 0.8936, 0.9394, 0.9761, 1.0000,
}

func robinsonCoeffs(absPhiDeg float64) (xc, yc float64) {
	if absPhiDeg >= 90 {
		return robinsonX[18], robinsonY[18]
	}
	pos := absPhiDeg / 5
	i := int(pos)
	t := pos - float64(i)
	xc = robinsonX[i] + (robinsonX[i+1]-robinsonX[i])*t
	yc = robinsonY[i] + (robinsonY[i+1]-robinsonY[i])*t
	return xc, yc
}

func (robinsonRaw) forward(lambda, phi float64) (float64, float64) {
	xc, yc := robinsonCoeffs(math.Abs(phi) * 180 / math.Pi)
	return 0.8487 * xc * lambda, 1.3523 * math.Copysign(yc, phi)
}

func (robinsonRaw) inverse(x, y float64) (float64, float64, bool) {
	yc := math.Abs(y) / 1.3523
	if yc > 1+epsilon {
		return 0, 0, false
	}
	// Locate the table segment containing yc; robinsonY is monotonic.
	i := 17
	for j := 0; j < 18; j++ {
		if yc <= robinsonY[j+1] {
			i = j
			break
		}
	}
	span := robinsonY[i+1] - robinsonY[i]
	t := 0.0
	if span > 0 {
		t = (yc - robinsonY[i]) / span
	}
	absPhiDeg := (float64(i) + t) * 5
	xc := robinsonX[i] + (robinsonX[i+1]-robinsonX[i])*t
	lambda := x / (0.8487 * xc)
	phi := math.Copysign(absPhiDeg*math.Pi/180, y)
	return lambda, phi, inLonLatDomain(lambda, phi)
}

// winkel3Raw is the Winkel tripel: the mean of Aitoff and equirectangular
// at standard parallel acos(2/pi). No closed-form inverse exists, so the
// inverse runs a two-dimensional Newton iteration.
type winkel3Raw struct{}

var winkelCosPhi1 = 2 / math.Pi

func aitoff(lambda, phi float64) (float64, float64) {
	cosPhi := math.Cos(phi)
	halfLambda := lambda / 2
	alpha := math.Acos(cosPhi * math.Cos(halfLambda))
	sinci := 1.0
	if alpha > epsilon {
		sinci = alpha / math.Sin(alpha)
	}
	return 2 * cosPhi * math.Sin(halfLambda) * sinci, math.Sin(phi) * sinci
}

func (winkel3Raw) forward(lambda, phi float64) (float64, float64) {
	ax, ay := aitoff(lambda, phi)
	return (ax + lambda*winkelCosPhi1) / 2, (ay + phi) / 2
}

func (w winkel3Raw) inverse(x, y float64) (float64, float64, bool) {
	return invertNewton(w.forward, x, y)
}

type eckert4Raw struct{}

func (eckert4Raw) forward(lambda, phi float64) (float64, float64) {
	k := (2 + halfPi) * math.Sin(phi)
	theta := phi / 2
	for i := 0; i < 10; i++ {
		cosTheta := math.Cos(theta)
		delta := (theta + math.Sin(theta)*(cosTheta+2) - k) / (2 * cosTheta * (1 + cosTheta))
		theta -= delta
		if math.Abs(delta) < epsilon {
			break
		}
	}
	return 2 / math.Sqrt(math.Pi*(4+math.Pi)) * lambda * (1 + math.Cos(theta)),
		2 * math.Sqrt(math.Pi/(4+math.Pi)) * math.Sin(theta)
}

func (eckert4Raw) inverse(x, y float64) (float64, float64, bool) {
	sinTheta := y / 2 * math.Sqrt((4+math.Pi)/math.Pi)
	if math.Abs(sinTheta) > 1+epsilon {
		return 0, 0, false
	}
	theta := math.Asin(clamp(sinTheta, -1, 1))
	cosTheta := math.Cos(theta)
	lambda := x / (2 / math.Sqrt(math.Pi*(4+math.Pi)) * (1 + cosTheta))
	sinPhi := (theta + sinTheta*(cosTheta+2)) / (2 + halfPi)
	if math.Abs(sinPhi) > 1+epsilon {
		return 0, 0, false
	}
	phi := math.Asin(clamp(sinPhi, -1, 1))
	return lambda, phi, inLonLatDomain(lambda, phi)
}

// orthographicRaw projects the front hemisphere of a globe centered on the
// rotation origin. Callers must cull points where cos(lambda)*cos(phi) < 0.
type orthographicRaw struct{}

func (orthographicRaw) forward(lambda, phi float64) (float64, float64) {
	return math.Cos(phi) * math.Sin(lambda), math.Sin(phi)
}

func (orthographicRaw) inverse(x, y float64) (float64, float64, bool) {
	rho := math.Hypot(x, y)
	if rho > 1+epsilon {
		return 0, 0, false
	}
	if rho < epsilon {
		return 0, 0, true
	}
	c := math.Asin(clamp(rho, 0, 1))
	sinC, cosC := math.Sin(c), math.Cos(c)
	lambda := math.Atan2(x*sinC, rho*cosC)
	phi := math.Asin(clamp(y*sinC/rho, -1, 1))
	return lambda, phi, true
}

// invertNewton solves forward(lambda, phi) = (x, y) with a numeric Jacobian.
func invertNewton(fwd func(lambda, phi float64) (float64, float64), x, y float64) (float64, float64, bool) {
	const h = 1e-7
	lambda, phi := x, y
	for i := 0; i < 40; i++ {
		fx, fy := fwd(lambda, phi)
		rx, ry := fx-x, fy-y
		if math.Abs(rx) < epsilon && math.Abs(ry) < epsilon {
			return lambda, phi, inLonLatDomain(lambda, phi)
		}
		fxl, fyl := fwd(lambda+h, phi)
		fxp, fyp := fwd(lambda, phi+h)
		j00 := (fxl - fx) / h
		j10 := (fyl - fy) / h
		j01 := (fxp - fx) / h
		j11 := (fyp - fy) / h
		det := j00*j11 - j01*j10
		if math.Abs(det) < 1e-14 {
			return 0, 0, false
		}
		lambda -= (rx*j11 - ry*j01) / det
		phi -= (ry*j00 - rx*j10) / det
		phi = clamp(phi, -halfPi, halfPi)
	}
	return 0, 0, false
}

func inLonLatDomain(lambda, phi float64) bool {
	return math.Abs(lambda) <= math.Pi+1e-6 && math.Abs(phi) <= halfPi+1e-6
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
