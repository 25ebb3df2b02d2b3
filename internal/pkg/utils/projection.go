package utils

import (
	"math"

	"github.com/paulmach/orb"
)

// CRS - подсказка о системе координат входных данных
type CRS string

const (
	CRSWGS84       CRS = "wgs84"
	CRSUTM28N      CRS = "utm28n"
	CRSUTM29N      CRS = "utm29n"
	CRSWebMercator CRS = "webmercator"
)

// Эллипсоид WGS84 и параметры поперечной проекции Меркатора
const (
	wgs84A         = 6378137.0
	wgs84F         = 1 / 298.257223563
	utmK0          = 0.9996
	utmFalseEast   = 500000.0
	utmFalseNorth  = 10000000.0
	mercatorRadius = 6378137.0

	// значения больше этого порога точно не градусы
	projectedThreshold = 1000.0
)

var (
	wgs84E2      = wgs84F * (2 - wgs84F)
	wgs84EPrime2 = wgs84E2 / (1 - wgs84E2)
)

func utmCentralMeridian(zone int) float64 {
	return float64(zone-1)*6 - 180 + 3
}

// UTMToLatLon переводит UTM в долготу/широту WGS84 (ряд до 4-го порядка, точность около метра)
func UTMToLatLon(easting, northing float64, zone int, northernHemisphere bool) orb.Point {
	e2 := wgs84E2
	ep2 := wgs84EPrime2

	x := easting - utmFalseEast
	y := northing
	if !northernHemisphere {
		y -= utmFalseNorth
	}

	m := y / utmK0
	mu := m / (wgs84A * (1 - e2/4 - 3*e2*e2/64 - 5*e2*e2*e2/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	j1 := 3*e1/2 - 27*math.Pow(e1, 3)/32
	j2 := 21*e1*e1/16 - 55*math.Pow(e1, 4)/32
	j3 := 151 * math.Pow(e1, 3) / 96
	j4 := 1097 * math.Pow(e1, 4) / 512

	// широта основания
	fp := mu + j1*math.Sin(2*mu) + j2*math.Sin(4*mu) + j3*math.Sin(6*mu) + j4*math.Sin(8*mu)

	sinFp := math.Sin(fp)
	cosFp := math.Cos(fp)
	tanFp := math.Tan(fp)

	c1 := ep2 * cosFp * cosFp
	t1 := tanFp * tanFp
	r1 := wgs84A * (1 - e2) / math.Pow(1-e2*sinFp*sinFp, 1.5)
	n1 := wgs84A / math.Sqrt(1-e2*sinFp*sinFp)
	d := x / (n1 * utmK0)

	q1 := n1 * tanFp / r1
	q2 := d * d / 2
	q3 := (5 + 3*t1 + 10*c1 - 4*c1*c1 - 9*ep2) * math.Pow(d, 4) / 24
	q4 := (61 + 90*t1 + 298*c1 + 45*t1*t1 - 3*c1*c1 - 252*ep2) * math.Pow(d, 6) / 720
	lat := fp - q1*(q2-q3+q4)

	q5 := d
	q6 := (1 + 2*t1 + c1) * math.Pow(d, 3) / 6
	q7 := (5 - 2*c1 + 28*t1 - 3*c1*c1 + 8*ep2 + 24*t1*t1) * math.Pow(d, 5) / 120
	lon := utmCentralMeridian(zone) + radToDeg((q5-q6+q7)/cosFp)

	return orb.Point{lon, radToDeg(lat)}
}

// LatLonToUTM - прямая проекция, нужна для сидов и проверки обратной
func LatLonToUTM(lat, lon float64, zone int) (easting, northing float64) {
	e2 := wgs84E2
	ep2 := wgs84EPrime2

	phi := degToRad(lat)
	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := wgs84A / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := cosPhi * degToRad(lon-utmCentralMeridian(zone))

	m := wgs84A * ((1-e2/4-3*e2*e2/64-5*e2*e2*e2/256)*phi -
		(3*e2/8+3*e2*e2/32+45*e2*e2*e2/1024)*math.Sin(2*phi) +
		(15*e2*e2/256+45*e2*e2*e2/1024)*math.Sin(4*phi) -
		(35*e2*e2*e2/3072)*math.Sin(6*phi))

	easting = utmK0*n*(a+
		(1-t+c)*math.Pow(a, 3)/6+
		(5-18*t+t*t+72*c-58*ep2)*math.Pow(a, 5)/120) + utmFalseEast

	northing = utmK0 * (m + n*tanPhi*(a*a/2+
		(5-t+9*c+4*c*c)*math.Pow(a, 4)/24+
		(61-58*t+t*t+600*c-330*ep2)*math.Pow(a, 6)/720))
	if lat < 0 {
		northing += utmFalseNorth
	}

	return easting, northing
}

// MercatorToLonLat - обратная сферическая Web Mercator
func MercatorToLonLat(x, y float64) orb.Point {
	lon := radToDeg(x / mercatorRadius)
	lat := radToDeg(2*math.Atan(math.Exp(y/mercatorRadius)) - math.Pi/2)
	return orb.Point{lon, lat}
}

// MaybeToLonLat приводит координаты к долготе/широте.
// Для wgs84 сначала проверяется, что это уже градусы; большие числа считаются UTM 28N
// (Сенегал), остальное - Web Mercator. Явно названная проекция применяется без эвристик.
func MaybeToLonLat(x, y float64, crs CRS) orb.Point {
	switch crs {
	case CRSWGS84, "":
		if math.Abs(x) <= 180 && math.Abs(y) <= 90 {
			return orb.Point{x, y}
		}
		if x > projectedThreshold && y > projectedThreshold {
			return UTMToLatLon(x, y, 28, true)
		}
		return MercatorToLonLat(x, y)
	case CRSUTM28N:
		return UTMToLatLon(x, y, 28, true)
	case CRSUTM29N:
		return UTMToLatLon(x, y, 29, true)
	case CRSWebMercator:
		return MercatorToLonLat(x, y)
	default:
		return orb.Point{x, y}
	}
}

func degToRad(d float64) float64 { return d * math.Pi / 180 }

func radToDeg(r float64) float64 { return r * 180 / math.Pi }
