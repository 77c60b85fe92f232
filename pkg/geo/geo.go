// Package geo содержит гаверсинус-расстояние на сферической модели Земли.
package geo

import "math"

// EarthRadiusKm - радиус сферической аппроксимации Земли
const EarthRadiusKm = 6371.0

// Distance возвращает расстояние между двумя точками в километрах.
// Входы - градусные пары (lat, lon). Точности сферы достаточно для
// фильтра "в пределах N км", эллипсоидная поправка не нужна.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusKm * c
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
