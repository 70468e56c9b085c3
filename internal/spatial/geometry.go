package spatial

import (
	"github.com/jengzang/measurement-map-go/internal/models"
)

// MetersPerDegree is the fixed metre-to-degree approximation used for padding.
// It ignores latitude, so padding in longitude shrinks toward the poles.
const MetersPerDegree = 111000.0

// Point represents a 2D point with latitude and longitude
type Point struct {
	Lat float64
	Lon float64
}

// PointsOf extracts coordinates from measurement records
func PointsOf(records []models.MeasurementPoint) []Point {
	points := make([]Point, len(records))
	for i, r := range records {
		points[i] = Point{Lat: r.Lat, Lon: r.Lon}
	}
	return points
}

// BoundingBox calculates the bounding box of a set of points
// Returns (minLat, minLon, maxLat, maxLon)
func BoundingBox(points []Point) (float64, float64, float64, float64) {
	if len(points) == 0 {
		return 0, 0, 0, 0
	}

	minLat, maxLat := points[0].Lat, points[0].Lat
	minLon, maxLon := points[0].Lon, points[0].Lon

	for _, p := range points[1:] {
		if p.Lat < minLat {
			minLat = p.Lat
		}
		if p.Lat > maxLat {
			maxLat = p.Lat
		}
		if p.Lon < minLon {
			minLon = p.Lon
		}
		if p.Lon > maxLon {
			maxLon = p.Lon
		}
	}

	return minLat, minLon, maxLat, maxLon
}

// PaddingDegrees converts a metre margin to decimal degrees
func PaddingDegrees(paddingMeters float64) float64 {
	return paddingMeters / MetersPerDegree
}

// ComputeViewport returns the bounding box of points expanded by the padding
// on every side. A single point yields a padding-only viewport.
func ComputeViewport(points []Point, paddingMeters float64) models.Viewport {
	minLat, minLon, maxLat, maxLon := BoundingBox(points)
	padding := PaddingDegrees(paddingMeters)

	return models.Viewport{
		MinLon: minLon - padding,
		MaxLon: maxLon + padding,
		MinLat: minLat - padding,
		MaxLat: maxLat + padding,
	}
}

// Contains reports whether p lies inside vp, edges included
func Contains(vp models.Viewport, p Point) bool {
	return p.Lon >= vp.MinLon && p.Lon <= vp.MaxLon &&
		p.Lat >= vp.MinLat && p.Lat <= vp.MaxLat
}

// Span returns the viewport width and height in degrees
func Span(vp models.Viewport) (lonSpan, latSpan float64) {
	return vp.MaxLon - vp.MinLon, vp.MaxLat - vp.MinLat
}

// PathLength calculates the total length of a path (sequence of points) in meters
func PathLength(points []Point) float64 {
	if len(points) < 2 {
		return 0
	}

	var totalDist float64
	for i := 1; i < len(points); i++ {
		dist := HaversineDistance(points[i-1].Lat, points[i-1].Lon, points[i].Lat, points[i].Lon)
		totalDist += dist
	}

	return totalDist
}
