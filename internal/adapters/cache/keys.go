package cache

import (
	"pickup-trip-service/internal/domain"

	"github.com/mmcloughlin/geohash"
)

// keyPrecision is the geohash length used for cache keys. Twelve characters
// resolve to a cell of a few centimetres, so distinct pickup points never share
// a key in practice.
const keyPrecision = 12

// PointKey returns the geohash identifying a coordinate in the cache.
func PointKey(c domain.Coordinates) string {
	return geohash.EncodeWithPrecision(c.Lat, c.Lon, keyPrecision)
}

// PairKey returns the cache key of a directed leg.
func PairKey(from, to domain.Coordinates) string {
	return PointKey(from) + ":" + PointKey(to)
}
