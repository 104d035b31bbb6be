// Package keys builds cache key names for memoized nearby-query results.
// Memoizing is legal because Query is a pure function of its inputs; the
// reference instant is folded in truncated to the minute.
package keys

import (
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/dealmapper/happyhour/internal/core/model"
)

const queryPrefix = "nearby"

// QueryKey identifies one memoized query result by the H3 cell of the query
// point, the point itself rounded to ~11 m, the radius, the minute of the
// reference instant, and the per-bucket limit. The cell keeps invalidation
// affinity; the rounded point keeps two queries in the same cell from
// sharing a body with wrong distances.
func QueryKey(cell string, point model.Coordinate, radiusKm float64, at time.Time, limit int) string {
	lat := strconv.FormatFloat(point.Lat, 'f', 4, 64)
	lon := strconv.FormatFloat(point.Lon, 'f', 4, 64)
	radius := strconv.FormatFloat(radiusKm, 'f', 3, 64)
	minute := at.Truncate(time.Minute).Unix()
	plain := fmt.Sprintf("%s:%s:p=%s,%s:r=%s:t=%d:l=%d", queryPrefix, cell, lat, lon, radius, minute, limit)
	return fmt.Sprintf("%s:f=%016x", plain, xxhash.Sum64String(plain))
}

// CellSetKey names the Redis set tracking which query keys touch a cell,
// so invalidation can target exactly the affected neighborhoods.
func CellSetKey(cell string) string {
	return "cellkeys:" + cell
}
