package scene

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Feature properties read by the loader.
const (
	PropertyName    = "name"
	PropertyFloor   = "floor"
	PropertyCeiling = "ceiling"
)

// DefaultCeiling is the ceiling of obstacles whose feature sets none.
const DefaultCeiling = 1e6

// LoadObstacles loads every *.geojson file in dir. Files that cannot be read
// or parsed are logged and skipped.
func LoadObstacles(dir string, logger *zap.Logger) ([]Obstacle, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := filepath.Glob(filepath.Join(dir, "*.geojson"))
	if err != nil {
		return nil, err
	}

	logger.Info("loading obstacles", zap.String("dir", dir), zap.Int("files", len(files)))

	var all []Obstacle
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			logger.Warn("failed to read obstacle file", zap.String("file", file), zap.Error(err))
			continue
		}
		obstacles, err := ParseObstacles(data)
		if err != nil {
			logger.Warn("failed to parse obstacle file", zap.String("file", file), zap.Error(err))
			continue
		}
		logger.Debug("obstacle file loaded",
			zap.String("file", filepath.Base(file)),
			zap.Int("obstacles", len(obstacles)))
		all = append(all, obstacles...)
	}

	logger.Info("obstacles loaded", zap.Int("total", len(all)))
	return all, nil
}

// ParseObstacles decodes a GeoJSON feature collection. Polygon and
// MultiPolygon features become obstacles; other geometry is ignored.
func ParseObstacles(data []byte) ([]Obstacle, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	var obstacles []Obstacle
	for i, f := range fc.Features {
		name := f.Properties.MustString(PropertyName, fmt.Sprintf("feature-%d", i))
		floor := f.Properties.MustFloat64(PropertyFloor, 0)
		ceiling := f.Properties.MustFloat64(PropertyCeiling, DefaultCeiling)

		switch g := f.Geometry.(type) {
		case orb.Polygon:
			obstacles = append(obstacles, Obstacle{Name: name, Footprint: g, Floor: floor, Ceiling: ceiling})
		case orb.MultiPolygon:
			for j, p := range g {
				obstacles = append(obstacles, Obstacle{
					Name:      fmt.Sprintf("%s/%d", name, j),
					Footprint: p,
					Floor:     floor,
					Ceiling:   ceiling,
				})
			}
		}
	}
	return obstacles, nil
}
