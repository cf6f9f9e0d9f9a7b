package grove

import (
	"time"

	"go.uber.org/zap"
)

// nopLogger backs entities and components that are not attached to a scene.
var nopLogger = zap.NewNop()

// debugStats holds per-frame timing and culling metrics.
// Only populated when Scene.debug is true.
type debugStats struct {
	updateTime  time.Duration
	renderTime  time.Duration
	updated     int
	visible     int
	culled      int
	opaque      int
	transparent int
}

// debugLog writes the frame's stats at debug level.
func (s *Scene) debugLog(stats debugStats) {
	if !s.debug {
		return
	}
	s.logger.Debug("frame",
		zap.Uint64("frame", s.frame),
		zap.Duration("update", stats.updateTime),
		zap.Duration("render", stats.renderTime),
		zap.Int("entities_updated", stats.updated),
		zap.Int("visible", stats.visible),
		zap.Int("culled", stats.culled),
		zap.Int("opaque", stats.opaque),
		zap.Int("transparent", stats.transparent),
	)
}

// debugCheckTreeDepth warns if the hierarchy depth exceeds the threshold.
const debugMaxTreeDepth = 32

func (s *Scene) debugCheckTreeDepth(e *Entity) {
	depth := 0
	for p := e; p != nil; p = p.parent {
		depth++
	}
	if depth > debugMaxTreeDepth {
		s.logger.Warn("hierarchy too deep",
			zap.String("entity", e.Name), zap.Int("depth", depth), zap.Int("threshold", debugMaxTreeDepth))
	}
}

// debugCheckChildCount warns if an entity has more than 1000 children.
const debugMaxChildCount = 1000

func (s *Scene) debugCheckChildCount(e *Entity) {
	if len(e.children) > debugMaxChildCount {
		s.logger.Warn("too many children",
			zap.String("entity", e.Name), zap.Int("children", len(e.children)), zap.Int("threshold", debugMaxChildCount))
	}
}
