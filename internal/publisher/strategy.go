package publisher

import (
	"log/slog"
)

// Strategy is one independent attempt at a publish step. Strategies are
// tried in order until one succeeds; each must be safe to run after the
// previous one failed partway.
type Strategy struct {
	Name string
	Run  func() error
}

// runChain tries each strategy in sequence and reports whether any
// succeeded. Failures are expected (selectors guess at a third-party
// site's current markup) and logged at debug only.
func runChain(logger *slog.Logger, step string, strategies []Strategy) bool {
	for _, s := range strategies {
		if err := s.Run(); err != nil {
			logger.Debug("strategy failed", "step", step, "strategy", s.Name, "error", err)
			continue
		}
		logger.Debug("strategy succeeded", "step", step, "strategy", s.Name)
		return true
	}
	logger.Warn("all strategies exhausted", "step", step, "tried", len(strategies))
	return false
}
