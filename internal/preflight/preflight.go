package preflight

import (
	"context"

	"requestarr/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes the checks applicable to cfg. The media server check runs
// for the type the application reports; it is skipped when the application
// itself is unreachable.
func RunAll(ctx context.Context, cfg *config.Config, app Application) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{CheckDirectoryAccess("State directory", cfg.Paths.StateDir)}

	appResult, kind := CheckApplication(ctx, app)
	results = append(results, appResult)
	if !appResult.Passed {
		return results
	}

	if kind.Known() {
		results = append(results, CheckMediaServer(ctx, cfg, kind))
	}
	return results
}

// Passed reports whether every result passed.
func Passed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return false
		}
	}
	return true
}
