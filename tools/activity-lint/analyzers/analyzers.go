// Package analyzers lists the activity-lint analyzers.
package analyzers

import (
	"golang.org/x/tools/go/analysis"

	"github.com/ersonp/activity-core/tools/activity-lint/analyzers/loopcall"
)

// All returns all analyzers to run.
func All() []*analysis.Analyzer {
	return []*analysis.Analyzer{
		loopcall.Analyzer,
	}
}
