// activity-lint flags store, index and resolver calls made once per loop iteration.
package main

import (
	"golang.org/x/tools/go/analysis/multichecker"

	"github.com/ersonp/activity-core/tools/activity-lint/analyzers"
)

func main() {
	multichecker.Main(analyzers.All()...)
}
