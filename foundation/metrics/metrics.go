// Package metrics maintains the set of process metrics the node records and
// exposes them over http.
package metrics

import (
	"net/http"

	"github.com/rcrowley/go-metrics"
	"github.com/rcrowley/go-metrics/exp"
)

// Set of metrics recorded by the blockchain packages and the web layer.
var (
	MiningAttempts     = metrics.GetOrRegisterMeter("mining/attempts", metrics.DefaultRegistry)
	MiningDuration     = metrics.GetOrRegisterTimer("mining/duration", metrics.DefaultRegistry)
	MiningDifficulty   = metrics.GetOrRegisterGauge("mining/difficulty", metrics.DefaultRegistry)
	BlocksMined        = metrics.GetOrRegisterCounter("blocks/mined", metrics.DefaultRegistry)
	BlocksAccepted     = metrics.GetOrRegisterCounter("blocks/accepted", metrics.DefaultRegistry)
	ProductionFailures = metrics.GetOrRegisterCounter("production/failures", metrics.DefaultRegistry)
	ProductionSkipped  = metrics.GetOrRegisterCounter("production/skipped", metrics.DefaultRegistry)
	Requests           = metrics.GetOrRegisterCounter("web/requests", metrics.DefaultRegistry)
	Errors             = metrics.GetOrRegisterCounter("web/errors", metrics.DefaultRegistry)
	Panics             = metrics.GetOrRegisterCounter("web/panics", metrics.DefaultRegistry)
)

// Handler returns a handler that writes the registered metrics as JSON in
// the expvar format.
func Handler() http.Handler {
	return exp.ExpHandler(metrics.DefaultRegistry)
}
