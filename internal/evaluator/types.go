// Package evaluator implements the two independent risk gates -- Supervisor
// and Curupira -- that sit between the Plan Generator and the Executor and
// also gate Reactive Autonomy. Each is a self-contained threshold check that
// never mutates shared state beyond one observability log entry and one
// metric increment per evaluation.
package evaluator

import "encoding/json"

const (
	MaxModeNone   = "none"
	MaxModeDryRun = "dry-run"
)

// Decision is the outcome of one evaluation.
type Decision struct {
	Allowed bool
	Reason  string
	MaxMode string
}

// riskFraction normalizes a raw risk_score value (as decoded from JSON, so
// it may be an int, a float64, a json.Number, or absent/non-numeric) into a
// 0..1 fraction. ok is false if score is missing or not a number, mirroring
// the original runtime's "missing or non-numeric risk_score blocks" rule.
func riskFraction(score interface{}) (float64, bool) {
	switch v := score.(type) {
	case nil:
		return 0, false
	case int:
		return float64(v) / 10.0, true
	case int64:
		return float64(v) / 10.0, true
	case float64:
		return v / 10.0, true
	case float32:
		return float64(v) / 10.0, true
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return 0, false
		}
		return f / 10.0, true
	default:
		return 0, false
	}
}
