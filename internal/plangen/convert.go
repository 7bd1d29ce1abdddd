package plangen

import (
	"math"
	"strings"
	"time"

	"github.com/curudroid/curudroid/internal/plan"
)

// defaultCommandTimeout bounds commands converted from a GeneratedPlan that
// carries no per-command timeout of its own.
const defaultCommandTimeout = 10

// ToPlan converts a GeneratedPlan's argv-shaped commands into the canonical
// Plan schema the Plan Validator and Executor consume. The generator's
// float risk_estimate (∈[0,1]) becomes the canonical integer risk_score
// (∈[0,10]) via round(risk_estimate * 10), per the two-scale convention
// this system carries across the generator/validator boundary.
func ToPlan(gp *GeneratedPlan, source string, now time.Time) *plan.Plan {
	commands := make([]plan.Command, 0, len(gp.Commands))
	for _, c := range gp.Commands {
		commands = append(commands, plan.Command{
			Type:           plan.CommandTypeShell,
			Command:        strings.Join(c.Argv, " "),
			TimeoutSeconds: defaultCommandTimeout,
		})
	}

	id := strings.TrimSuffix(gp.PlanID, ".json")
	return &plan.Plan{
		SchemaVersion: plan.SchemaVersion,
		ID:            id,
		CreatedAt:     now.UTC().Format(time.RFC3339),
		RiskScore:     int(math.Round(gp.RiskEstimate * 10)),
		Source:        source,
		Commands:      commands,
	}
}
