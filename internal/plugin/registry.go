package plugin

import (
	"fmt"
	"os"
	"sort"
)

// Registry is a read-only, compile-time set of plugins, keyed by plugin_id.
// Unlike the Python original's module-discovery pass, plugins are registered
// at construction and the set never changes afterward.
type Registry struct {
	plugins map[string]Plugin
	order   []string
}

// NewRegistry builds a Registry from a fixed plugin set, sorted by ID to
// match the deterministic ordering `sorted(pkgutil.iter_modules(...))` gave
// the original discovery pass.
func NewRegistry(plugins ...Plugin) *Registry {
	r := &Registry{plugins: make(map[string]Plugin, len(plugins))}
	for _, p := range plugins {
		r.plugins[p.ID()] = p
		r.order = append(r.order, p.ID())
	}
	sort.Strings(r.order)
	return r
}

// Lookup returns the plugin registered for intentName, if any.
func (r *Registry) Lookup(intentName string) (Plugin, bool) {
	p, ok := r.plugins[intentName]
	return p, ok
}

// Validate checks every registered plugin's contract: a non-empty id and
// version, required env vars present in the environment, and a probe Run
// call whose result satisfies the RunResult contract.
func (r *Registry) Validate() []ValidationResult {
	results := make([]ValidationResult, 0, len(r.order))
	for _, id := range r.order {
		results = append(results, validateOne(r.plugins[id]))
	}
	return results
}

func validateOne(p Plugin) ValidationResult {
	id := p.ID()
	if id == "" {
		return ValidationResult{PluginID: id, Status: StatusError, Reason: "plugin_id inválido"}
	}
	if p.Version() == "" {
		return ValidationResult{PluginID: id, Status: StatusError, Reason: "version inválido"}
	}

	var missing []string
	for _, env := range p.RequiredEnvVars() {
		if os.Getenv(env) == "" {
			missing = append(missing, env)
		}
	}
	if len(missing) > 0 {
		return ValidationResult{
			PluginID: id, Status: StatusDisabled,
			Reason: fmt.Sprintf("faltam env vars: %v", missing),
		}
	}

	result, err := p.Run(map[string]interface{}{"intent": id, "_contract_check": true})
	if err != nil {
		return ValidationResult{PluginID: id, Status: StatusError, Reason: fmt.Sprintf("run() falhou na validação: %v", err)}
	}
	if reason, ok := validResult(result); !ok {
		return ValidationResult{PluginID: id, Status: StatusError, Reason: reason}
	}
	return ValidationResult{PluginID: id, Status: StatusOK, Reason: "contrato válido"}
}

func validResult(result RunResult) (string, bool) {
	for _, cmd := range result.Commands {
		if len(cmd.Argv) == 0 {
			return "comando.argv deve ser list[str] não vazio", false
		}
		for _, token := range cmd.Argv {
			if token == "" {
				return "comando.argv deve conter apenas strings não vazias", false
			}
		}
	}
	return "", true
}
