package steps

import (
	"fmt"
	"slices"
	"sync"
)

var (
	regMu    sync.RWMutex
	registry = map[string]Factory{}
)

func Register(name string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	registry[name] = f
}

func Get(name string) (Factory, bool) {
	regMu.RLock()
	defer regMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Names lists registered steps alphabetically.
func Names() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}

// Build creates the named step from its config section.
func Build(name string, env Env) (Step, error) {
	f, ok := Get(name)
	if !ok {
		return nil, fmt.Errorf("unknown step %q", name)
	}
	raw := env.Cfg.Steps[name]
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	st, err := f(env.withStep(name), raw)
	if err != nil {
		return nil, fmt.Errorf("init step %s: %w", name, err)
	}
	return st, nil
}

func (e Env) withStep(name string) Env {
	e.Log = e.Log.With().Str("step", name).Logger()
	return e
}
