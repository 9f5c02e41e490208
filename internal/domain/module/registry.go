package module

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/loesoe/cortex/pkg/logger"
	"github.com/loesoe/cortex/pkg/metrics"
)

// Registry is a name-keyed module map populated once at process start and
// read-only afterwards, so unsynchronized concurrent reads are safe.
type Registry struct {
	modules map[string]Module
	log     logger.Logger
}

// RegistryOption applies a configuration option to the Registry.
type RegistryOption func(*Registry)

// WithLogger sets the logger used when a factory is skipped.
func WithLogger(log logger.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry builds a registry from the given factories. A failing
// factory is skipped so the registry is always constructible, even empty.
func NewRegistry(factories []Factory, opts ...RegistryOption) *Registry {
	r := &Registry{modules: make(map[string]Module)}

	for _, opt := range opts {
		opt(r)
	}

	for _, f := range factories {
		m, err := f()
		if err == nil {
			err = r.Register(m)
		}
		if err != nil && r.log != nil {
			r.log.Warn(context.Background(), "skipping scoring module factory", logger.Error(err))
		}
	}
	return r
}

// DefaultFactories lists the built-in reference modules.
func DefaultFactories() []Factory {
	return []Factory{
		func() (Module, error) { return &DummyScore{}, nil },
		func() (Module, error) { return &ExplainPreferenceScore{}, nil },
		func() (Module, error) { return &PatternsVolumeAnomaly{}, nil },
	}
}

// Register adds a module by its unique name, replacing any previous one.
func (r *Registry) Register(m Module) error {
	if m == nil || m.Name() == "" {
		return fmt.Errorf("register module: %w", ErrUnnamedModule)
	}
	r.modules[m.Name()] = m
	return nil
}

// Get returns the module registered under name.
func (r *Registry) Get(name string) (Module, bool) {
	m, ok := r.modules[name]
	return m, ok
}

// Names returns registered module names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.modules))
	for n := range r.modules {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Snapshot returns a shallow copy of the registry map.
func (r *Registry) Snapshot() map[string]Module {
	out := make(map[string]Module, len(r.modules))
	for n, m := range r.modules {
		out[n] = m
	}
	return out
}

// Invoke runs one module at the fault boundary: a panic or error becomes
// a status=error result instead of crashing the caller.
func (r *Registry) Invoke(name string, mctx Context) (res Result) {
	m, ok := r.modules[name]
	if !ok {
		return faultResult(name, "", mctx, fmt.Errorf("%w: %s", ErrModuleNotFound, name))
	}

	start := time.Now()
	defer func() {
		metrics.RecordModuleComputeLatency(float64(time.Since(start).Milliseconds()))
		if rec := recover(); rec != nil {
			metrics.RecordModuleFault()
			res = faultResult(m.Name(), m.Version(), mctx, fmt.Errorf("module panic: %v", rec))
		}
	}()

	res, err := m.Compute(mctx)
	if err != nil {
		metrics.RecordModuleFault()
		return faultResult(m.Name(), m.Version(), mctx, err)
	}
	if res.Explain.Text == "" {
		metrics.RecordModuleFault()
		return faultResult(m.Name(), m.Version(), mctx, ErrMissingExplain)
	}
	return res
}

// InvokeAll runs every registered module in name order.
func (r *Registry) InvokeAll(mctx Context) []Result {
	names := r.Names()
	results := make([]Result, 0, len(names))
	for _, name := range names {
		results = append(results, r.Invoke(name, mctx))
	}
	return results
}

func faultResult(name, version string, mctx Context, err error) Result {
	return Result{
		Module:     name,
		Version:    version,
		ComputedAt: mctx.Now,
		Kind:       KindScore,
		Status:     StatusError,
		Inputs:     []InputRef{{Source: SourceCustom, Note: "module fault"}},
		Explain: Explain{
			Text:  fmt.Sprintf("module %q failed: %v", name, err),
			Debug: map[string]any{"error": err.Error()},
		},
	}
}
