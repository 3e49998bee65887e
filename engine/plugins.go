package engine

import (
	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/internal/vlog"
	"github.com/metoffice/visiontoolkit/verrors"
)

// PreprocessPlugin normalises source-specific quirks before the generic
// CF Normaliser runs (spec.md §9 "Plugin dispatch (UM, WRF, flight,
// satellite)").
type PreprocessPlugin interface {
	Apply(f *cf.Field) (*cf.Field, error)
}

// PluginRegistry resolves a preprocess-mode name to a PreprocessPlugin.
// Unknown names yield ConfigurationError (spec.md §9).
type PluginRegistry struct {
	plugins map[string]PreprocessPlugin
}

// NewPluginRegistry registers the four named plugins this engine ships
// (spec.md §3 "Supplemented Features").
func NewPluginRegistry() *PluginRegistry {
	return &PluginRegistry{plugins: map[string]PreprocessPlugin{
		"UM":        umPlugin{},
		"WRF":       wrfPlugin{},
		"flight":    flightPlugin{},
		"satellite": satellitePlugin{},
	}}
}

// Lookup returns the named plugin, or a ConfigurationError if name is
// neither empty (meaning "no plugin") nor registered.
func (r *PluginRegistry) Lookup(name string) (PreprocessPlugin, error) {
	if name == "" {
		return nil, nil
	}
	p, ok := r.plugins[name]
	if !ok {
		return nil, verrors.Configuration("engine: unknown preprocess mode %q", name)
	}
	return p, nil
}

// umPlugin handles the Unified Model's output: UM's own writer already
// emits CF-compliant hybrid-height coefficients and calendars, so there is
// nothing to fix up beyond what the generic CF Normaliser already does.
type umPlugin struct{}

func (umPlugin) Apply(f *cf.Field) (*cf.Field, error) {
	vlog.Debugf("engine: UM preprocess plugin: no adjustment required")
	return f, nil
}

// wrfPlugin addresses WRF's staggered horizontal grid and hybrid
// sigma-pressure vertical: WRF's own coordinate variables are already
// unstaggered mass-point values by the time they reach this engine (the
// staggering fix belongs to the upstream WRF post-processor, not here),
// so this plugin's job is narrower than the original tool's
// wrf_extra_compliance_fixes: it only renames the "Time" record
// dimension's bare index coordinate to a time identity the CF Normaliser
// can locate, when present and otherwise unlabelled.
type wrfPlugin struct{}

func (wrfPlugin) Apply(f *cf.Field) (*cf.Field, error) {
	if c, ok := f.DimCoords["Time"]; ok && c.Identity == "" {
		c.Identity = "time"
	}
	vlog.Debugf("engine: WRF preprocess plugin applied")
	return f, nil
}

// flightPlugin normalises aircraft trajectory obs: ensures the vertical
// auxiliary coordinate is identified as "air_pressure" (flight data
// conventionally reports pressure altitude), the default
// --vertical-colocation-coord.
type flightPlugin struct{}

func (flightPlugin) Apply(f *cf.Field) (*cf.Field, error) {
	for _, c := range f.AuxCoords {
		if c.Identity == "altitude" || c.Identity == "pressure" {
			c.Identity = "air_pressure"
		}
	}
	vlog.Debugf("engine: flight preprocess plugin applied")
	return f, nil
}

// satellitePlugin marks a swath as vertical-free (spec.md §4.4 "no-vertical
// mode"): its vertical is resolved by an external averaging kernel, not
// this engine's spatial co-locator, so any vertical auxiliary coordinate
// present is dropped rather than interpolated against.
type satellitePlugin struct{}

func (satellitePlugin) Apply(f *cf.Field) (*cf.Field, error) {
	for key, c := range f.AuxCoords {
		if c.Identity == "air_pressure" || c.Identity == "altitude" {
			delete(f.AuxCoords, key)
		}
	}
	f.Properties["swath"] = "true"
	vlog.Debugf("engine: satellite preprocess plugin applied")
	return f, nil
}
