// Package engine implements the Driver (spec.md §2 "Control flow") that
// orchestrates C1-C6 per observation file and assembles the per-file
// results into the persisted output.
package engine

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/metoffice/visiontoolkit/bbox"
	"github.com/metoffice/visiontoolkit/cf"
	"github.com/metoffice/visiontoolkit/colocate"
	"github.com/metoffice/visiontoolkit/config"
	"github.com/metoffice/visiontoolkit/internal/cfio"
	"github.com/metoffice/visiontoolkit/internal/lazyarray"
	"github.com/metoffice/visiontoolkit/internal/regrid"
	"github.com/metoffice/visiontoolkit/internal/vlog"
	"github.com/metoffice/visiontoolkit/output"
	"github.com/metoffice/visiontoolkit/provenance"
	"github.com/metoffice/visiontoolkit/verrors"
)

// canonical identities the engine locates coordinates by, independent of
// whatever raw dimension/variable names a given input file uses.
const (
	identityLongitude = "longitude"
	identityLatitude  = "latitude"
)

// Engine holds the immutable configuration and long-lived collaborators for
// one run: the plugin registry, the regridder, and the run's metrics and
// provenance sinks (spec.md §9 "replace the global configuration
// dictionary" — every component here receives cfg by reference, never a
// package-level global).
type Engine struct {
	cfg       *config.EngineConfig
	plugins   *PluginRegistry
	regridder regrid.Regridder
	metrics   *Metrics
	ledger    *provenance.Ledger
}

// New constructs an Engine, opening the optional provenance ledger.
func New(cfg *config.EngineConfig) (*Engine, error) {
	ledger, err := provenance.Open(cfg.ProvenanceDBPath)
	if err != nil {
		return nil, verrors.Internal("engine: opening provenance ledger %s: %v", cfg.ProvenanceDBPath, err)
	}
	return &Engine{
		cfg:       cfg,
		plugins:   NewPluginRegistry(),
		regridder: regrid.Structured{},
		metrics:   NewMetrics(),
		ledger:    ledger,
	}, nil
}

// Close releases the engine's provenance ledger, if one is open.
func (e *Engine) Close() error { return e.ledger.Close() }

// Run executes the full pipeline: load the model once, co-locate every obs
// file onto it in turn, assemble the per-file results, and write the output
// (spec.md §2, §4.6).
func (e *Engine) Run() error {
	model, err := e.loadModel()
	if err != nil {
		return err
	}

	paths, err := filepath.Glob(e.cfg.ObsDataPath)
	if err != nil {
		return verrors.DataReading("engine: invalid obs glob %q: %v", e.cfg.ObsDataPath, err)
	}
	if len(paths) == 0 {
		return verrors.DataReading("engine: no files matched %q", e.cfg.ObsDataPath)
	}
	sort.Strings(paths)

	results := make([]*cf.Field, 0, len(paths))
	for _, p := range paths {
		start := time.Now()
		result, samples, procErr := e.processOne(p, model)
		duration := time.Since(start)

		masked := 0
		if procErr == nil {
			summary, sumErr := output.Compute(result)
			if sumErr != nil {
				vlog.Errorf("engine: masked-sample summary for %s failed: %v", p, sumErr)
			} else {
				masked = summary.Masked
				vlog.Infof("engine: %s summary: %d/%d masked, P50=%.3g P85=%.3g P98=%.3g",
					p, summary.Masked, summary.Total, summary.P50, summary.P85, summary.P98)
			}
		}

		if ledgerErr := e.ledger.RecordRun(p, samples, masked, procErr); ledgerErr != nil {
			vlog.Errorf("engine: provenance write for %s failed: %v", p, ledgerErr)
		}
		if procErr != nil {
			// Per-file errors are fatal (spec.md §5 "Cancellation/timeouts":
			// the engine does not continue with remaining files).
			return fmt.Errorf("engine: processing %s: %w", p, procErr)
		}
		e.metrics.RecordFile(samples, duration)
		results = append(results, result)
		vlog.Infof("engine: co-located %s (%d samples) in %s", p, samples, duration)
	}

	if err := e.writeResults(results); err != nil {
		return err
	}

	if err := e.metrics.Push(e.cfg.PushgatewayURL, "visioncolocate"); err != nil {
		vlog.Errorf("engine: pushgateway push failed: %v", err)
	}
	return nil
}

// loadModel reads the model field once, applies its preprocessing plugin,
// attaches orography if configured, and materialises any parametric
// vertical coordinate up front (spec.md §5 "Shared state": resolved here
// as strategy (a), compute once on a canonical copy, since the model field
// is read exactly once per run and every obs file's defensive copy —
// engine.processOne's workingModel — starts from this already-normalised
// state rather than re-deriving it per file).
func (e *Engine) loadModel() (*cf.Field, error) {
	model, err := cfio.ReadField(e.cfg.ModelDataPath, e.cfg.ChosenModelField)
	if err != nil {
		return nil, err
	}

	plugin, err := e.plugins.Lookup(e.cfg.PreprocessModeMod)
	if err != nil {
		return nil, err
	}
	if plugin != nil {
		if model, err = plugin.Apply(model); err != nil {
			return nil, err
		}
	}

	if e.cfg.Orography != "" {
		orogField, err := cfio.ReadField(e.cfg.Orography, "orog")
		if err != nil {
			return nil, err
		}
		model.Ancillary["orog"] = &cf.Construct{
			Identity: "orog",
			Role:     cf.RoleDomainAncillary,
			Units:    orogField.Units,
			Axes:     orogField.AxisOrder,
			Data:     orogField.Data,
		}
	}

	for _, ref := range model.CoordRefs {
		if ref.StandardName == cf.HybridHeight || ref.StandardName == cf.HybridSigmaPressure {
			if _, err := cf.ComputeParametricVertical(model); err != nil {
				return nil, err
			}
			break
		}
	}

	// Metadata constructs are persisted early to stabilise identity lookups
	// (spec.md §5 "Suspension/blocking" (a)); the data array stays lazy
	// until bounding-box reduction.
	if err := model.Persist(); err != nil {
		return nil, err
	}
	return model, nil
}

// processOne runs C1(partial)->C2->C3->C4->C5 for a single obs file against
// the already-loaded model, returning the co-located result field and its
// sample count.
func (e *Engine) processOne(path string, model *cf.Field) (*cf.Field, int, error) {
	obs, err := cfio.ReadField(path, e.cfg.ChosenObsField)
	if err != nil {
		return nil, 0, err
	}

	isSatellite := e.cfg.PreprocessModeObs == "satellite"
	if plugin, err := e.plugins.Lookup(e.cfg.PreprocessModeObs); err != nil {
		return nil, 0, err
	} else if plugin != nil {
		if obs, err = plugin.Apply(obs); err != nil {
			return nil, 0, err
		}
	}

	workingModel := model.Copy()

	modelT, err := cf.LocateTime(workingModel)
	if err != nil {
		return nil, 0, err
	}
	obsT, err := cf.LocateTime(obs)
	if err != nil {
		return nil, 0, err
	}
	newStart, err := parseStartOverride(e.cfg.StartTimeOverride)
	if err != nil {
		return nil, 0, err
	}

	outModelT, outObsT, targetUnits, commonCal, err := cf.ReconcileTime(obsT, modelT, newStart)
	if err != nil {
		return nil, 0, err
	}

	tKey := timeKey(workingModel, modelT)
	workingModel.DimCoords[tKey] = &cf.Construct{
		Identity: modelT.Identity, Role: modelT.Role, Units: targetUnits.String(),
		Calendar: commonCal, Axes: modelT.Axes,
		Data: lazyarray.NewEager(outModelT, modelT.Shape()),
	}
	obsTKey := timeKey(obs, obsT)
	obs.AuxCoords[obsTKey] = &cf.Construct{
		Identity: obsT.Identity, Role: obsT.Role, Units: targetUnits.String(),
		Calendar: commonCal, Axes: obsT.Axes,
		Data: lazyarray.NewEager(outObsT, obsT.Shape()),
	}

	if err := cf.ValidateTimeWindow(outObsT, outModelT, targetUnits, commonCal); err != nil {
		return nil, 0, err
	}

	var override config.SourceAxes
	if e.cfg.SourceAxes != nil {
		override = *e.cfg.SourceAxes
	}
	xKey, err := axisKeyForIdentity(workingModel, []string{identityLongitude}, override.X)
	if err != nil {
		return nil, 0, err
	}
	yKey, err := axisKeyForIdentity(workingModel, []string{identityLatitude}, override.Y)
	if err != nil {
		return nil, 0, err
	}

	hasVertical := false
	if _, ok := obs.AuxCoords[e.cfg.VerticalCoord]; ok {
		hasVertical = true
	}
	zKey, zOK := resolveVerticalKey(workingModel, e.cfg.VerticalCoord)
	axes := bbox.AxisKeys{X: xKey, Y: yKey, T: tKey}
	if zOK {
		axes.Z = zKey
	}

	obsBounds, err := bbox.ObsBounds(obs, identityLongitude, identityLatitude, e.cfg.VerticalCoord, obsTKey, hasVertical)
	if err != nil {
		return nil, 0, err
	}

	verticalDescending := e.cfg.VerticalCoord == "air_pressure"
	reduced, err := bbox.Reduce(workingModel, obsBounds, e.cfg.HaloSize, axes, verticalDescending)
	if err != nil {
		return nil, 0, err
	}

	obsX, err := obs.AuxCoords[identityLongitude].Data.Data()
	if err != nil {
		return nil, 0, err
	}
	obsY, err := obs.AuxCoords[identityLatitude].Data.Data()
	if err != nil {
		return nil, 0, err
	}
	loc := colocate.Locations{X: obsX, Y: obsY}
	if hasVertical {
		loc.Z, err = obs.AuxCoords[e.cfg.VerticalCoord].Data.Data()
		if err != nil {
			return nil, 0, err
		}
	}

	level := -1
	if isSatellite && zOK {
		level = e.cfg.SatelliteLevel
	}
	lnZ := e.cfg.VerticalCoord == "air_pressure"
	method := regrid.Method(e.cfg.SpatialMethod)

	spatial, err := colocate.Spatial(reduced, axes, loc, method, lnZ, true, level, e.regridder)
	if err != nil {
		return nil, 0, err
	}

	reducedModelT, err := reduced.DimCoords[tKey].Data.Data()
	if err != nil {
		return nil, 0, err
	}
	temporal, err := colocate.Temporal(reducedModelT, spatial, outObsT)
	if err != nil {
		return nil, 0, err
	}

	result := output.Assemble(temporal, obs, model, e.cfg.HistoryMessage)
	sampleAxis := obs.AxisOrder[0]
	return result, obs.AxisSize[sampleAxis], nil
}

// writeResults assembles the per-file results into the configured output.
// Trajectory obs are compressed to a CRA DSG field (spec.md §4.6); a
// satellite run's swaths are concatenated along the sample axis instead,
// as one logical feature with no trajectory_id/row_size bookkeeping.
func (e *Engine) writeResults(results []*cf.Field) error {
	if len(results) == 0 {
		return verrors.Internal("engine: no results to write")
	}
	sampleAxis := results[0].AxisOrder[0]
	timeIdentity, err := resolveResultTimeIdentity(results[0])
	if err != nil {
		return err
	}

	cra := output.NewCRA(sampleAxis, timeIdentity)
	for _, r := range results {
		if err := cra.Add(r); err != nil {
			return err
		}
	}
	compressed, err := cra.Compress()
	if err != nil {
		return err
	}

	outPath := filepath.Join(e.cfg.OutputsDir, "cra_"+e.cfg.OutputFileName)
	if e.cfg.PreprocessModeObs == "satellite" {
		return cfio.WriteField(outPath, compressed.Field)
	}
	return cfio.WriteCRA(outPath, compressed, "trajectory")
}

func resolveResultTimeIdentity(f *cf.Field) (string, error) {
	t, err := cf.LocateTime(f)
	if err != nil {
		return "", err
	}
	return t.Identity, nil
}

// parseStartOverride parses spec.md §6's --start-time-override RFC3339
// value into the civil datetime ReconcileTime needs. An empty string means
// no override.
func parseStartOverride(s string) (*cf.DateTime, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil, verrors.Configuration("engine: --start-time-override %q is not a parseable RFC3339 datetime: %v", s, err)
	}
	t = t.UTC()
	return &cf.DateTime{
		Year: t.Year(), Month: int(t.Month()), Day: t.Day(),
		Hour: t.Hour(), Minute: t.Minute(), Second: float64(t.Second()),
	}, nil
}

// timeKey returns the map key under which t is actually stored on f: its
// DimCoords key if found there (the model's usual case), otherwise t's own
// identity (the obs case, whose time is auxiliary and keyed by identity per
// the CF Dataset Reader's convention).
func timeKey(f *cf.Field, t *cf.Construct) string {
	for k, v := range f.DimCoords {
		if v == t {
			return k
		}
	}
	return t.Identity
}

// axisKeyForIdentity resolves a model domain-axis key by matching dimension
// coordinate identity, honouring an explicit --source-axes override for
// fields where X/Y cannot be inferred from a 1-D dimension coordinate
// (spec.md §4.4, §6).
func axisKeyForIdentity(f *cf.Field, identities []string, override string) (string, error) {
	if override != "" {
		if _, ok := f.DimCoords[override]; ok {
			return override, nil
		}
		return "", verrors.Configuration("engine: --source-axes key %q is not a dimension coordinate of the model field", override)
	}
	for key, c := range f.DimCoords {
		for _, id := range identities {
			if c.Identity == id {
				return key, nil
			}
		}
	}
	return "", verrors.CFCompliance("engine: no dimension coordinate with identity in %v located", identities)
}

// resolveVerticalKey finds the model construct key for the vertical
// identity: a dimension coordinate's own key in the primary (time-invariant
// Z) strategy, or the auxiliary coordinate's identity key — which is also
// its map key, per the CF Dataset Reader's convention — in the fallback
// (4-D Z) strategy (spec.md §4.1, §4.4).
func resolveVerticalKey(f *cf.Field, identity string) (string, bool) {
	for key, c := range f.DimCoords {
		if c.Identity == identity {
			return key, true
		}
	}
	if _, ok := f.AuxCoords[identity]; ok {
		return identity, true
	}
	return "", false
}
