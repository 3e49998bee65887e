// Package config builds the immutable EngineConfig the driver and every
// component receive a borrowed reference to (spec.md §9 "replace the
// global configuration dictionary"). Layering follows spec.md §6: defaults
// → JSON config file → CLI flags, flags always winning — the same
// precedence order as viper's native flag/config/default layering, bound
// the way the richest CLI-layering repo in the pack wires it
// (inmaputil's viper.Viper + pflag.FlagSet + cobra command tree).
package config

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/metoffice/visiontoolkit/verrors"
)

// SourceAxes names the X/Y construct keys for a field where they can't be
// inferred from 1-D dimension coordinates (spec.md §6 "--source-axes").
type SourceAxes struct {
	X string `json:"X"`
	Y string `json:"Y"`
}

// EngineConfig is the fully resolved, immutable configuration for one
// engine run (spec.md §6).
type EngineConfig struct {
	ObsDataPath       string
	ModelDataPath     string
	ChosenObsField    string
	ChosenModelField  string
	PreprocessModeObs string // "", "flight", "satellite"
	PreprocessModeMod string // "", "UM", "WRF"
	Orography         string
	StartTimeOverride string // RFC3339; empty means no override
	HaloSize          int
	SpatialMethod     string // "linear", "nearest"
	VerticalCoord     string
	SourceAxes        *SourceAxes
	OutputsDir        string
	OutputFileName    string
	HistoryMessage    string
	SatelliteLevel    int    // representative pressure-level index for the satellite vertical collapse (spec.md §9 open question, resolved in DESIGN.md)
	ProvenanceDBPath  string // "" disables the provenance ledger
	PushgatewayURL    string // "" disables the metrics push
	SelfCheck         bool
}

func defaults() *EngineConfig {
	return &EngineConfig{
		HaloSize:         1,
		SpatialMethod:    "linear",
		VerticalCoord:    "air_pressure",
		OutputsDir:       ".",
		OutputFileName:   "colocated.nc",
		HistoryMessage:   "co-located by visiontoolkit",
		SatelliteLevel:   10,
		ProvenanceDBPath: "",
	}
}

// BindFlags registers every spec.md §6 option onto fs with the built-in
// defaults, for composition into a cobra.Command.
func BindFlags(fs *pflag.FlagSet) {
	d := defaults()
	fs.String("obs-data-path", "", "glob of observational input files")
	fs.String("model-data-path", "", "glob of model input files")
	fs.String("chosen-obs-field", "", "obs field identity, required if the input carries more than one")
	fs.String("chosen-model-field", "", "model field identity, required if the input carries more than one")
	fs.String("preprocess-mode-obs", "", "obs preprocessing plugin: flight, satellite")
	fs.String("preprocess-mode-model", "", "model preprocessing plugin: UM, WRF")
	fs.String("orography", "", "external orography path for hybrid-height computation")
	fs.String("start-time-override", "", "rebase observation start time (RFC3339 UTC)")
	fs.Int("halo-size", d.HaloSize, "bounding-box halo in index space")
	fs.String("spatial-colocation-method", d.SpatialMethod, "regrid method")
	fs.String("vertical-colocation-coord", d.VerticalCoord, "vertical identity when ambiguous")
	fs.String("source-axes", "", `JSON {"X":...,"Y":...} for non-inferrable axes`)
	fs.String("outputs-dir", d.OutputsDir, "output directory")
	fs.String("output-file-name", d.OutputFileName, "output file name")
	fs.String("history-message", d.HistoryMessage, "message appended to the result field's history")
	fs.Int("satellite-level", d.SatelliteLevel, "representative pressure-level index for satellite vertical collapse")
	fs.String("provenance-db", d.ProvenanceDBPath, "optional sqlite run-ledger path")
	fs.String("pushgateway-url", d.PushgatewayURL, "optional Prometheus pushgateway URL")
	fs.Bool("self-check", false, "recorded in the configuration only; the re-run check itself is the selfcheck subcommand")
}

// Load resolves an EngineConfig by layering defaults, an optional JSON
// config file, and flags already parsed onto cmd (flags win). Grounded on
// the teacher's LoadOpts(file, opts) precedence model (options.go).
func Load(cmd *cobra.Command, configFile string) (*EngineConfig, error) {
	v := viper.New()
	d := defaults()
	v.SetDefault("halo-size", d.HaloSize)
	v.SetDefault("spatial-colocation-method", d.SpatialMethod)
	v.SetDefault("vertical-colocation-coord", d.VerticalCoord)
	v.SetDefault("outputs-dir", d.OutputsDir)
	v.SetDefault("output-file-name", d.OutputFileName)
	v.SetDefault("history-message", d.HistoryMessage)
	v.SetDefault("satellite-level", d.SatelliteLevel)

	if configFile != "" {
		v.SetConfigFile(configFile)
		v.SetConfigType("json")
		if err := v.ReadInConfig(); err != nil {
			return nil, verrors.Configuration("config: reading %s: %v", configFile, err)
		}
	}

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return nil, verrors.Internal("config: bind flags: %v", err)
	}

	cfg := &EngineConfig{
		ObsDataPath:       v.GetString("obs-data-path"),
		ModelDataPath:     v.GetString("model-data-path"),
		ChosenObsField:    v.GetString("chosen-obs-field"),
		ChosenModelField:  v.GetString("chosen-model-field"),
		PreprocessModeObs: v.GetString("preprocess-mode-obs"),
		PreprocessModeMod: v.GetString("preprocess-mode-model"),
		Orography:         v.GetString("orography"),
		StartTimeOverride: v.GetString("start-time-override"),
		HaloSize:          v.GetInt("halo-size"),
		SpatialMethod:     v.GetString("spatial-colocation-method"),
		VerticalCoord:     v.GetString("vertical-colocation-coord"),
		OutputsDir:        v.GetString("outputs-dir"),
		OutputFileName:    v.GetString("output-file-name"),
		HistoryMessage:    v.GetString("history-message"),
		SatelliteLevel:    v.GetInt("satellite-level"),
		ProvenanceDBPath:  v.GetString("provenance-db"),
		PushgatewayURL:    v.GetString("pushgateway-url"),
		SelfCheck:         v.GetBool("self-check"),
	}

	if raw := v.GetString("source-axes"); raw != "" {
		var sa SourceAxes
		if err := json.Unmarshal([]byte(raw), &sa); err != nil {
			return nil, verrors.Configuration("config: --source-axes is not valid JSON: %v", err)
		}
		if sa.X == "" || sa.Y == "" {
			return nil, verrors.Configuration("config: --source-axes requires both X and Y keys")
		}
		cfg.SourceAxes = &sa
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func validate(cfg *EngineConfig) error {
	if cfg.ObsDataPath == "" {
		return verrors.Configuration("config: --obs-data-path is required")
	}
	if cfg.ModelDataPath == "" {
		return verrors.Configuration("config: --model-data-path is required")
	}
	switch cfg.PreprocessModeObs {
	case "", "flight", "satellite":
	default:
		return verrors.Configuration("config: --preprocess-mode-obs %q is not one of flight, satellite", cfg.PreprocessModeObs)
	}
	switch cfg.PreprocessModeMod {
	case "", "UM", "WRF":
	default:
		return verrors.Configuration("config: --preprocess-mode-model %q is not one of UM, WRF", cfg.PreprocessModeMod)
	}
	switch cfg.SpatialMethod {
	case "linear", "nearest":
	default:
		return verrors.Configuration("config: --spatial-colocation-method %q is not one of linear, nearest", cfg.SpatialMethod)
	}
	if cfg.HaloSize < 0 {
		return verrors.Configuration("config: --halo-size must be >= 0, got %d", cfg.HaloSize)
	}
	return nil
}

func (s SourceAxes) String() string {
	return fmt.Sprintf("{X:%s Y:%s}", s.X, s.Y)
}
