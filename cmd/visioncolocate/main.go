// Command visioncolocate is the VISION co-location engine's CLI entrypoint
// (spec.md §6 "CLI surface"). It layers hard-coded defaults, an optional
// JSON config file, and CLI flags (flags win) onto a config.EngineConfig,
// then runs the driver.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/metoffice/visiontoolkit/config"
	"github.com/metoffice/visiontoolkit/engine"
	"github.com/metoffice/visiontoolkit/internal/vlog"
)

var (
	configFile   string
	traceLevel   int
	traceFile    string
	selfCheckRun bool
)

func main() {
	root := &cobra.Command{
		Use:   "visioncolocate",
		Short: "Co-locate a gridded model field onto an observational trajectory or swath",
		RunE:  runColocate,
	}
	root.PersistentFlags().StringVar(&configFile, "config-file", "", "optional JSON configuration file")
	root.PersistentFlags().IntVar(&traceLevel, "trace-level", 2, "trace verbosity ceiling (1-5)")
	root.PersistentFlags().StringVar(&traceFile, "trace-file", "", "optional trace output file")
	config.BindFlags(root.Flags())

	selfCheck := &cobra.Command{
		Use:   "selfcheck",
		Short: "Re-run the engine on its own output and verify bit-identical results",
		RunE:  runSelfCheck,
	}
	config.BindFlags(selfCheck.Flags())
	root.AddCommand(selfCheck)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupTracing() {
	vlog.SetLevel(traceLevel)
	if traceFile != "" {
		if err := vlog.Open(traceFile); err != nil {
			fmt.Fprintf(os.Stderr, "visioncolocate: opening trace file %s: %v\n", traceFile, err)
		}
	}
}

func runColocate(cmd *cobra.Command, args []string) error {
	setupTracing()
	defer vlog.Close()

	cfg, err := config.Load(cmd, configFile)
	if err != nil {
		return err
	}
	return runEngine(cfg)
}

func runEngine(cfg *config.EngineConfig) error {
	e, err := engine.New(cfg)
	if err != nil {
		return err
	}
	defer e.Close()
	return e.Run()
}

// runSelfCheck implements the idempotence diagnostic (spec.md §8 Testable
// Property #5, surfaced as a CLI subcommand per SPEC_FULL.md §3 item 4):
// run the engine normally, then run it again with its own output
// substituted as the obs input and the original model, and verify the
// second run reproduces the first byte-for-byte.
func runSelfCheck(cmd *cobra.Command, args []string) error {
	setupTracing()
	defer vlog.Close()

	cfg, err := config.Load(cmd, configFile)
	if err != nil {
		return err
	}
	if err := runEngine(cfg); err != nil {
		return fmt.Errorf("selfcheck: initial run: %w", err)
	}

	firstOutput := filepath.Join(cfg.OutputsDir, "cra_"+cfg.OutputFileName)
	rerunCfg := *cfg
	rerunCfg.ObsDataPath = firstOutput
	rerunCfg.OutputFileName = "selfcheck_" + cfg.OutputFileName
	rerunCfg.PreprocessModeObs = ""
	rerunCfg.ChosenObsField = cfg.ChosenModelField

	if err := runEngine(&rerunCfg); err != nil {
		return fmt.Errorf("selfcheck: re-run on own output: %w", err)
	}

	secondOutput := filepath.Join(rerunCfg.OutputsDir, "cra_"+rerunCfg.OutputFileName)
	identical, err := filesByteIdentical(firstOutput, secondOutput)
	if err != nil {
		return fmt.Errorf("selfcheck: comparing outputs: %w", err)
	}
	if !identical {
		return fmt.Errorf("selfcheck: re-run output %s differs from %s", secondOutput, firstOutput)
	}
	fmt.Println("selfcheck: OK, re-run output is byte-identical")
	return nil
}

func filesByteIdentical(a, b string) (bool, error) {
	da, err := os.ReadFile(a)
	if err != nil {
		return false, err
	}
	db, err := os.ReadFile(b)
	if err != nil {
		return false, err
	}
	if len(da) != len(db) {
		return false, nil
	}
	for i := range da {
		if da[i] != db[i] {
			return false, nil
		}
	}
	return true, nil
}
