package main

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hailam/kunopack/internal/orchestrator"
	"github.com/hailam/kunopack/internal/report"
)

var (
	configPath string
	assetsDir  string
	outPath    string
	layoutName string
	verbose    bool
)

type cliProgress struct {
	spin *spinner.Spinner
}

func (p *cliProgress) StartSpriteset(name string) {
	p.spin.Prefix = fmt.Sprintf("compiling spriteset %s... ", name)
	if verbose {
		fmt.Fprintf(os.Stderr, "spriteset %s: decoding sprites\n", name)
	}
}

func (p *cliProgress) FinishSpriteset(name string) {
	if verbose {
		fmt.Fprintf(os.Stderr, "spriteset %s: done\n", name)
	}
}

func runCompile(cmd *cobra.Command, args []string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	baseDir := assetsDir
	if baseDir == "" {
		baseDir = filepath.Dir(configPath)
	}

	spin := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	spin.Start()
	defer spin.Stop()

	result, err := orchestrator.Compile(f, baseDir, layoutName, &cliProgress{spin: spin})
	if err != nil {
		return err
	}

	if err := result.Layout.Save(outPath); err != nil {
		return err
	}

	spin.Stop()
	color.Green("compiled %s (%d spritesets, layout=%s)", outPath, len(result.Spritesets), layoutName)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	baseDir := assetsDir
	if baseDir == "" {
		baseDir = filepath.Dir(configPath)
	}

	result, err := orchestrator.Compile(f, baseDir, layoutName, nil)
	if err != nil {
		return err
	}
	if err := report.BuildReport(result, outPath); err != nil {
		return err
	}
	color.Green("wrote build report to %s", outPath)
	return nil
}

func runManifest(cmd *cobra.Command, args []string) error {
	f, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	defer f.Close()

	baseDir := assetsDir
	if baseDir == "" {
		baseDir = filepath.Dir(configPath)
	}

	result, err := orchestrator.Compile(f, baseDir, layoutName, nil)
	if err != nil {
		return err
	}
	if err := report.Manifest(result, outPath); err != nil {
		return err
	}
	color.Green("wrote manifest to %s", outPath)
	return nil
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "kunopack",
		Short: "Compiles GIF sprite sources into a ROM cartridge image.",
		Long: `kunopack reads a spriteset manifest, decodes each sprite's GIF
source, packs it into 8x8 4bpp cells, and writes a single binary ROM
container carrying the palette, sprite table, and cell pool for every
spriteset it compiled.`,
	}

	compileCmd := &cobra.Command{
		Use:   "compile",
		Short: "Compile a manifest into a .kn1 ROM image",
		RunE:  runCompile,
	}
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "Compile a manifest and export a chunk-table spreadsheet",
		RunE:  runReport,
	}
	manifestCmd := &cobra.Command{
		Use:   "manifest",
		Short: "Compile a manifest and export a palette/sprite PDF",
		RunE:  runManifest,
	}

	for _, c := range []*cobra.Command{compileCmd, reportCmd, manifestCmd} {
		c.Flags().StringVarP(&configPath, "config", "c", "", "path to the spriteset manifest (required)")
		c.Flags().StringVarP(&assetsDir, "root", "r", "", "base directory for sprite filenames (default: config's directory)")
		c.Flags().StringVarP(&outPath, "output", "o", "", "output file path (required)")
		c.Flags().StringVarP(&layoutName, "layout", "l", "flat", `rom layout: "flat" or "nested"`)
		c.MarkFlagRequired("config")
		c.MarkFlagRequired("output")
	}
	compileCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "echo per-spriteset progress to stderr")

	rootCmd.AddCommand(compileCmd, reportCmd, manifestCmd)

	if err := rootCmd.Execute(); err != nil {
		color.Red("Error: %v", err)
		os.Exit(1)
	}
}
