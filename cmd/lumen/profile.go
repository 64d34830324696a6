package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"runtime/pprof"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func newProfileCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Profile the synthetic render loop with pprof",
		Long: `Profile runs the render loop as fast as it can for the given duration and
writes pprof profiles to the output directory.

Example:
  lumen profile --types cpu,memory --duration 30s --output ./profiles`,
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := bindEnv(cmd)
			if err != nil {
				return err
			}
			return runProfile(v.GetString("config"), v.GetString("output"),
				parseProfileTypes(v.GetString("types")), v.GetDuration("duration"))
		},
	}

	cmd.Flags().StringP("config", "c", "", "Path to a YAML configuration file (defaults are used when empty)")
	cmd.Flags().DurationP("duration", "d", 10*time.Second, "Profiling duration")
	cmd.Flags().StringP("output", "o", "./profiles", "Output directory for profiles")
	cmd.Flags().String("types", "cpu,memory", "Profile types (cpu,memory,block,mutex,goroutine,all)")
	return cmd
}

func runProfile(configFile, outputDir string, types []string, duration time.Duration) error {
	if len(types) == 0 {
		return fmt.Errorf("no known profile types requested")
	}
	cfg, err := loadConfig(configFile)
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	if contains(types, "block") {
		runtime.SetBlockProfileRate(1)
		defer runtime.SetBlockProfileRate(0)
	}
	if contains(types, "mutex") {
		runtime.SetMutexProfileFraction(1)
		defer runtime.SetMutexProfileFraction(0)
	}

	if contains(types, "cpu") {
		f, err := os.Create(filepath.Join(outputDir, "cpu.prof"))
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
	}

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	loop := newRenderLoop(cfg, 16)
	frames := 0
	for ctx.Err() == nil {
		render := loop.renderFrame(frames)
		loop.gov.Frame(ctx, render, render)
		frames++
	}
	fmt.Printf("Rendered %d frames in %v\n", frames, duration)

	for _, t := range types {
		name := t
		switch t {
		case "cpu":
			continue
		case "memory":
			runtime.GC()
			name = "heap"
		}
		if err := writeProfile(name, filepath.Join(outputDir, t+".prof")); err != nil {
			return err
		}
	}
	return nil
}

// writeProfile writes a named runtime profile to filename.
func writeProfile(profileName, filename string) error {
	profile := pprof.Lookup(profileName)
	if profile == nil {
		return fmt.Errorf("profile %s not found", profileName)
	}

	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s profile: %w", profileName, err)
	}
	defer f.Close()

	if err := profile.WriteTo(f, 0); err != nil {
		return fmt.Errorf("failed to write %s profile: %w", profileName, err)
	}
	fmt.Printf("%s profile written to: %s\n", profileName, filename)
	return nil
}

// parseProfileTypes parses the profile types string
func parseProfileTypes(typesStr string) []string {
	if typesStr == "all" {
		return []string{"cpu", "memory", "block", "mutex", "goroutine"}
	}

	parts := strings.Split(typesStr, ",")
	types := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		switch part {
		case "cpu", "memory", "mem", "block", "mutex", "goroutine":
			if part == "mem" {
				part = "memory"
			}
			if !contains(types, part) {
				types = append(types, part)
			}
		}
	}
	return types
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
