package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/devswami/portfolio/internal/assets/packer"
)

type packFlags struct {
	config   string
	web      string
	buildDir string
}

func (p *packFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&p.config, "config", "config.prod.json", "path to configuration file")
	cmd.Flags().StringVar(&p.web, "web", "web", "path to folder containing pages, static and content")
	cmd.Flags().StringVar(&p.buildDir, "build", "build", "output directory for generated embed files")
}

func (p *packFlags) run(cmd *cobra.Command, g *globalFlags) error {
	logger := g.logger(cmd)
	logger.Info("packing assets", "web", p.web, "config", p.config)
	start := time.Now()

	res, err := packer.Run(packer.Options{
		ConfigPath: p.config,
		WebDir:     p.web,
		BuildDir:   p.buildDir,
		Logger:     logger,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Packed %d files (%d bytes) into %s in %s\n",
		res.Files, res.Bytes, res.PublicDir, time.Since(start).Round(time.Millisecond))
	return nil
}

func newPackCommand(g *globalFlags) *cobra.Command {
	var p packFlags

	cmd := &cobra.Command{
		Use:   "pack",
		Short: "Pack pages, static assets and content into build/public",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return p.run(cmd, g)
		},
	}
	p.register(cmd)

	return cmd
}

func newBuildCommand(g *globalFlags) *cobra.Command {
	var (
		p        packFlags
		output   string
		goBinary string
		ldflags  string
		tags     string
		trimpath bool
		skipPack bool
	)

	cmd := &cobra.Command{
		Use:   "build",
		Short: "Pack assets and compile the portfolio server into a single binary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !skipPack {
				if err := p.run(cmd, g); err != nil {
					return err
				}
			}

			if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
				return fmt.Errorf("create output directory: %w", err)
			}

			args := goBuildArgs(output, ldflags, tags, trimpath)
			build := exec.CommandContext(cmd.Context(), goBinary, args...)
			build.Stdout = cmd.OutOrStdout()
			build.Stderr = cmd.ErrOrStderr()
			build.Env = os.Environ()

			logger := g.logger(cmd)
			logger.Info("compiling binary", "output", output)
			start := time.Now()
			if err := build.Run(); err != nil {
				return fmt.Errorf("go build failed: %w", err)
			}
			logger.Info("binary written", "output", output, "took", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	p.register(cmd)
	cmd.Flags().StringVar(&output, "output", filepath.Join("bin", "portfolio"), "where to write the compiled binary")
	cmd.Flags().StringVar(&goBinary, "go", "go", "path to the go toolchain")
	cmd.Flags().StringVar(&ldflags, "ldflags", "-s -w", "ldflags passed to go build")
	cmd.Flags().StringVar(&tags, "tags", "", "optional build tags (comma separated)")
	cmd.Flags().BoolVar(&trimpath, "trimpath", true, "add -trimpath when compiling")
	cmd.Flags().BoolVar(&skipPack, "skip-pack", false, "skip repacking assets before building")

	return cmd
}

func goBuildArgs(output, ldflags, tags string, trimpath bool) []string {
	args := []string{"build"}
	if trimpath {
		args = append(args, "-trimpath")
	}
	if strings.TrimSpace(ldflags) != "" {
		args = append(args, "-ldflags", ldflags)
	}
	if strings.TrimSpace(tags) != "" {
		args = append(args, "-tags", tags)
	}
	return append(args, "-o", output, "./cmd/portfolio")
}
