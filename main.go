// SPDX-License-Identifier: MIT
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"mixengine/cmd"
	"mixengine/internal/analysis"
	"mixengine/internal/config"
	"mixengine/internal/crowd"
	"mixengine/internal/log"
	"mixengine/internal/session"
	"mixengine/internal/stems"
	"mixengine/internal/transport"
	"mixengine/internal/transport/udp"
	"mixengine/internal/wavio"
	"mixengine/pkg/build"
)

// main runs in three phases: startup (build info, CLI, config, logging),
// the serving phase (session server plus drift ticker), and shutdown on
// SIGINT/SIGTERM. The analyze and stems subcommands are one-shot and
// skip the serving phase entirely.
func main() {
	build.Initialize()

	opts, err := cmd.ParseArgs()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if !opts.Serve && opts.Command == "" {
		return // help/version path
	}

	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	level := cfg.LogLevel
	if cfg.Debug {
		level = "debug"
	}
	log.Init(level, cfg.LogFile)
	defer log.Sync()

	windowType, err := analysis.ParseWindowFunc(cfg.Engine.FFTWindow)
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	analyzer, err := analysis.NewAnalyzer(cfg.Engine.SampleRate, cfg.Engine.AnalysisWindow, windowType)
	if err != nil {
		log.Fatalf("analyzer: %v", err)
	}
	separator := stems.NewSeparator(cfg.Engine.SampleRate, windowType)

	switch opts.Command {
	case "analyze":
		if err := runAnalyze(analyzer, opts.InputFile); err != nil {
			log.Fatalf("analyze: %v", err)
		}
		return
	case "stems":
		if err := runStems(separator, opts.InputFile, opts.OutputDir); err != nil {
			log.Fatalf("stems: %v", err)
		}
		return
	}

	coordinator := session.NewCoordinator(analyzer, separator, crowd.NewManager())

	var mirrors []transport.Transport
	if cfg.Transport.LogBroadcasts {
		mirrors = append(mirrors, transport.NewLoggingTransport())
	}
	if cfg.Transport.UDPEnabled {
		sender, err := udp.NewSender(cfg.Transport.UDPTargetAddress)
		if err != nil {
			log.Fatalf("udp mirror: %v", err)
		}
		mirrors = append(mirrors, sender)
	}

	server := session.NewServer(cfg.Server, coordinator, mirrors...)
	server.Start()
	log.Infof("%s %s ready on %s", build.GetBuildFlags().Name, build.GetBuildFlags().Version, cfg.Server.Addr)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)
	<-done

	log.Infof("shutting down")
	if err := server.Close(); err != nil {
		log.Errorf("shutdown: %v", err)
	}
}

// runAnalyze prints the descriptor of a WAV file as indented JSON. The
// file's own sample rate wins over the configured one.
func runAnalyze(analyzer *analysis.Analyzer, path string) error {
	samples, rate, err := wavio.LoadMono(path)
	if err != nil {
		return err
	}
	if rate != analyzer.SampleRate() {
		a, err := analysis.NewAnalyzer(rate, analyzer.WindowSize(), analyzer.WindowType())
		if err != nil {
			return err
		}
		analyzer = a
	}

	desc := analyzer.Analyze(trackIDFromPath(path), samples)
	out, err := json.MarshalIndent(desc, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

// runStems writes the four stem WAV files of the input next to each
// other in outputDir.
func runStems(separator *stems.Separator, path, outputDir string) error {
	samples, rate, err := wavio.LoadMono(path)
	if err != nil {
		return err
	}

	set := stems.NewSeparator(rate, separator.WindowType()).Separate(samples)
	base := trackIDFromPath(path)
	if err := wavio.ExportStems(outputDir, base, set, rate); err != nil {
		return err
	}
	log.Infof("stems for %s written to %s", base, outputDir)
	return nil
}

func trackIDFromPath(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}
