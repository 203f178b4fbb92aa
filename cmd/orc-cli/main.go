/*
DESCRIPTION
  orc-cli is a command-line tool that loads a project file, builds its
  DAG, and triggers every sink node as a batch export.

AUTHORS
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package main implements orc-cli, the non-interactive counterpart to
// the GUI's render coordinator: it loads a project, builds its DAG,
// and triggers every sink node in turn, reporting progress and
// failures to the configured logger.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/ausocean/utils/logging"

	"github.com/tbcorc/orc/actor"
	"github.com/tbcorc/orc/ids"
	"github.com/tbcorc/orc/project"

	_ "github.com/tbcorc/orc/stages/analysis/burstlevel"
	_ "github.com/tbcorc/orc/stages/analysis/dropout"
	_ "github.com/tbcorc/orc/stages/analysis/snr"
	_ "github.com/tbcorc/orc/stages/sink/audiosink"
	_ "github.com/tbcorc/orc/stages/sink/efmsink"
	_ "github.com/tbcorc/orc/stages/sink/ldsink"
	_ "github.com/tbcorc/orc/stages/source/ldaudio"
	_ "github.com/tbcorc/orc/stages/source/ldfile"
	_ "github.com/tbcorc/orc/stages/transform/dropoutcorrect"
	_ "github.com/tbcorc/orc/stages/transform/fieldinvert"
	_ "github.com/tbcorc/orc/stages/transform/fieldmap"
	_ "github.com/tbcorc/orc/stages/transform/overwrite"
	_ "github.com/tbcorc/orc/stages/transform/sourcealign"
	_ "github.com/tbcorc/orc/stages/transform/videoparamsoverride"
)

// Logging configuration.
const (
	logMaxSize   = 50 // MB
	logMaxBackup = 5
	logMaxAge    = 28 // days
)

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <project-file> [options]\n\n", os.Args[0])
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  --process    Process the whole DAG chain (trigger all sinks)")
	fmt.Fprintln(os.Stderr, "\nOptions:")
	fmt.Fprintln(os.Stderr, "  --log-level LEVEL   debug, info, warning, error, fatal (default info)")
	fmt.Fprintln(os.Stderr, "  --log-file FILE     write logs to FILE in addition to stderr")
	fmt.Fprintln(os.Stderr, "\nExamples:")
	fmt.Fprintf(os.Stderr, "  %s project.orcprj --process\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "  %s project.orcprj --process --log-level debug\n", os.Args[0])
}

func levelFromFlag(s string) int8 {
	switch s {
	case "debug":
		return logging.Debug
	case "info":
		return logging.Info
	case "warning", "warn":
		return logging.Warning
	case "error":
		return logging.Error
	case "fatal", "critical", "off":
		return logging.Fatal
	default:
		return logging.Info
	}
}

func main() {
	flag.Usage = usage
	process := flag.Bool("process", false, "process the whole DAG chain (trigger all sinks)")
	logLevel := flag.String("log-level", "info", "logging verbosity: debug, info, warning, error, fatal")
	logFile := flag.String("log-file", "", "write logs to this file in addition to stderr")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "Error: no project file specified")
		usage()
		os.Exit(1)
	}
	projectPath := flag.Arg(0)

	if !*process {
		fmt.Fprintln(os.Stderr, "Error: no command specified. You must use --process")
		usage()
		os.Exit(1)
	}

	var out io.Writer = os.Stderr
	if *logFile != "" {
		out = io.MultiWriter(os.Stderr, &lumberjack.Logger{
			Filename:   *logFile,
			MaxSize:    logMaxSize,
			MaxBackups: logMaxBackup,
			MaxAge:     logMaxAge,
		})
	}
	log := logging.New(levelFromFlag(*logLevel), out, true)

	if err := run(projectPath, log); err != nil {
		log.Error("processing failed", "error", err)
		os.Exit(1)
	}
}

func run(projectPath string, log logging.Logger) error {
	log.Info("loading project", "path", projectPath)
	f, err := os.Open(projectPath)
	if err != nil {
		return fmt.Errorf("project file not found: %w", err)
	}
	defer f.Close()

	doc, err := project.Load(f)
	if err != nil {
		return fmt.Errorf("failed to load project: %w", err)
	}
	log.Info("project loaded", "name", doc.Name)
	if doc.Description != "" {
		log.Debug("project description", "description", doc.Description)
	}
	log.Debug("project contents", "nodes", len(doc.Nodes), "edges", len(doc.Edges))

	d, err := project.Build(doc)
	if err != nil {
		return fmt.Errorf("failed to build DAG: %w", err)
	}
	if err := d.Validate(); err != nil {
		return fmt.Errorf("invalid DAG: %w", err)
	}

	c, err := actor.New(d, log)
	if err != nil {
		return fmt.Errorf("failed to start render coordinator: %w", err)
	}
	defer c.Shutdown()

	return triggerAllSinks(c, d.SinkNodes, log)
}

// triggerAllSinks runs TriggerStage on every sink node in turn, logging
// progress at each step, and reports whether all of them succeeded.
func triggerAllSinks(c *actor.Coordinator, sinks []ids.NodeID, log logging.Logger) error {
	allOK := true
	for _, sink := range sinks {
		log.Info("triggering sink", "node", sink)
		id := c.TriggerStage(sink)
		if !drainTrigger(c, id, sink, log) {
			allOK = false
		}
	}
	if !allOK {
		return fmt.Errorf("one or more sinks failed")
	}
	return nil
}

// drainTrigger consumes events until the TriggerCompleteEvent or
// ErrorEvent matching id arrives, logging progress along the way, and
// reports whether the trigger succeeded.
func drainTrigger(c *actor.Coordinator, id actor.RequestID, sink ids.NodeID, log logging.Logger) bool {
	lastPercent := -1
	for ev := range c.Events() {
		if ev.RequestID() != id {
			continue
		}
		switch e := ev.(type) {
		case actor.TriggerProgressEvent:
			if e.Total == 0 {
				continue
			}
			percent := int(e.Current * 100 / e.Total)
			if percent >= lastPercent+5 || e.Current == e.Total {
				log.Info(fmt.Sprintf("[progress: %d%%] %s", percent, e.Message), "node", sink)
				lastPercent = percent
			}
		case actor.TriggerCompleteEvent:
			if !e.Success {
				log.Error("sink trigger failed", "node", sink, "status", e.Status)
				return false
			}
			log.Info("sink trigger complete", "node", sink, "status", e.Status)
			return true
		case actor.ErrorEvent:
			log.Error("sink trigger error", "node", sink, "message", e.Message)
			return false
		}
	}
	return false
}
