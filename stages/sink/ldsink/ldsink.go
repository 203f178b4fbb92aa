/*
NAME
  ldsink.go

DESCRIPTION
  ldsink.go implements the "ld_sink" sink stage: a Triggerable batch
  export of a VFR's fields to a .tbc sample file plus a SQLite sidecar
  database holding per-field metadata, dropout hints and the
  observations accumulated during export.

AUTHOR
  Trek Hopton <trek@ausocean.org>

LICENSE
  Copyright (C) 2024 the Australian Ocean Lab (AusOcean). All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of the Australian Ocean Lab (AusOcean).
*/

// Package ldsink registers the "ld_sink" stage, which batch-exports a
// VFR to a .tbc file and a SQLite metadata sidecar on Trigger.
package ldsink

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/tbcorc/orc/observation"
	"github.com/tbcorc/orc/param"
	"github.com/tbcorc/orc/registry"
	"github.com/tbcorc/orc/stage"
	"github.com/tbcorc/orc/tbcio"
	"github.com/tbcorc/orc/vfr"
	"github.com/tbcorc/orc/videoparams"
)

// TypeName is the registered stage name.
const TypeName = "ld_sink"

func init() {
	registry.Register(TypeName, func() stage.Stage { return New() })
}

// Stage implements stage.Stage and stage.Triggerable: normal Execute
// calls are a no-op, export only happens on Trigger.
type Stage struct {
	stage.BaseTriggerable
	params param.Map
}

// New returns an unconfigured ld_sink stage.
func New() *Stage { return &Stage{} }

func (s *Stage) TypeInfo() stage.NodeTypeInfo {
	return stage.NodeTypeInfo{
		Kind:        stage.Sink,
		TypeName:    TypeName,
		DisplayName: "ld-decode Sink",
		MinInputs:   1, MaxInputs: 1,
		MinOutputs: 0, MaxOutputs: 0,
		FormatCompat: stage.All,
	}
}

func (s *Stage) ParameterDescriptors(format int, sourceType string) []param.Descriptor {
	return []param.Descriptor{
		{Name: "output_path", Type: param.TypeString, Required: true},
	}
}

func (s *Stage) GetParameters() param.Map { return s.params }

func (s *Stage) SetParameters(m param.Map) error {
	if err := param.Validate(m, s.ParameterDescriptors(0, "")); err != nil {
		return fmt.Errorf("ld_sink: %w", err)
	}
	s.params = m
	return nil
}

// Execute is a no-op: sinks produce their output only when Trigger is
// called, not during normal DAG execution.
func (s *Stage) Execute(inputs []vfr.VFR, params param.Map, ctx *observation.Context) ([]vfr.VFR, error) {
	return nil, nil
}

// Trigger exports inputs[0] in full to the configured output_path,
// writing raw samples to a .tbc file and per-field metadata to a
// SQLite sidecar database.
func (s *Stage) Trigger(inputs []vfr.VFR, params param.Map, ctx *observation.Context) (bool, error) {
	s.Reset()
	s.SetStatus("Starting export...")

	outputPath := params["output_path"].S
	if outputPath == "" {
		s.SetStatus("Error: Output path is empty")
		return false, errors.New("ld_sink: output_path is empty")
	}
	if len(inputs) == 0 {
		s.SetStatus("Error: No input connected")
		return false, errors.New("ld_sink: no input provided")
	}
	rep := inputs[0]

	tbcPath := outputPath
	if !strings.HasSuffix(tbcPath, ".tbc") {
		tbcPath += ".tbc"
	}
	dbPath := tbcPath + ".db"

	ok, err := s.writeTBCAndMetadata(rep, tbcPath, dbPath, ctx)
	if err != nil {
		removeOutputFiles(tbcPath, dbPath)
		s.SetStatus(fmt.Sprintf("Error: %v", err))
		return false, err
	}
	if !ok {
		removeOutputFiles(tbcPath, dbPath)
		s.SetStatus(stage.CancelledStatus)
		return false, nil
	}
	s.SetStatus(fmt.Sprintf("Exported %d fields to %s", rep.FieldCount(), tbcPath))
	return true, nil
}

func (s *Stage) writeTBCAndMetadata(rep vfr.VFR, tbcPath, dbPath string, ctx *observation.Context) (bool, error) {
	w, err := tbcio.NewWriter(tbcPath, tbcio.DefaultBufferSize)
	if err != nil {
		return false, fmt.Errorf("opening tbc output: %w", err)
	}
	defer w.Close()

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return false, fmt.Errorf("opening metadata database: %w", err)
	}
	defer db.Close()

	if err := createSchema(db); err != nil {
		return false, err
	}
	if err := writeVideoParameters(db, rep.Parameters()); err != nil {
		return false, err
	}

	tx, err := db.Begin()
	if err != nil {
		return false, fmt.Errorf("beginning metadata transaction: %w", err)
	}

	rng := rep.FieldRange()
	total := rng.Size()
	var processed uint64

	for id := rng.Start; id < rng.End; id++ {
		if s.IsCancelled() {
			tx.Rollback()
			return false, nil
		}
		if !rep.HasField(id) {
			continue
		}
		desc, ok := rep.GetDescriptor(id)
		if !ok {
			continue
		}

		buf := make([]uint16, 0, desc.Width*desc.Height)
		for line := 0; line < desc.Height; line++ {
			data, ok := rep.GetLine(id, line)
			if !ok {
				data = make([]uint16, desc.Width)
			}
			buf = append(buf, data...)
		}
		if err := w.Write(buf); err != nil {
			tx.Rollback()
			return false, fmt.Errorf("writing field %d: %w", id, err)
		}

		parity, hasParity := rep.GetFieldParityHint(id)
		isFirst := hasParity && parity.IsFirstField
		if _, err := tx.Exec(
			`INSERT INTO fields(id, seq_no, is_first_field) VALUES (?, ?, ?)`,
			int64(id), int64(id)+1, isFirst,
		); err != nil {
			tx.Rollback()
			return false, fmt.Errorf("writing field metadata: %w", err)
		}

		ctx.Set(id, observation.NSExport, "seq_no", observation.Int64(int64(id)+1))
		ctx.Set(id, observation.NSExport, "is_first_field", observation.Bool(isFirst))

		for _, d := range rep.GetDropoutHints(id) {
			if _, err := tx.Exec(
				`INSERT INTO dropouts(field_id, line, start_sample, end_sample) VALUES (?, ?, ?, ?)`,
				int64(id), d.Line, d.StartSample, d.EndSample,
			); err != nil {
				tx.Rollback()
				return false, fmt.Errorf("writing dropout metadata: %w", err)
			}
		}

		processed++
		if processed%10 == 0 {
			s.ReportProgress(processed, total, fmt.Sprintf("Exporting field %d/%d", processed, total))
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("committing metadata transaction: %w", err)
	}
	return true, nil
}

// removeOutputFiles deletes a partially-written .tbc file and its
// sidecar database so a cancelled or failed export leaves no residual
// output at the requested path.
func removeOutputFiles(tbcPath, dbPath string) {
	os.Remove(tbcPath)
	os.Remove(dbPath)
}

func createSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS video_parameters (
			system INTEGER, field_width INTEGER, field_height INTEGER,
			black_level INTEGER, white_level INTEGER, decoder TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS fields (
			id INTEGER PRIMARY KEY, seq_no INTEGER, is_first_field INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS dropouts (
			field_id INTEGER, line INTEGER, start_sample INTEGER, end_sample INTEGER
		)`,
	}
	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func writeVideoParameters(db *sql.DB, p videoparams.Parameters) error {
	_, err := db.Exec(
		`INSERT INTO video_parameters(system, field_width, field_height, black_level, white_level, decoder)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		int(p.System), p.FieldWidth, p.FieldHeight, p.Black16bIRE, p.White16bIRE, "orc",
	)
	if err != nil {
		return fmt.Errorf("writing video parameters: %w", err)
	}
	return nil
}
