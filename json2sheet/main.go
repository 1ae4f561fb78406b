// Copyright 2021, 2026 Tamás Gulácsi. All rights reserved.

// Command json2sheet prints JSON, YAML or CSV documents into a spreadsheet:
// every object gets a row on the sheet of its type, nested objects are
// referenced by their identifiers.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/UNO-SOFT/obj2sheet"
	"github.com/UNO-SOFT/obj2sheet/csvzip"
	"github.com/UNO-SOFT/obj2sheet/grid"
	"github.com/UNO-SOFT/obj2sheet/ods"
	"github.com/UNO-SOFT/obj2sheet/pdf"
	"github.com/UNO-SOFT/obj2sheet/xlsx"
	"github.com/UNO-SOFT/zlog/v2"
	"github.com/peterbourgon/ff/v3"
	"github.com/peterbourgon/ff/v3/ffcli"
	"gopkg.in/yaml.v3"
)

var verbose zlog.VerboseVar
var logger = zlog.NewLogger(zlog.MaybeConsoleHandler(&verbose, os.Stderr)).SLog()

func main() {
	if err := Main(); err != nil {
		logger.Error("MAIN", "error", err)
		os.Exit(1)
	}
}

func Main() error {
	fs := flag.NewFlagSet("json2sheet", flag.ContinueOnError)
	fs.Var(&verbose, "v", "logging verbosity")
	flagEnc := fs.String("charset", obj2sheet.EncName, "csv charset name (input and output)")
	flagOut := fs.String("o", "-", "output file name")
	flagFormat := fs.String("format", "", "output format: xlsx, ods, pdf or csv (default: from the output file name, xlsx)")
	flagIn := fs.String("in", "", "input format: json, yaml or csv (default: from the input file name, json)")
	flagLandscape := fs.Bool("L", false, "landscape orientation for pdf (default: portrait)")
	flagFontSize := fs.Float64("f", 7, "font size for pdf")

	app := ffcli.Command{Name: "json2sheet", FlagSet: fs,
		ShortUsage: "json2sheet [flags] input.json|input.yaml|input.csv...",
		Options:    []ff.Option{ff.WithEnvVarPrefix("JSON2SHEET")},
		Exec: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				args = []string{"-"}
			}
			format := *flagFormat
			if format == "" {
				format = formatOf(*flagOut, "xlsx")
			}
			sink, err := newSink(format, *flagEnc, *flagLandscape, *flagFontSize)
			if err != nil {
				return err
			}
			p := obj2sheet.New(sink, obj2sheet.WithLogger(logger))
			for _, fn := range args {
				if err := ctx.Err(); err != nil {
					return err
				}
				in := *flagIn
				if in == "" {
					in = formatOf(fn, "json")
				}
				if err := addFile(p, fn, in, *flagEnc); err != nil {
					return fmt.Errorf("%q: %w", fn, err)
				}
			}
			logger.Debug("printed", "sheets", p.Sheets())
			if *flagOut == "" || *flagOut == "-" {
				return p.Save(os.Stdout)
			}
			return p.SaveFile(*flagOut)
		},
	}

	if err := app.Parse(os.Args[1:]); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(),
		os.Interrupt, syscall.SIGTERM)
	defer cancel()
	return app.Run(ctx)
}

// formatOf returns the format from the file name's extension.
func formatOf(fn, def string) string {
	switch ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(fn), ".")); ext {
	case "yml":
		return "yaml"
	case "zip":
		return "csv"
	case "":
		return def
	default:
		return ext
	}
}

func newSink(format, encName string, landscape bool, fontSize float64) (obj2sheet.Sink, error) {
	switch format {
	case "xlsx":
		return xlsx.NewSink(), nil
	case "ods":
		return grid.New(func(w io.Writer) (obj2sheet.Writer, error) {
			return ods.NewWriter(w)
		}), nil
	case "pdf":
		return grid.New(func(w io.Writer) (obj2sheet.Writer, error) {
			pw := pdf.NewWriter(w)
			pw.Landscape, pw.FontSize = landscape, fontSize
			return pw, nil
		}), nil
	case "csv":
		return grid.New(func(w io.Writer) (obj2sheet.Writer, error) {
			return csvzip.NewWriter(w, encName)
		}), nil
	}
	return nil, fmt.Errorf("unknown output format %q", format)
}

func addFile(p *obj2sheet.Printer, fn, format, encName string) error {
	if format == "csv" {
		return addCsv(p, fn, encName)
	}
	fh := os.Stdin
	if !(fn == "" || fn == "-") {
		var err error
		if fh, err = os.Open(fn); err != nil {
			return err
		}
		defer fh.Close()
	}
	var decode func(any) error
	switch format {
	case "json":
		decode = json.NewDecoder(fh).Decode
	case "yaml":
		decode = yaml.NewDecoder(fh).Decode
	default:
		return fmt.Errorf("unknown input format %q", format)
	}
	for {
		var v any
		if err := decode(&v); err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := add(p, v); err != nil {
			return err
		}
	}
}

func addCsv(p *obj2sheet.Printer, fn, encName string) error {
	cr, err := obj2sheet.OpenCSV(fn, encName)
	if err != nil {
		return err
	}
	defer cr.Close()
	logger.Debug("csv", "header", cr.Header())
	for {
		rec, err := cr.Next()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if err := add(p, rec); err != nil {
			return fmt.Errorf("line %d: %w", cr.Line(), err)
		}
	}
}

// add adds a document; bare scalars are skipped with a warning.
func add(p *obj2sheet.Printer, v any) error {
	id, err := p.AddObject(v)
	if errors.Is(err, obj2sheet.ErrUnsupportedValue) {
		logger.Warn("skip", "value", v, "error", err)
		return nil
	}
	if id != "" {
		logger.Debug("added", "id", id)
	}
	return err
}
