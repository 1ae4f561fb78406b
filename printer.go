// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

// Package obj2sheet prints object graphs into spreadsheets:
// one sheet per type, one row per object.
//
// References between objects are printed as generated identifiers
// ("Person 0", "Dog 3"), so shared and cyclic structures are printed
// exactly once.
package obj2sheet

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"reflect"
	"unsafe"
)

// Printer prints objects into a Sink.
//
// A Printer is not safe for concurrent use.
type Printer struct {
	sink   Sink
	logger *slog.Logger
	schema *schema
	router *router
	ids    *identities

	// maps holds the wrapper of every map met outside a map column;
	// src in the wrapper keeps the map, and so its address, alive.
	maps      map[unsafe.Pointer]*MapRecord
	expanding map[expansion]bool
}

// Option configures a Printer.
type Option func(*Printer)

// WithLogger sets the logger of the printer, slog.Default() if not set.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Printer) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFields declares the columns of T explicitly, instead of
// discovering them with reflection.
func WithFields[T any](accessors ...Accessor[T]) Option {
	return func(p *Printer) { register(p.schema, accessors) }
}

// New returns a new Printer writing into the sink.
func New(sink Sink, options ...Option) *Printer {
	p := &Printer{
		sink:   sink,
		logger: slog.Default(),
		schema: newSchema(),
		router: newRouter(sink),
		ids:    newIdentities(),

		maps:      make(map[unsafe.Pointer]*MapRecord),
		expanding: make(map[expansion]bool),
	}
	for _, o := range options {
		o(p)
	}
	return p
}

// AddObject prints v and everything reachable from it,
// and returns the identifier of v.
//
// Slices and arrays have no identifier: their elements are added one by one.
// Maps are wrapped in a MapRecord, the same one for the same map.
// Adding the same pointer again returns the same identifier and prints nothing.
func (p *Printer) AddObject(v any) (string, error) {
	if v == nil {
		return "", nil
	}
	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Pointer {
		rv = rv.Elem()
	}
	if rv.Kind() == reflect.Pointer && rv.IsNil() {
		return "", nil
	}
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Type().Elem().Kind() == reflect.Uint8 {
			break
		}
		for i := range rv.Len() {
			if _, err := p.AddObject(rv.Index(i).Interface()); err != nil {
				return "", err
			}
		}
		return "", nil
	case reflect.Map:
		return p.AddObject(p.mapRecord(rv))
	}
	typ := rv.Type()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if !isRecordType(typ) {
		return "", fmt.Errorf("%w: %T", ErrUnsupportedValue, v)
	}

	h, err := p.register(rv)
	if err != nil {
		return "", err
	}
	rec := p.ids.get(h)
	if rec.state != statePrinted {
		if err := p.write(rec); err != nil {
			return rec.id, err
		}
	}
	return rec.id, p.drain()
}

// register returns the handle of the object, minting a new one on first sight.
func (p *Printer) register(rv reflect.Value) (handle, error) {
	if h, ok := p.ids.lookup(rv); ok {
		return h, nil
	}
	typ := rv.Type()
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	sh, err := p.router.route(typ)
	if err != nil {
		return 0, err
	}
	if sh.fields == nil {
		sh.fields = p.schema.fieldsOf(typ)
		p.logger.Debug("new sheet", "name", sh.name, "type", typ.String(), "fields", len(sh.fields))
	}
	return p.ids.mint(rv, sh), nil
}

// ref returns the identifier of a nested object, queueing it
// for printing if it has not been printed yet.
func (p *Printer) ref(rv reflect.Value) (string, error) {
	h, err := p.register(rv)
	if err != nil {
		return "", err
	}
	p.ids.enqueue(h)
	return p.ids.get(h).id, nil
}

// drain prints the queued objects of every sheet, in sheet creation order,
// until all queues are empty.
func (p *Printer) drain() error {
	for more := true; more; {
		more = false
		for _, sh := range p.router.sheets {
			for h, ok := sh.pop(); ok; h, ok = sh.pop() {
				more = true
				rec := p.ids.get(h)
				if rec.state == statePrinted {
					continue
				}
				if err := p.write(rec); err != nil {
					rec.state = stateAssigned
					return err
				}
			}
		}
	}
	return nil
}

// Sheets returns the names of the sheets, in creation order.
func (p *Printer) Sheets() []string {
	names := make([]string, len(p.router.sheets))
	for i, sh := range p.router.sheets {
		names[i] = sh.name
	}
	return names
}

// Save finalizes the sink into w.
func (p *Printer) Save(w io.Writer) error {
	if err := p.sink.Finalize(w); err != nil {
		return fmt.Errorf("finalize: %w", err)
	}
	return nil
}

// SaveFile saves into the named file.
func (p *Printer) SaveFile(name string) error {
	fh, err := os.Create(name)
	if err != nil {
		return err
	}
	if err = p.Save(fh); err != nil {
		fh.Close()
		return err
	}
	return fh.Close()
}
