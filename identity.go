// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"reflect"
	"strconv"
)

type state uint8

const (
	stateUnseen state = iota
	stateAssigned
	stateQueued
	statePrinted
)

func (s state) String() string {
	switch s {
	case stateAssigned:
		return "assigned"
	case stateQueued:
		return "queued"
	case statePrinted:
		return "printed"
	default:
		return "unseen"
	}
}

// handle is the opaque, stable key of a tracked object.
type handle int

type record struct {
	value reflect.Value
	sheet *sheet
	id    string
	state state
}

// identities maps pointers to handles and handles to records.
//
// Holding the pointers keeps them alive, so an address is never
// reused by another object while the printer exists.
type identities struct {
	byRef   map[any]handle
	records []*record
}

func newIdentities() *identities {
	return &identities{byRef: make(map[any]handle)}
}

// lookup returns the handle of a pointer seen before.
func (ids *identities) lookup(rv reflect.Value) (handle, bool) {
	if rv.Kind() != reflect.Pointer {
		return 0, false
	}
	h, ok := ids.byRef[rv.Interface()]
	return h, ok
}

// mint registers a new object on sh and gives it the next identifier of the sheet.
func (ids *identities) mint(rv reflect.Value, sh *sheet) handle {
	h := handle(len(ids.records))
	ids.records = append(ids.records, &record{
		value: rv, sheet: sh, state: stateAssigned,
		id: sh.name + " " + strconv.Itoa(sh.count),
	})
	sh.count++
	if rv.Kind() == reflect.Pointer {
		ids.byRef[rv.Interface()] = h
	}
	return h
}

func (ids *identities) get(h handle) *record { return ids.records[h] }

// enqueue queues the record on its sheet unless it is already queued or printed.
func (ids *identities) enqueue(h handle) {
	rec := ids.records[h]
	if rec.state == stateQueued || rec.state == statePrinted {
		return
	}
	rec.state = stateQueued
	rec.sheet.queue = append(rec.sheet.queue, h)
}

// pop removes the first queued handle of the sheet.
func (sh *sheet) pop() (handle, bool) {
	if len(sh.queue) == 0 {
		return 0, false
	}
	h := sh.queue[0]
	sh.queue[0] = 0
	sh.queue = sh.queue[1:]
	if len(sh.queue) == 0 {
		sh.queue = nil
	}
	return h, true
}
