// Copyright 2026 Tamás Gulácsi.
//
// SPDX-License-Identifier: Apache-2.0

package obj2sheet

import (
	"net/netip"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type animal struct {
	Name string
	Legs int
}

type Cat struct {
	animal
	time.Time
	Name    string
	Lives   int `sheet:"lives left"`
	Secret  string `sheet:"-"`
	private int
	Toys    map[string]int
}

func fieldNames(fields []Field) []string {
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = f.Name
	}
	return names
}

func TestFieldsOf(t *testing.T) {
	s := newSchema()
	fields := s.fieldsOf(reflect.TypeFor[Cat]())
	assert.Equal(t, []string{"Legs", "Name", "Name", "Time", "Toys", "lives left"}, fieldNames(fields))
	assert.Equal(t, 0, fields[1].depth)
	assert.Equal(t, 1, fields[2].depth)
	assert.Equal(t, "time.Time", fields[3].Type)
	assert.True(t, fields[4].Map)
	assert.False(t, fields[0].Map)

	again := s.fieldsOf(reflect.TypeFor[Cat]())
	assert.Same(t, &fields[0], &again[0], "cached")

	c := &Cat{animal: animal{Name: "inner", Legs: 4}, Name: "outer", Lives: 9}
	rv := reflect.ValueOf(c)
	var values []any
	for _, f := range fields {
		v, err := f.get(rv)
		require.NoError(t, err)
		values = append(values, v)
	}
	assert.Equal(t, 4, values[0])
	assert.Equal(t, "outer", values[1])
	assert.Equal(t, "inner", values[2])
	assert.Equal(t, 9, values[5])
}

func TestFieldsOfValue(t *testing.T) {
	s := newSchema()
	fields := s.fieldsOf(reflect.TypeFor[animal]())
	require.Len(t, fields, 2)
	v, err := fields[1].get(reflect.ValueOf(animal{Name: "x"}))
	require.NoError(t, err)
	assert.Equal(t, "x", v)
}

func TestScalarTextMarshaler(t *testing.T) {
	v, role, ok, err := scalar(reflect.ValueOf(netip.MustParseAddr("10.0.0.1")))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, RoleNone, role)
	assert.Equal(t, "10.0.0.1", v)

	_, _, ok, err = scalar(reflect.ValueOf(animal{}))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestIdentities(t *testing.T) {
	sh := &sheet{name: "Cat"}
	ids := newIdentities()
	c := &Cat{}
	rv := reflect.ValueOf(c)
	_, ok := ids.lookup(rv)
	assert.False(t, ok)
	h := ids.mint(rv, sh)
	assert.Equal(t, "Cat 0", ids.get(h).id)
	assert.Equal(t, stateAssigned, ids.get(h).state)
	got, ok := ids.lookup(reflect.ValueOf(c))
	assert.True(t, ok)
	assert.Equal(t, h, got)

	ids.enqueue(h)
	ids.enqueue(h)
	assert.Equal(t, stateQueued, ids.get(h).state)
	assert.Len(t, sh.queue, 1)

	h2 := ids.mint(reflect.ValueOf(*c), sh)
	assert.Equal(t, "Cat 1", ids.get(h2).id)
	_, ok = ids.lookup(reflect.ValueOf(*c))
	assert.False(t, ok, "values have no identity")

	popped, ok := sh.pop()
	assert.True(t, ok)
	assert.Equal(t, h, popped)
	_, ok = sh.pop()
	assert.False(t, ok)
}
