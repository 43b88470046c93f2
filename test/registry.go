// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	"testing"
)

var (
	NewSourceFuncs map[string]NewSourceFunc
	NewSinkFuncs   map[string]NewSinkFunc
)

func init() {
	NewSourceFuncs = map[string]NewSourceFunc{}
	NewSinkFuncs = map[string]NewSinkFunc{}
}

func RegisterSource(name string, f NewSourceFunc) {
	NewSourceFuncs[name] = f
}

func RegisterSink(name string, f NewSinkFunc) {
	NewSinkFuncs[name] = f
}

func RunSourceTests(t *testing.T) {
	for name, newSource := range NewSourceFuncs {
		t.Run(name, SourceTest(newSource))
	}
}

func RunSinkTests(t *testing.T) {
	for name, newSink := range NewSinkFuncs {
		t.Run(name, SinkTest(newSink))
	}
}

// RunCodecTests writes values through every sink and reads them back
// through every source.
func RunCodecTests(t *testing.T) {
	for sinkName, newSink := range NewSinkFuncs {
		for srcName, newSource := range NewSourceFuncs {
			t.Run(sinkName+"/"+srcName, CodecTestRoundTrip(newSink, newSource))
		}
	}
}
