// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

// bsdump prints the MessagePack values in a file as indented trees, each
// node prefixed with the stream offset it was read from.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"go.mindeco.de/log/level"
	"go.mindeco.de/logging"

	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/codec/msgpack"
	"github.com/edgeofmagic/util-sub000/filestream"
	"github.com/edgeofmagic/util-sub000/internal/persist/badger"
	"github.com/edgeofmagic/util-sub000/iostream"
	"github.com/edgeofmagic/util-sub000/segstore"
)

var check = logging.CheckFatal

var (
	segmentSize = pflag.Int("segment-size", 0, "split the input into segments of this many bytes and read it as a segmented stream")
	useMmap     = pflag.Bool("mmap", false, "map the input file into memory instead of paging it")
	offset      = pflag.Int64("offset", 0, "start decoding at this offset")
	storeDir    = pflag.String("store", "", "badger directory of a segment store")
	name        = pflag.String("name", "", "sequence name in the segment store; with an input file, the file is imported under this name first")
	maxDepth    = pflag.Int("depth", -1, "do not print below this nesting depth (-1 for all)")
)

func main() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <file|->\n", os.Args[0])
		pflag.PrintDefaults()
	}
	pflag.Parse()

	logging.SetupLogging(nil)
	log := logging.Logger("bsdump")

	var input string
	switch pflag.NArg() {
	case 0:
		if *storeDir == "" {
			pflag.Usage()
			os.Exit(1)
		}
	case 1:
		input = pflag.Arg(0)
	default:
		pflag.Usage()
		os.Exit(1)
	}

	src, closer, err := open(input)
	check(err)
	if closer != nil {
		defer closer.Close()
	}

	if *offset != 0 {
		_, err := src.Seek(*offset, bstream.Start)
		check(errors.Wrapf(err, "cannot start at %d", *offset))
	}

	out := bufio.NewWriter(os.Stdout)
	n, err := dump(out, msgpack.NewDecoder(src), *maxDepth)
	check(out.Flush())
	if err != nil {
		level.Error(log).Log("event", "decode failed", "values", n, "pos", src.Position(), "err", err)
		os.Exit(1)
	}
	level.Debug(log).Log("event", "done", "values", n, "size", src.Size())
}

// open picks the stream implementation the flags ask for.
func open(input string) (bstream.Source, io.Closer, error) {
	if *storeDir != "" {
		return openStore(input)
	}
	if input == "-" {
		if *segmentSize > 0 {
			return segments(iostream.NewSource(os.Stdin))
		}
		return iostream.NewSource(os.Stdin), nil, nil
	}
	if *useMmap {
		m, err := filestream.Map(input)
		if err != nil {
			return nil, nil, err
		}
		return m, m, nil
	}
	f, err := filestream.Open(input)
	if err != nil {
		return nil, nil, err
	}
	if *segmentSize > 0 {
		defer f.Close()
		return segments(f)
	}
	return f, f, nil
}

// segments copies src into a segment store held in memory and reopens it,
// which exercises the same path as a persisted store.
func segments(src bstream.Source) (bstream.Source, io.Closer, error) {
	saver, err := badger.New("")
	if err != nil {
		return nil, nil, err
	}
	st, err := segstore.New(saver)
	if err != nil {
		return nil, nil, err
	}
	if err := st.PutStream("input", src, *segmentSize); err != nil {
		return nil, nil, err
	}
	seg, err := st.Open("input")
	if err != nil {
		return nil, nil, err
	}
	return seg, saver, nil
}

func openStore(input string) (bstream.Source, io.Closer, error) {
	if *name == "" {
		return nil, nil, errors.New("--store needs --name")
	}
	saver, err := badger.New(*storeDir)
	if err != nil {
		return nil, nil, err
	}
	st, err := segstore.New(saver, segstore.WithLogger(logging.Logger("segstore")))
	if err != nil {
		saver.Close()
		return nil, nil, err
	}
	if input != "" {
		size := *segmentSize
		if size <= 0 {
			size = filestream.DefaultPageSize
		}
		f, err := filestream.Open(input)
		if err != nil {
			saver.Close()
			return nil, nil, err
		}
		err = st.PutStream(*name, f, size)
		f.Close()
		if err != nil {
			saver.Close()
			return nil, nil, err
		}
	}
	seg, err := st.Open(*name)
	if err != nil {
		saver.Close()
		return nil, nil, err
	}
	return seg, saver, nil
}

// dump prints values until the stream ends and returns how many it printed.
func dump(w io.Writer, dec *msgpack.Decoder, depth int) (int, error) {
	var n int
	for {
		if _, err := dec.PeekCode(); err != nil {
			if bstream.IsReadPastEnd(err) {
				return n, nil
			}
			return n, err
		}
		v, err := dec.ReadValue()
		if err != nil {
			return n, err
		}
		printValue(w, v, 0, depth)
		n++
	}
}

func printValue(w io.Writer, v msgpack.Value, lvl, depth int) {
	indent := strings.Repeat("  ", lvl)
	fmt.Fprintf(w, "%s@%d %s\n", indent, v.Pos, v)
	if depth >= 0 && lvl >= depth {
		return
	}
	for _, it := range v.Items {
		printValue(w, it, lvl+1, depth)
	}
	for _, p := range v.Pairs {
		printValue(w, p.Key, lvl+1, depth)
		printValue(w, p.Val, lvl+2, depth)
	}
}
