// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/membuf"
	mtest "github.com/edgeofmagic/util-sub000/test"
)

func init() {
	mtest.RegisterSource("membuf", func(_ string, data []byte) (bstream.Source, error) {
		return membuf.NewSource(append([]byte{}, data...)), nil
	})

	mtest.RegisterSource("membuf-borrowed", func(_ string, data []byte) (bstream.Source, error) {
		return membuf.NewBorrowedSource(data), nil
	})

	mtest.RegisterSink("membuf", func(string) (bstream.Sink, mtest.ReadBackFunc, error) {
		s := membuf.NewSink(16)
		return s, func() ([]byte, error) {
			return append([]byte{}, s.Bytes()...), nil
		}, nil
	})
}
