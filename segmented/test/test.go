// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package test

import (
	bstream "github.com/edgeofmagic/util-sub000"
	"github.com/edgeofmagic/util-sub000/segmented"
	mtest "github.com/edgeofmagic/util-sub000/test"
)

// split cuts data into segments of repeating uneven sizes.
func split(data []byte) []*bstream.Shared {
	sizes := []int{32, 16, 1, 4, 2, 1, 1, 300}
	var segs []*bstream.Shared
	for i := 0; len(data) > 0; i++ {
		n := sizes[i%len(sizes)]
		if n > len(data) {
			n = len(data)
		}
		segs = append(segs, bstream.CopyShared(data[:n]))
		data = data[n:]
	}
	return segs
}

func init() {
	mtest.RegisterSource("segmented", func(_ string, data []byte) (bstream.Source, error) {
		return segmented.NewSharedSource(split(data)...)
	})

	mtest.RegisterSource("segmented-appended", func(_ string, data []byte) (bstream.Source, error) {
		src, err := segmented.NewSource()
		if err != nil {
			return nil, err
		}
		for _, seg := range split(data) {
			if err := src.Append(bstream.WrapBuffer(seg.Bytes())); err != nil {
				return nil, err
			}
		}
		return src, nil
	})

	mtest.RegisterSink("segmented", func(string) (bstream.Sink, mtest.ReadBackFunc, error) {
		s, err := segmented.NewSink([]*bstream.Buffer{bstream.NewFixedBuffer(8)}, segmented.WithGrowth(24))
		if err != nil {
			return nil, nil, err
		}
		return s, func() ([]byte, error) {
			if err := s.Flush(); err != nil {
				return nil, err
			}
			segs, err := s.Detach()
			if err != nil {
				return nil, err
			}
			out := []byte{}
			for _, seg := range segs {
				out = append(out, seg.Bytes()...)
			}
			return out, nil
		}, nil
	})
}
