// SPDX-FileCopyrightText: 2026 The bstream Authors
//
// SPDX-License-Identifier: MIT

package all

import (
	// import to register the stream implementations
	_ "github.com/edgeofmagic/util-sub000/filestream/test"
	_ "github.com/edgeofmagic/util-sub000/membuf/test"
	_ "github.com/edgeofmagic/util-sub000/segmented/test"
)
