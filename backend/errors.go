// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package backend

import "errors"

const cacheLineSize = 32

var errShortForward = errors.New("backend: forward jump does not fit before method end")

// checkPatchAlignment enforces spec.md §4.I's PatchCallSite invariant: the
// four patch bytes must not straddle a cache line, since a torn write
// there could be observed half-old half-new by a concurrently executing
// thread.
func checkPatchAlignment(offset int) error {
	lineOffset := offset % cacheLineSize
	if lineOffset+4 > cacheLineSize {
		return errPatchStraddlesCacheLine
	}
	return nil
}

var errPatchStraddlesCacheLine = errors.New("backend: patch site straddles a cache line")
