// Copyright 2019 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package compilerctx

import (
	"errors"
	"sync"
	"testing"

	"github.com/go-interpreter/c1xgo/target"
)

func TestStubBuildsOnceAndCaches(t *testing.T) {
	ctx := New(target.AMD64, DefaultOptions())
	id := StubID{Kind: "runtime_call", Name: "newInstance", ID: 1}

	var builds int
	build := func() ([]byte, error) {
		builds++
		return []byte{1, 2, 3}, nil
	}

	code1, err := ctx.Stub(id, build)
	if err != nil {
		t.Fatal(err)
	}
	code2, err := ctx.Stub(id, build)
	if err != nil {
		t.Fatal(err)
	}
	if builds != 1 {
		t.Errorf("build ran %d times, want 1", builds)
	}
	if &code1[0] != &code2[0] {
		t.Errorf("Stub returned distinct backing arrays across calls")
	}
}

func TestStubCachesDistinctIDsIndependently(t *testing.T) {
	ctx := New(target.AMD64, DefaultOptions())
	a := StubID{Kind: "runtime_call", Name: "a"}
	b := StubID{Kind: "runtime_call", Name: "b"}

	if _, err := ctx.Stub(a, func() ([]byte, error) { return []byte{1}, nil }); err != nil {
		t.Fatal(err)
	}
	if _, err := ctx.Stub(b, func() ([]byte, error) { return []byte{2}, nil }); err != nil {
		t.Fatal(err)
	}
	if len(ctx.stubs) != 2 {
		t.Errorf("len(ctx.stubs) = %d, want 2", len(ctx.stubs))
	}
}

func TestStubPropagatesBuildError(t *testing.T) {
	ctx := New(target.AMD64, DefaultOptions())
	id := StubID{Kind: "xir_template", Name: "broken"}
	wantErr := errors.New("boom")

	_, err := ctx.Stub(id, func() ([]byte, error) { return nil, wantErr })
	if err != wantErr {
		t.Errorf("Stub error = %v, want %v", err, wantErr)
	}
}

func TestStubConcurrentRequestsBuildOnce(t *testing.T) {
	ctx := New(target.AMD64, DefaultOptions())
	id := StubID{Kind: "enum", Name: "shared"}

	var builds int
	var mu sync.Mutex
	build := func() ([]byte, error) {
		mu.Lock()
		builds++
		mu.Unlock()
		return []byte{9}, nil
	}

	const n = 16
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := ctx.Stub(id, build); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	if builds != 1 {
		t.Errorf("build ran %d times across %d concurrent callers, want 1", builds, n)
	}
}
