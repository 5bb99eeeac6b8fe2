package main

// Notes:
// - Test infrastructure shared by the CLI tests: a recording mock pool and
//   converter, a buffered Environment, and notebook fixtures.
// - Nothing here launches a browser.

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	nb2pdf "github.com/alnah/go-nb2pdf"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// minimalNotebook is a valid nbformat 4 document with one markdown cell.
const minimalNotebook = `{
 "cells": [{"cell_type": "markdown", "metadata": {}, "source": ["# Report"]}],
 "metadata": {},
 "nbformat": 4,
 "nbformat_minor": 5
}`

// fixedNow is the clock used by test environments.
var fixedNow = time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)

// writeNotebook creates a notebook file under dir and returns its path.
func writeNotebook(t *testing.T, dir, rel string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(minimalNotebook), 0o644); err != nil {
		t.Fatalf("write notebook: %v", err)
	}
	return path
}

// ---------------------------------------------------------------------------
// Mock Implementations
// ---------------------------------------------------------------------------

// mockConverter returns a fixed result and records every input.
type mockConverter struct {
	backend nb2pdf.Backend
	pdf     []byte
	html    []byte
	err     error
	phases  string
	warns   []string

	mu     sync.Mutex
	inputs []nb2pdf.Input
}

func (m *mockConverter) Convert(_ context.Context, in nb2pdf.Input) (*nb2pdf.ConvertResult, error) {
	m.mu.Lock()
	m.inputs = append(m.inputs, in)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}
	return &nb2pdf.ConvertResult{
		HTML:     m.html,
		PDF:      m.pdf,
		Backend:  m.backend,
		Phases:   m.phases,
		Warnings: m.warns,
	}, nil
}

func (m *mockConverter) Backend() nb2pdf.Backend {
	return m.backend
}

func (m *mockConverter) calls() []nb2pdf.Input {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]nb2pdf.Input(nil), m.inputs...)
}

// mockPool hands out one shared converter.
type mockPool struct {
	conv       *mockConverter
	size       int
	acquireErr error

	mu       sync.Mutex
	released int
	closed   bool
}

func (p *mockPool) Acquire() (CLIConverter, error) {
	if p.acquireErr != nil {
		return nil, p.acquireErr
	}
	return p.conv, nil
}

func (p *mockPool) Release(CLIConverter) {
	p.mu.Lock()
	p.released++
	p.mu.Unlock()
}

func (p *mockPool) Size() int {
	if p.size < 1 {
		return 1
	}
	return p.size
}

func (p *mockPool) Close() error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()
	return nil
}

// poolRecorder builds mock pools per backend and remembers them.
type poolRecorder struct {
	pdf []byte
	err error

	mu       sync.Mutex
	pools    []*mockPool
	sizes    []int
	backends []nb2pdf.Backend
}

func (r *poolRecorder) newPool(backend nb2pdf.Backend, size int, _ ...nb2pdf.Option) Pool {
	p := &mockPool{
		conv: &mockConverter{backend: backend, pdf: r.pdf, html: []byte("<html></html>"), err: r.err},
		size: size,
	}
	r.mu.Lock()
	r.pools = append(r.pools, p)
	r.sizes = append(r.sizes, size)
	r.backends = append(r.backends, backend)
	r.mu.Unlock()
	return p
}

// ---------------------------------------------------------------------------
// Environment
// ---------------------------------------------------------------------------

// testEnv returns an Environment writing to buffers with the given
// variables as the process environment.
func testEnv(vars map[string]string, pools *poolRecorder) (*Environment, *bytes.Buffer, *bytes.Buffer) {
	stdout, stderr := &bytes.Buffer{}, &bytes.Buffer{}
	if pools == nil {
		pools = &poolRecorder{pdf: []byte("%PDF-1.7")}
	}
	env := &Environment{
		Now:    func() time.Time { return fixedNow },
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(k string) string { return vars[k] },
		Environ: func() []string {
			out := make([]string, 0, len(vars))
			for k, v := range vars {
				out = append(out, k+"="+v)
			}
			return out
		},
		NewPool: pools.newPool,
	}
	return env, stdout, stderr
}
