package main

import (
	"io"
	"os"
	"time"

	nb2pdf "github.com/alnah/go-nb2pdf"
)

// Environment holds injectable dependencies for testability.
type Environment struct {
	Now     func() time.Time
	Stdout  io.Writer
	Stderr  io.Writer
	Getenv  func(string) string
	Environ func() []string
	NewPool func(backend nb2pdf.Backend, size int, opts ...nb2pdf.Option) Pool
}

// DefaultEnv returns the production environment: real I/O, process
// environment and browser-backed converter pools.
func DefaultEnv() *Environment {
	return &Environment{
		Now:     time.Now,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		Getenv:  os.Getenv,
		Environ: os.Environ,
		NewPool: newConverterPool,
	}
}
