package main

import (
	"context"
	"fmt"

	nb2pdf "github.com/alnah/go-nb2pdf"
)

// CLIConverter is the interface for the conversion service.
type CLIConverter interface {
	Convert(ctx context.Context, input nb2pdf.Input) (*nb2pdf.ConvertResult, error)
	Backend() nb2pdf.Backend
}

// Compile-time interface implementation check.
var _ CLIConverter = (*nb2pdf.Converter)(nil)

// Pool abstracts converter pool operations for testability.
type Pool interface {
	Acquire() (CLIConverter, error)
	Release(CLIConverter)
	Size() int
	Close() error
}

// poolAdapter exposes an *nb2pdf.ConverterPool as a Pool.
type poolAdapter struct {
	pool *nb2pdf.ConverterPool
}

// Compile-time check that poolAdapter implements Pool.
var _ Pool = (*poolAdapter)(nil)

// newConverterPool is the production pool factory. Every converter of the
// pool prints with backend.
func newConverterPool(backend nb2pdf.Backend, size int, opts ...nb2pdf.Option) Pool {
	opts = append([]nb2pdf.Option{nb2pdf.WithBackend(backend)}, opts...)
	return &poolAdapter{pool: nb2pdf.NewConverterPool(size, opts...)}
}

func (a *poolAdapter) Acquire() (CLIConverter, error) {
	c, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return c, nil
}

// Release returns a converter to the pool. Passing a converter that did not
// come from Acquire is a programming error.
func (a *poolAdapter) Release(c CLIConverter) {
	conv, ok := c.(*nb2pdf.Converter)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", c))
	}
	a.pool.Release(conv)
}

func (a *poolAdapter) Size() int {
	return a.pool.Size()
}

func (a *poolAdapter) Close() error {
	return a.pool.Close()
}
