package handlers_test

import (
	"context"
	"errors"

	"github.com/serroba/golinks/internal/links"
	"github.com/serroba/golinks/internal/store"
)

var errMock = errors.New("mock error")

// failingRepo fails every read so handlers hit their error paths.
type failingRepo struct {
	*store.MemoryStore
}

func (f *failingRepo) Get(_ context.Context, _ string) (*links.Link, error) {
	return nil, errMock
}

func (f *failingRepo) List(_ context.Context) ([]links.Link, error) {
	return nil, errMock
}
