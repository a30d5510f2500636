package links_test

import (
	"context"
	"errors"
	"sync"

	"github.com/serroba/golinks/internal/links"
)

var errMock = errors.New("mock error")

// fakeRepo is an in-memory Repository that records lookups and can inject errors.
type fakeRepo struct {
	mu         sync.Mutex
	links      map[string]*links.Link
	gets       []string
	increments []string
	getErr     error
	incErr     error
	createErr  error
	updateErr  error
	deleteErr  error
	listErr    error
}

func newFakeRepo(pairs ...string) *fakeRepo {
	r := &fakeRepo{links: make(map[string]*links.Link)}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.links[pairs[i]] = &links.Link{Name: pairs[i], URL: pairs[i+1]}
	}

	return r
}

func (r *fakeRepo) Get(_ context.Context, name string) (*links.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.gets = append(r.gets, name)

	if r.getErr != nil {
		return nil, r.getErr
	}

	link, ok := r.links[name]
	if !ok {
		return nil, links.ErrNotFound
	}

	cp := *link

	return &cp, nil
}

func (r *fakeRepo) List(_ context.Context) ([]links.Link, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.listErr != nil {
		return nil, r.listErr
	}

	out := make([]links.Link, 0, len(r.links))
	for _, l := range r.links {
		out = append(out, *l)
	}

	return out, nil
}

func (r *fakeRepo) IncrementCount(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.increments = append(r.increments, name)

	if r.incErr != nil {
		return r.incErr
	}

	if l, ok := r.links[name]; ok {
		l.VisitCount++
	}

	return nil
}

func (r *fakeRepo) Create(_ context.Context, name, url string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.createErr != nil {
		return r.createErr
	}

	if _, ok := r.links[name]; ok {
		return links.ErrDuplicateName
	}

	r.links[name] = &links.Link{Name: name, URL: url}

	return nil
}

func (r *fakeRepo) Update(_ context.Context, original, name, url string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.updateErr != nil {
		return false, r.updateErr
	}

	l, ok := r.links[original]
	if !ok {
		return false, nil
	}

	if _, taken := r.links[name]; taken && name != original {
		return false, links.ErrDuplicateName
	}

	delete(r.links, original)
	r.links[name] = &links.Link{Name: name, URL: url, VisitCount: l.VisitCount}

	return true, nil
}

func (r *fakeRepo) Delete(_ context.Context, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.deleteErr != nil {
		return r.deleteErr
	}

	delete(r.links, name)

	return nil
}

// recordingAudit collects audit events.
type recordingAudit struct {
	mu     sync.Mutex
	events []*links.AuditEvent
	err    error
}

func (a *recordingAudit) Log(_ context.Context, event *links.AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.events = append(a.events, event)

	return a.err
}

var (
	_ links.Repository = (*fakeRepo)(nil)
	_ links.AuditLog   = (*recordingAudit)(nil)
)
