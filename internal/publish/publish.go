// Package publish assigns public URLs to project snapshots. It records the
// publication but does not deploy anything.
package publish

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livetemplate/studio/internal/store"
)

// IDLength is the length of a publication id.
const IDLength = 10

// Publisher records publications for projects.
type Publisher struct {
	store   store.Store
	baseURL string
	now     func() time.Time
	newID   func() string
}

// New creates a Publisher that builds URLs under baseURL.
func New(st store.Store, baseURL string) *Publisher {
	return &Publisher{
		store:   st,
		baseURL: strings.TrimRight(baseURL, "/"),
		now:     time.Now,
		newID:   NewID,
	}
}

// NewID returns an opaque publication id.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:IDLength]
}

// Publish records a new publication of project and returns it.
func (p *Publisher) Publish(ctx context.Context, project string) (store.Publication, error) {
	id := p.newID()
	pub := store.Publication{
		ID:        id,
		Project:   project,
		URL:       p.baseURL + "/" + id,
		CreatedAt: p.now().UTC(),
	}
	if err := p.store.RecordPublication(ctx, pub); err != nil {
		return store.Publication{}, fmt.Errorf("record publication: %w", err)
	}
	return pub, nil
}

// List returns the publications of project, newest first.
func (p *Publisher) List(ctx context.Context, project string) ([]store.Publication, error) {
	return p.store.Publications(ctx, project)
}
