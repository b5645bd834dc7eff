package server

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/livetemplate/studio/internal/builder"
)

// session is one visual builder session. Its state is only touched while
// mu is held.
type session struct {
	id    string
	mu    sync.Mutex
	state *builder.State
}

// sessionRegistry keeps builder sessions alive for ttl after their last use
// so a reconnecting page can resume.
type sessionRegistry struct {
	cache    *cache.Cache
	newState func() *builder.State
}

func newSessionRegistry(ttl, cleanup time.Duration, newState func() *builder.State) *sessionRegistry {
	if newState == nil {
		newState = func() *builder.State { return builder.New() }
	}
	return &sessionRegistry{
		cache:    cache.New(ttl, cleanup),
		newState: newState,
	}
}

// acquire returns the session with id, or a new one when id is empty or
// unknown. The session's expiry is refreshed.
func (r *sessionRegistry) acquire(id string) (*session, bool) {
	if id != "" {
		if x, found := r.cache.Get(id); found {
			s := x.(*session)
			r.cache.Set(s.id, s, cache.DefaultExpiration)
			return s, true
		}
	}
	s := &session{id: uuid.NewString(), state: r.newState()}
	r.cache.Set(s.id, s, cache.DefaultExpiration)
	return s, false
}

// touch refreshes the expiry of an active session.
func (r *sessionRegistry) touch(s *session) {
	r.cache.Set(s.id, s, cache.DefaultExpiration)
}

func (r *sessionRegistry) count() int {
	return r.cache.ItemCount()
}
