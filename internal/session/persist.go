package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/sakif/blogdeck/internal/apperror"
	"github.com/sakif/blogdeck/internal/model"
)

// Durable storage layout. Values are JSON. The prefix scopes everything
// this application writes, so logout can clear it in one prefix delete.
const (
	KeyPrefix = "blogApp_"

	userKey       = KeyPrefix + "user"
	orgsKey       = KeyPrefix + "organizations"
	currentOrgKey = KeyPrefix + "currentOrganization"
)

// Load rehydrates session state from durable storage. It never fails:
// absent, unreadable, or malformed entries degrade the corresponding piece
// of state to its zero value (no user, empty list, no selection) with a
// warning, so a corrupt store can at worst cost the saved session, never
// the process.
func (s *Store) Load(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.orgs = make(map[string]*model.Organization)
	s.order = nil
	s.currentID = ""

	if raw, ok := s.loadKey(ctx, userKey); ok {
		var user model.User
		if err := json.Unmarshal([]byte(raw), &user); err != nil {
			s.logger.Warn("discarding malformed persisted user", slog.String("error", err.Error()))
		} else {
			s.user = &user
		}
	}

	if raw, ok := s.loadKey(ctx, orgsKey); ok {
		var orgs []model.Organization
		if err := json.Unmarshal([]byte(raw), &orgs); err != nil {
			s.logger.Warn("discarding malformed persisted organizations", slog.String("error", err.Error()))
		} else {
			for i := range orgs {
				org := orgs[i]
				if org.Blogs == nil {
					org.Blogs = []model.Blog{}
				}
				if _, dup := s.orgs[org.ID]; dup {
					s.logger.Warn("skipping duplicate persisted organization", slog.String("id", org.ID))
					continue
				}
				s.orgs[org.ID] = &org
				s.order = append(s.order, org.ID)
			}
		}
	}

	if raw, ok := s.loadKey(ctx, currentOrgKey); ok {
		var current model.Organization
		switch err := json.Unmarshal([]byte(raw), &current); {
		case err != nil:
			s.logger.Warn("discarding malformed persisted selection", slog.String("error", err.Error()))
		default:
			// The selection must refer to a list entry. A stale id (for
			// example from partially cleared storage) degrades to no
			// selection rather than resurrecting an orphan organization.
			if _, ok := s.orgs[current.ID]; ok {
				s.currentID = current.ID
			} else {
				s.logger.Warn("persisted selection not in organization list, ignoring",
					slog.String("id", current.ID),
				)
			}
		}
	}

	s.logger.Info("session rehydrated",
		slog.Bool("user", s.user != nil),
		slog.Int("organizations", len(s.order)),
		slog.Bool("selection", s.currentID != ""),
	)
}

// loadKey reads one key, treating "not found" as a normal absence and any
// other storage error as a degraded (absent) read.
func (s *Store) loadKey(ctx context.Context, key string) (string, bool) {
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, apperror.ErrNotFound) {
			s.logger.Warn("reading persisted state failed",
				slog.String("key", key),
				slog.String("error", err.Error()),
			)
		}
		return "", false
	}
	return raw, true
}

// Persistence is best-effort: a failed durable write is logged and the
// operation carries on, because in-memory state stays authoritative for the
// session and the next successful write re-converges the stored copy.

func (s *Store) persistUser(ctx context.Context) {
	if s.user == nil {
		s.persistDelete(ctx, userKey)
		return
	}
	s.persistSet(ctx, userKey, s.user)
}

func (s *Store) persistOrganizations(ctx context.Context) {
	// Always serialized, even as an empty list, once a session exists.
	s.persistSet(ctx, orgsKey, s.organizationsLocked())
}

func (s *Store) persistCurrent(ctx context.Context) {
	if s.currentID == "" {
		s.persistDelete(ctx, currentOrgKey)
		return
	}
	s.persistSet(ctx, currentOrgKey, s.orgs[s.currentID])
}

func (s *Store) persistSet(ctx context.Context, key string, value any) {
	encoded, err := json.Marshal(value)
	if err != nil {
		s.logger.Warn("encoding persisted state failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
		return
	}
	if err := s.kv.Set(ctx, key, string(encoded)); err != nil {
		s.logger.Warn("writing persisted state failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Store) persistDelete(ctx context.Context, key string) {
	if err := s.kv.Delete(ctx, key); err != nil {
		s.logger.Warn("removing persisted state failed",
			slog.String("key", key),
			slog.String("error", err.Error()),
		)
	}
}
