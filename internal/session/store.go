// Package session implements the session store: the single owner of the
// signed-in user, the organization list, and the current organization
// selection. All mutations go through the store; UI-facing layers only read
// snapshots and invoke operations.
//
// Internally organizations live in one id-indexed arena (a map plus an
// insertion-order slice) and the current selection is an id resolved at
// read time. The original design kept two copies of the selected
// organization that had to be updated in lockstep; indexing by id removes
// that divergence hazard structurally.
package session

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/blogdeck/internal/apperror"
	"github.com/sakif/blogdeck/internal/auth"
	"github.com/sakif/blogdeck/internal/model"
	"github.com/sakif/blogdeck/internal/repository"
)

// Store holds session state and provides atomic-per-call mutations.
//
// A single mutex serializes every operation, so a mutation is one
// indivisible step and readers can never observe it half-applied. State
// handed out (snapshots, returned entities) is always a deep copy; callers
// never alias store-owned memory.
type Store struct {
	kv     repository.KVStore
	authn  auth.Authenticator
	logger *slog.Logger

	mu        sync.Mutex
	user      *model.User
	orgs      map[string]*model.Organization // arena keyed by organization id
	order     []string                       // insertion order of organization ids
	currentID string                         // "" means no selection
}

// New creates a Store persisting into kv and authenticating through authn.
// Call Load afterwards to rehydrate any previously saved session.
func New(kv repository.KVStore, authn auth.Authenticator, logger *slog.Logger) *Store {
	return &Store{
		kv:     kv,
		authn:  authn,
		logger: logger,
		orgs:   make(map[string]*model.Organization),
	}
}

// Snapshot is a read-only copy of the full session triple.
type Snapshot struct {
	User                *model.User          `json:"user"`
	Organizations       []model.Organization `json:"organizations"`
	CurrentOrganization *model.Organization  `json:"currentOrganization"`
}

// Login authenticates with the configured authenticator and installs the
// returned user as the active session identity.
func (s *Store) Login(ctx context.Context, email, password string) (*model.User, error) {
	return s.authenticate(ctx, email, password, false)
}

// Signup registers through the configured authenticator and installs the
// returned user. With the default mock authenticator this is behaviorally
// identical to Login; the local-registry variant rejects duplicate emails.
func (s *Store) Signup(ctx context.Context, email, password string) (*model.User, error) {
	return s.authenticate(ctx, email, password, true)
}

func (s *Store) authenticate(ctx context.Context, email, password string, register bool) (*model.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if password == "" {
		return nil, apperror.ValidationFailed("password", "password is required")
	}

	var (
		user *model.User
		err  error
	)
	if register {
		user, err = s.authn.Register(ctx, email, password)
	} else {
		user, err = s.authn.Authenticate(ctx, email, password)
	}
	if err != nil {
		return nil, err
	}

	return s.install(ctx, user)
}

// StartSession installs an identity that was authenticated outside the
// credential flow, such as the federated OAuth callback. The rest of the
// session semantics are identical to Login.
func (s *Store) StartSession(ctx context.Context, user *model.User) (*model.User, error) {
	if user == nil || user.ID == "" {
		return nil, apperror.ValidationFailed("user", "a user with an id is required")
	}
	u := *user
	return s.install(ctx, &u)
}

func (s *Store) install(ctx context.Context, user *model.User) (*model.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = user
	s.persistUser(ctx)
	// The organizations key exists from the moment a session does, even
	// when the list is still empty.
	s.persistOrganizations(ctx)

	s.logger.Info("session started",
		slog.String("userID", user.ID),
		slog.String("email", user.Email),
	)

	u := *user
	return &u, nil
}

// Logout resets the user, the organization list, and the current selection,
// and clears the durable session namespace. It is idempotent: calling it
// with no active session is a no-op that leaves the same empty state.
func (s *Store) Logout(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.user = nil
	s.orgs = make(map[string]*model.Organization)
	s.order = nil
	s.currentID = ""

	// Prefix-scoped clear: only this application's keys, not the whole
	// store the durable backend may be shared with.
	if err := s.kv.DeletePrefix(ctx, KeyPrefix); err != nil {
		s.logger.Warn("clearing persisted session failed; in-memory state is reset regardless",
			slog.String("error", err.Error()),
		)
	}

	s.logger.Info("session ended")
	return nil
}

// CreateOrganization creates a new organization, appends it to the list
// preserving insertion order, and makes it the current selection. The name
// is trimmed and required; the slug is derived from it with no uniqueness
// check across organizations.
func (s *Store) CreateOrganization(ctx context.Context, name, description string) (*model.Organization, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "organization name is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org := &model.Organization{
		ID:          xid.New().String(),
		Name:        name,
		Slug:        model.Slugify(name),
		Description: strings.TrimSpace(description),
		CreatedAt:   time.Now(),
		Blogs:       []model.Blog{},
	}

	s.orgs[org.ID] = org
	s.order = append(s.order, org.ID)
	s.currentID = org.ID

	s.persistOrganizations(ctx)
	s.persistCurrent(ctx)

	s.logger.Info("organization created",
		slog.String("id", org.ID),
		slog.String("slug", org.Slug),
	)

	return org.Clone(), nil
}

// SetCurrentOrganization selects the organization with the given id as
// current. An empty id clears the selection. An id that is not in the
// organization list returns a NotFound error, keeping the invariant that
// the selection always refers to a list entry.
func (s *Store) SetCurrentOrganization(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id == "" {
		s.currentID = ""
		s.persistCurrent(ctx)
		return nil
	}

	if _, ok := s.orgs[id]; !ok {
		return apperror.NotFound("organization", id)
	}

	s.currentID = id
	s.persistCurrent(ctx)
	return nil
}

// CreateBlog appends a new blog to the currently selected organization.
// It fails with a NoSelection error when no organization is selected and a
// validation error when title or content is empty.
func (s *Store) CreateBlog(ctx context.Context, title, content string) (*model.Blog, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "blog title is required")
	}
	if content == "" {
		return nil, apperror.ValidationFailed("content", "blog content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.current()
	if err != nil {
		return nil, err
	}

	now := time.Now()
	blog := model.Blog{
		ID:             xid.New().String(),
		Title:          title,
		Content:        content,
		OrganizationID: org.ID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	org.Blogs = append(org.Blogs, blog)

	s.persistOrganizations(ctx)
	s.persistCurrent(ctx)

	s.logger.Info("blog created",
		slog.String("id", blog.ID),
		slog.String("organizationID", org.ID),
	)

	b := blog
	return &b, nil
}

// UpdateBlog replaces the title and content of the blog with the given id
// in the current organization and bumps UpdatedAt. ID and CreatedAt are
// never touched. Unknown ids return NotFound.
func (s *Store) UpdateBlog(ctx context.Context, blogID, title, content string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperror.ValidationFailed("title", "blog title is required")
	}
	if content == "" {
		return apperror.ValidationFailed("content", "blog content is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.current()
	if err != nil {
		return err
	}

	for i := range org.Blogs {
		if org.Blogs[i].ID != blogID {
			continue
		}
		org.Blogs[i].Title = title
		org.Blogs[i].Content = content
		org.Blogs[i].UpdatedAt = time.Now()

		s.persistOrganizations(ctx)
		s.persistCurrent(ctx)
		return nil
	}

	return apperror.NotFound("blog", blogID)
}

// DeleteBlog removes the blog with the given id from the current
// organization. Unknown ids return NotFound.
func (s *Store) DeleteBlog(ctx context.Context, blogID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	org, err := s.current()
	if err != nil {
		return err
	}

	for i := range org.Blogs {
		if org.Blogs[i].ID != blogID {
			continue
		}
		org.Blogs = append(org.Blogs[:i], org.Blogs[i+1:]...)

		s.persistOrganizations(ctx)
		s.persistCurrent(ctx)

		s.logger.Info("blog deleted",
			slog.String("id", blogID),
			slog.String("organizationID", org.ID),
		)
		return nil
	}

	return apperror.NotFound("blog", blogID)
}

// User returns a copy of the active user, or nil when unauthenticated.
func (s *Store) User() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Organizations returns deep copies of all organizations in insertion order.
func (s *Store) Organizations() []model.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.organizationsLocked()
}

// CurrentOrganization returns a deep copy of the selected organization, or
// nil when nothing is selected.
func (s *Store) CurrentOrganization() *model.Organization {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentCloneLocked()
}

// Snapshot returns a consistent copy of the full session triple, taken
// under one lock acquisition so the three pieces always belong together.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user *model.User
	if s.user != nil {
		u := *s.user
		user = &u
	}

	return Snapshot{
		User:                user,
		Organizations:       s.organizationsLocked(),
		CurrentOrganization: s.currentCloneLocked(),
	}
}

// current resolves the selected organization inside the arena.
// Callers must hold s.mu; the returned pointer is store-owned.
func (s *Store) current() (*model.Organization, error) {
	if s.currentID == "" {
		return nil, apperror.NoSelection()
	}
	org, ok := s.orgs[s.currentID]
	if !ok {
		// Cannot happen while the selection invariant holds, but degrade
		// to the same error rather than panicking on corrupted state.
		return nil, apperror.NoSelection()
	}
	return org, nil
}

func (s *Store) organizationsLocked() []model.Organization {
	out := make([]model.Organization, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, *s.orgs[id].Clone())
	}
	return out
}

func (s *Store) currentCloneLocked() *model.Organization {
	if s.currentID == "" {
		return nil
	}
	return s.orgs[s.currentID].Clone()
}
