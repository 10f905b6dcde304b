package model

import (
	"strings"
	"time"
)

// Organization is a tenant boundary owning an ordered list of blog posts.
//
// Slug is derived from Name via Slugify and is not guaranteed unique across
// organizations: there is no collision check. Organizations are created by
// explicit user action and removed only by logout; the embedded Blogs list
// is the owning side of the blog relationship.
type Organization struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	Blogs       []Blog    `json:"blogs"`
}

// Clone returns a deep copy of the organization. The session store hands
// clones to callers so that no caller ever aliases store-owned state.
func (o *Organization) Clone() *Organization {
	if o == nil {
		return nil
	}
	c := *o
	c.Blogs = make([]Blog, len(o.Blogs))
	copy(c.Blogs, o.Blogs)
	return &c
}

// Slugify derives a URL-safe identifier from an organization name:
// lowercased, runs of non-alphanumeric characters collapsed to a single
// hyphen, leading and trailing hyphens stripped.
//
//	Slugify("Acme Inc!") == "acme-inc"
//	Slugify("  My   Org  ") == "my-org"
func Slugify(name string) string {
	var b strings.Builder
	b.Grow(len(name))

	pendingHyphen := false
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			if pendingHyphen && b.Len() > 0 {
				b.WriteByte('-')
			}
			pendingHyphen = false
			b.WriteRune(r)
			continue
		}
		// Any non-alphanumeric run becomes at most one hyphen, and only
		// if alphanumeric output follows (strips leading/trailing runs).
		pendingHyphen = true
	}
	return b.String()
}
