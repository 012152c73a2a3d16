// Package identity supplies the opaque identity each console acts under and
// the advisory privilege check. Privilege is a static allowlist match on the
// identity's display label; the store never enforces it.
package identity

import "strings"

// Identity is what the identity collaborator produces: an opaque id, a
// display label (the email for signed-in parents) and whether the identity
// is an anonymous kiosk session.
type Identity struct {
	ID          string
	Label       string
	IsAnonymous bool
}

// AllowList is the static set of labels allowed to act as parents
type AllowList struct {
	labels map[string]struct{}
}

// NewAllowList builds an allowlist from configured labels (emails)
func NewAllowList(labels []string) *AllowList {
	set := make(map[string]struct{}, len(labels))
	for _, l := range labels {
		set[strings.ToLower(strings.TrimSpace(l))] = struct{}{}
	}
	return &AllowList{labels: set}
}

// IsPrivileged reports whether the label belongs to a parent. Anonymous
// identities are never privileged.
func (a *AllowList) IsPrivileged(id Identity) bool {
	if id.IsAnonymous {
		return false
	}
	_, ok := a.labels[strings.ToLower(id.Label)]
	return ok
}
