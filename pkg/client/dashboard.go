// File: pkg/client/dashboard.go
package client

import (
	"context"
	"fmt"
)

// Tab identifies one dashboard tab.
type Tab string

const (
	TabPosts   Tab = "posts"
	TabProfile Tab = "profile"
	TabAdmin   Tab = "admin"
)

// Dashboard is the view-model behind the signed-in landing page: tab
// selection, per-post action gating and the admin roster. It holds no
// canonical state; everything is derived from the session's cached profile.
type Dashboard struct {
	session   *Session
	activeTab Tab
}

// NewDashboard creates a dashboard defaulting to the posts tab.
func NewDashboard(session *Session) *Dashboard {
	return &Dashboard{session: session, activeTab: TabPosts}
}

// ActiveTab returns the selected tab.
func (d *Dashboard) ActiveTab() Tab {
	return d.activeTab
}

// AvailableTabs lists the tabs the current profile can open. The admin tab
// appears only for admins.
func (d *Dashboard) AvailableTabs() []Tab {
	tabs := []Tab{TabPosts, TabProfile}
	if d.session.Profile().IsAdmin() {
		tabs = append(tabs, TabAdmin)
	}
	return tabs
}

// SelectTab switches to a tab; the admin tab requires the admin role.
func (d *Dashboard) SelectTab(tab Tab) error {
	switch tab {
	case TabPosts, TabProfile:
		d.activeTab = tab
		return nil
	case TabAdmin:
		if !d.session.Profile().IsAdmin() {
			return fmt.Errorf("admin tab requires the admin role")
		}
		d.activeTab = tab
		return nil
	default:
		return fmt.Errorf("unknown tab %q", tab)
	}
}

// Roster fetches the account list for the admin tab. Non-admins get an
// error without a network call, mirroring the tab's visibility gating.
func (d *Dashboard) Roster(ctx context.Context) ([]User, error) {
	if !d.session.Profile().IsAdmin() {
		return nil, fmt.Errorf("admin tab requires the admin role")
	}
	return d.session.ListUsers(ctx)
}

// RoleControlDisabled reports whether the role selector for a roster row is
// disabled. The acting admin cannot change their own role through the
// table.
func (d *Dashboard) RoleControlDisabled(rowUID string) bool {
	profile := d.session.Profile()
	if profile == nil {
		return true
	}
	return profile.UID == rowUID
}

// CanEdit reports whether the current profile may edit a post. Only the
// author can.
func (d *Dashboard) CanEdit(post *Post) bool {
	profile := d.session.Profile()
	return profile != nil && post != nil && profile.UID == post.AuthorID
}

// CanDelete reports whether the current profile may delete a post: the
// author or any admin.
func (d *Dashboard) CanDelete(post *Post) bool {
	profile := d.session.Profile()
	if profile == nil || post == nil {
		return false
	}
	return profile.UID == post.AuthorID || profile.IsAdmin()
}

// DeletePost deletes a post through the feed service after checking the
// gating; the request is not even attempted when CanDelete is false.
func (d *Dashboard) DeletePost(ctx context.Context, posts *PostsService, post *Post) error {
	if !d.CanDelete(post) {
		return fmt.Errorf("you do not have permission to delete this post")
	}
	return posts.Delete(ctx, post.ID)
}
