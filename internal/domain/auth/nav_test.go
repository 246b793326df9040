package auth

import "testing"

func TestVisibleNavigationFiltersGatedEntries(t *testing.T) {
	perms := NewPermissionSet(PermClientRead)

	visible := VisibleNavigation(DefaultNavigation, perms)

	keys := make(map[string]bool, len(visible))
	for _, entry := range visible {
		keys[entry.Key] = true
	}
	if !keys["clients"] {
		t.Fatal("clients should be visible with CLIENT_READ")
	}
	if keys["admin"] {
		t.Fatal("admin should be hidden without ROLE_READ")
	}
	if !keys["dashboard"] || !keys["time-off"] {
		t.Fatal("ungated entries must always be visible")
	}
}

func TestVisibleNavigationPreservesOrder(t *testing.T) {
	visible := VisibleNavigation(DefaultNavigation, NewPermissionSet(AllPermissions...))
	if len(visible) != len(DefaultNavigation) {
		t.Fatalf("expected all %d entries visible, got %d", len(DefaultNavigation), len(visible))
	}
	for i, entry := range visible {
		if entry.Key != DefaultNavigation[i].Key {
			t.Fatalf("order changed at %d: %s", i, entry.Key)
		}
	}
}

func TestActiveNavigationKeepsVisibleSelection(t *testing.T) {
	perms := NewPermissionSet(PermRoleRead)
	if got := ActiveNavigation(DefaultNavigation, perms, "admin"); got != "admin" {
		t.Fatalf("expected admin to stay active, got %q", got)
	}
}

func TestActiveNavigationFallsBackToFirstVisible(t *testing.T) {
	perms := NewPermissionSet()

	// Selection hidden after a permission change.
	if got := ActiveNavigation(DefaultNavigation, perms, "admin"); got != "dashboard" {
		t.Fatalf("expected fallback to dashboard, got %q", got)
	}

	// Unknown selection.
	if got := ActiveNavigation(DefaultNavigation, perms, "payroll"); got != "dashboard" {
		t.Fatalf("expected fallback to dashboard, got %q", got)
	}

	if got := ActiveNavigation(nil, perms, "anything"); got != "" {
		t.Fatalf("expected empty result for empty navigation, got %q", got)
	}
}
