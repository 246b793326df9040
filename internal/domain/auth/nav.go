package auth

// NavigationEntry is one sidebar destination. RequiredPermission is empty for
// entries every authenticated user may see.
type NavigationEntry struct {
	Key                string `json:"key"`
	Label              string `json:"label"`
	RequiredPermission string `json:"-"`
}

// DefaultNavigation mirrors the sidebar order of the web client.
var DefaultNavigation = []NavigationEntry{
	{Key: "dashboard", Label: "Dashboard"},
	{Key: "employees", Label: "Employees"},
	{Key: "attendance", Label: "Attendance"},
	{Key: "time-off", Label: "Time Off"},
	{Key: "projects", Label: "Projects"},
	{Key: "clients", Label: "Clients", RequiredPermission: PermClientRead},
	{Key: "documents", Label: "Documents"},
	{Key: "admin", Label: "Admin", RequiredPermission: PermRoleRead},
}

// VisibleNavigation filters entries through the permission set, preserving
// order.
func VisibleNavigation(entries []NavigationEntry, perms PermissionSet) []NavigationEntry {
	visible := make([]NavigationEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.RequiredPermission == "" || perms.Has(entry.RequiredPermission) {
			visible = append(visible, entry)
		}
	}
	return visible
}

// ActiveNavigation resolves the active entry key. When the current selection
// is absent or no longer visible (e.g. after a role reassignment), the first
// visible entry becomes the default. Empty when nothing is visible.
func ActiveNavigation(entries []NavigationEntry, perms PermissionSet, current string) string {
	visible := VisibleNavigation(entries, perms)
	for _, entry := range visible {
		if entry.Key == current {
			return current
		}
	}
	if len(visible) == 0 {
		return ""
	}
	return visible[0].Key
}
