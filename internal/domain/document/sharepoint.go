package document

import (
	"context"
	"sort"
	"strings"
)

// SharePointBrowser lists a remote document library. The real integration
// talks to Microsoft Graph; deployments without it use the static browser.
type SharePointBrowser interface {
	Browse(ctx context.Context, path string) ([]SharePointItem, error)
}

// StaticSharePoint serves a fixed in-memory tree, keyed by folder path with
// "" as the root. Used in development and as the default when no tenant is
// configured.
type StaticSharePoint struct {
	Tree map[string][]SharePointItem
}

func NewStaticSharePoint() *StaticSharePoint {
	return &StaticSharePoint{Tree: map[string][]SharePointItem{
		"": {
			{ID: "sp-policies", Name: "Policies", Path: "Policies", IsFolder: true},
			{ID: "sp-templates", Name: "Templates", Path: "Templates", IsFolder: true},
		},
		"Policies": {
			{ID: "sp-handbook", Name: "Employee Handbook.pdf", Path: "Policies/Employee Handbook.pdf", Size: 482133},
			{ID: "sp-remote", Name: "Remote Work Policy.pdf", Path: "Policies/Remote Work Policy.pdf", Size: 90412},
		},
		"Templates": {
			{ID: "sp-expense", Name: "Expense Report.xlsx", Path: "Templates/Expense Report.xlsx", Size: 23188},
		},
	}}
}

func (s *StaticSharePoint) Browse(_ context.Context, path string) ([]SharePointItem, error) {
	path = strings.Trim(path, "/")
	items, ok := s.Tree[path]
	if !ok {
		return nil, ruleErr("folder not found: " + path)
	}
	out := append([]SharePointItem(nil), items...)
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsFolder != out[j].IsFolder {
			return out[i].IsFolder
		}
		return out[i].Name < out[j].Name
	})
	return out, nil
}
