package application

import (
	"strings"

	"github.com/oksasatya/taskhive/internal/domain/apperror"
	"github.com/oksasatya/taskhive/internal/domain/entity"
)

// keySeparator delimits the parts of a task sort key.
const keySeparator = "#"

// NewTab derives a tab from a user-supplied name: the id is the trimmed,
// lowercased name with whitespace runs replaced by "-".
func NewTab(rawName string) (entity.Tab, error) {
	name := strings.TrimSpace(rawName)
	id := strings.ToLower(strings.Join(strings.Fields(name), "-"))
	if id == "" {
		return entity.Tab{}, apperror.New(apperror.KindInvalidName, "tab name is invalid")
	}
	if strings.Contains(id, keySeparator) {
		return entity.Tab{}, apperror.New(apperror.KindInvalidName, "tab name must not contain '#'")
	}
	return entity.Tab{TabID: id, TabName: name}, nil
}

func validTabID(tabID string) bool {
	return tabID != "" && !strings.Contains(tabID, keySeparator)
}

// ReconcileTabs turns the stored tabs/tabOrder pair into the list shown to
// the user. "main" is always present and comes first when it had to be
// synthesized. Ids in order follow tabOrder; ids only present in tabs are
// appended in stored order; duplicates and dangling order entries are dropped.
func ReconcileTabs(tabs []entity.Tab, order []string) []entity.Tab {
	byID := make(map[string]entity.Tab, len(tabs))
	uniq := make([]entity.Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.TabID == "" {
			continue
		}
		if _, dup := byID[t.TabID]; dup {
			continue
		}
		byID[t.TabID] = t
		uniq = append(uniq, t)
	}

	out := make([]entity.Tab, 0, len(uniq)+1)
	placed := make(map[string]bool, len(uniq)+1)
	if _, ok := byID[entity.MainTabID]; !ok {
		out = append(out, entity.MainTab())
		placed[entity.MainTabID] = true
	}
	for _, id := range order {
		if placed[id] {
			continue
		}
		if t, ok := byID[id]; ok {
			out = append(out, t)
			placed[id] = true
		}
	}
	for _, t := range uniq {
		if !placed[t.TabID] {
			out = append(out, t)
			placed[t.TabID] = true
		}
	}
	return out
}

func findTab(tabs []entity.Tab, tabID string) (entity.Tab, bool) {
	for _, t := range tabs {
		if t.TabID == tabID {
			return t, true
		}
	}
	return entity.Tab{}, false
}
