package posting

import (
	"context"
	"sort"
	"strings"
)

// Sort directions for search results.
const (
	SortNewest = "newest"
	SortOldest = "oldest"
)

// Filters is the open set of optional search predicates. All supplied
// filters combine with AND; Keyword alone unions across title,
// organization and description. Absent fields impose no constraint.
type Filters struct {
	Number     string // course/job number, matched against the organization label
	Title      string
	Skill      string // matched against the skill list or the description free text
	Instructor string // posting owner's name
	Standing   string
	Keyword    string
	Status     Status
	Sort       string // newest (default) | oldest
}

// Search answers filter/search/sort queries over the posting set.
func (s *Service) Search(ctx context.Context, f Filters) ([]Posting, error) {
	all, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}

	matched := make([]Posting, 0, len(all))
	for _, p := range all {
		if f.matches(p) {
			matched = append(matched, p)
		}
	}

	oldest := f.Sort == SortOldest
	sort.SliceStable(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if a.CreatedAt.Equal(b.CreatedAt) {
			return a.Seq < b.Seq // insertion order breaks ties either direction
		}
		if oldest {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.CreatedAt.After(b.CreatedAt)
	})
	return matched, nil
}

func (f Filters) matches(p Posting) bool {
	if f.Status != "" && p.Status != f.Status {
		return false
	}
	if !containsFold(p.Organization, f.Number) {
		return false
	}
	if !containsFold(p.Title, f.Title) {
		return false
	}
	if !containsFold(p.OwnerName, f.Instructor) {
		return false
	}
	if f.Skill != "" && !anyFold(p.Skills, f.Skill) && !containsFold(p.Description, f.Skill) {
		return false
	}
	if f.Standing != "" && !anyFold(p.Standings, f.Standing) {
		return false
	}
	if f.Keyword != "" &&
		!containsFold(p.Title, f.Keyword) &&
		!containsFold(p.Organization, f.Keyword) &&
		!containsFold(p.Description, f.Keyword) {
		return false
	}
	return true
}

// containsFold reports a case-insensitive substring match; an empty needle
// matches everything.
func containsFold(haystack, needle string) bool {
	if needle == "" {
		return true
	}
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func anyFold(values []string, needle string) bool {
	for _, v := range values {
		if containsFold(v, needle) {
			return true
		}
	}
	return false
}
