package screens

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// FilterStudents keeps the students whose full name or email contains
// query, ignoring case. A blank query keeps everyone.
func FilterStudents(students []apiclient.Student, query string) []apiclient.Student {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return students
	}

	var out []apiclient.Student
	for _, s := range students {
		if strings.Contains(strings.ToLower(s.FullName()), q) || strings.Contains(strings.ToLower(s.Email), q) {
			out = append(out, s)
		}
	}
	return out
}

// ExcludeStudents drops the students whose id is in ids.
func ExcludeStudents(students []apiclient.Student, ids []uuid.UUID) []apiclient.Student {
	if len(ids) == 0 {
		return students
	}
	skip := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		skip[id] = struct{}{}
	}

	var out []apiclient.Student
	for _, s := range students {
		if _, ok := skip[s.ID]; !ok {
			out = append(out, s)
		}
	}
	return out
}

// StudentSearch is the student picker used by the payment and roll call
// dialogs.
type StudentSearch struct {
	sub *querycache.Subscription[resources.None, []apiclient.Student]

	mu       sync.Mutex
	query    string
	excluded []uuid.UUID
}

func NewStudentSearch(ctx context.Context, env *Env, excluded ...uuid.UUID) (*StudentSearch, error) {
	sub, err := env.Families.Admin.Students.Subscribe(ctx, resources.None{}, querycache.Options{}, nil)
	if err != nil {
		env.report(err)
	}
	return &StudentSearch{sub: sub, excluded: excluded}, err
}

func (s *StudentSearch) SearchChange(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

func (s *StudentSearch) SetExcluded(ids []uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.excluded = ids
}

// FilteredStudents is every student matching the search.
func (s *StudentSearch) FilteredStudents() []apiclient.Student {
	s.mu.Lock()
	q := s.query
	s.mu.Unlock()
	return FilterStudents(s.sub.State().Data, q)
}

// AvailableStudents is FilteredStudents without the excluded ids.
func (s *StudentSearch) AvailableStudents() []apiclient.Student {
	s.mu.Lock()
	ids := s.excluded
	s.mu.Unlock()
	return ExcludeStudents(s.FilteredStudents(), ids)
}

func (s *StudentSearch) IsLoading() bool { return s.sub.State().IsLoading() }

func (s *StudentSearch) Close() { s.sub.Unsubscribe() }
