package screens

import (
	"context"

	"github.com/aussiebroadwan/studio/internal/listing"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Filter keys of the sessions list.
const (
	FilterStatus     = "status"
	FilterInstructor = "instructor_id"
)

// SessionsList is the administration list of class sessions.
type SessionsList struct {
	*pagedList[apiclient.ListClassSessionsParams, apiclient.ClassSession]
	env *Env
}

func NewSessionsList(ctx context.Context, env *Env, pageSize int) (*SessionsList, error) {
	l, err := newPagedList(ctx, env.Families.Admin.ClassSessions, pageSize, sessionsParams)
	if err != nil {
		env.report(err)
	}
	return &SessionsList{pagedList: l, env: env}, err
}

func sessionsParams(s listing.State) apiclient.ListClassSessionsParams {
	return apiclient.ListClassSessionsParams{
		Page:         s.Page,
		PageSize:     s.PageSize,
		Search:       s.Search,
		Status:       apiclient.SessionStatus(s.Filter(FilterStatus)),
		InstructorID: s.Filter(FilterInstructor),
		SortBy:       s.SortBy,
		SortOrder:    s.SortOrder,
	}
}

func (l *SessionsList) StatusChange(ctx context.Context, status apiclient.SessionStatus) error {
	return l.FilterChange(ctx, FilterStatus, string(status))
}

func (l *SessionsList) InstructorChange(ctx context.Context, instructorID string) error {
	return l.FilterChange(ctx, FilterInstructor, instructorID)
}
