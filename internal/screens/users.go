package screens

import (
	"context"
	"strconv"

	"github.com/google/uuid"

	"github.com/aussiebroadwan/studio/internal/listing"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Filter keys of the users list.
const (
	FilterRole     = "role"
	FilterIsActive = "is_active"
)

// UsersList is the administration list of accounts.
type UsersList struct {
	*pagedList[apiclient.ListUsersParams, apiclient.User]
	env *Env
}

func NewUsersList(ctx context.Context, env *Env, pageSize int) (*UsersList, error) {
	l, err := newPagedList(ctx, env.Families.Admin.Users, pageSize, usersParams)
	if err != nil {
		env.report(err)
	}
	return &UsersList{pagedList: l, env: env}, err
}

func usersParams(s listing.State) apiclient.ListUsersParams {
	p := apiclient.ListUsersParams{
		Page:      s.Page,
		PageSize:  s.PageSize,
		Search:    s.Search,
		Role:      apiclient.Role(s.Filter(FilterRole)),
		SortBy:    s.SortBy,
		SortOrder: s.SortOrder,
	}
	if v, err := strconv.ParseBool(s.Filter(FilterIsActive)); err == nil {
		p.IsActive = &v
	}
	return p
}

func (l *UsersList) RoleChange(ctx context.Context, role apiclient.Role) error {
	return l.FilterChange(ctx, FilterRole, string(role))
}

// ActiveChange filters on the active flag; nil shows every account.
func (l *UsersList) ActiveChange(ctx context.Context, active *bool) error {
	value := ""
	if active != nil {
		value = strconv.FormatBool(*active)
	}
	return l.FilterChange(ctx, FilterIsActive, value)
}

func (l *UsersList) UpdateUser(ctx context.Context, id uuid.UUID, update apiclient.AdminUserUpdate) error {
	_, err := l.env.Families.Admin.UpdateUser.Run(ctx, resources.UserPatch{UserID: id, Update: update})
	if err != nil {
		l.env.report(err)
		return err
	}
	l.env.Notify.Success("users.updated")
	return nil
}

// DeleteUser removes an account and steps back a page when the last row of
// the last page went away.
func (l *UsersList) DeleteUser(ctx context.Context, id uuid.UUID) error {
	if _, err := l.env.Families.Admin.DeleteUser.Run(ctx, id); err != nil {
		l.env.report(err)
		return err
	}
	l.env.Notify.Success("users.deleted")
	return l.clamp(ctx)
}
