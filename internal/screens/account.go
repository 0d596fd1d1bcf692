package screens

import (
	"context"
	"fmt"

	"github.com/aussiebroadwan/studio/internal/forms"
	"github.com/aussiebroadwan/studio/internal/querycache"
	"github.com/aussiebroadwan/studio/internal/resources"
	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

// Account fields.
const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
)

// Account is the profile screen: each field is edited and saved on its
// own, and only the changed field is sent.
type Account struct {
	env  *Env
	form *forms.EditableForm
	user *querycache.Subscription[resources.None, apiclient.User]
}

func NewAccount(ctx context.Context, env *Env) (*Account, error) {
	a := &Account{env: env}
	a.form = forms.NewEditableForm(env.Validator, env.Locale, []forms.Field{
		{Name: FieldFirstName, Rule: "notblank,max=64"},
		{Name: FieldLastName, Rule: "notblank,max=64"},
		{Name: FieldEmail, Rule: "required,email"},
	}, a.commit)

	auth := env.Families.Auth
	sub, err := auth.CurrentUser.Subscribe(ctx, resources.None{}, auth.UserOptions(), func(s querycache.State[apiclient.User]) {
		if s.IsSuccess() {
			a.form.Load(fieldValues(s.Data))
		}
	})
	a.user = sub

	if st := sub.State(); st.HasData {
		a.form.Load(fieldValues(st.Data))
	}
	if err != nil {
		env.report(err)
	}
	return a, err
}

func fieldValues(u apiclient.User) map[string]string {
	return map[string]string{
		FieldFirstName: u.FirstName,
		FieldLastName:  u.LastName,
		FieldEmail:     u.Email,
	}
}

// commit sends the one changed field.
func (a *Account) commit(ctx context.Context, field, value string) error {
	var update apiclient.UserUpdate
	switch field {
	case FieldFirstName:
		update.FirstName = &value
	case FieldLastName:
		update.LastName = &value
	case FieldEmail:
		update.Email = &value
	default:
		return fmt.Errorf("%w: %s", forms.ErrUnknownField, field)
	}

	if _, err := a.env.Families.Auth.UpdateMe.Run(ctx, update); err != nil {
		return err
	}
	return nil
}

func (a *Account) User() querycache.State[apiclient.User] { return a.user.State() }

func (a *Account) Form() forms.Snapshot { return a.form.Snapshot() }

func (a *Account) EditField(field string) error { return a.form.Edit(field) }

func (a *Account) ChangeField(value string) error { return a.form.Change(value) }

func (a *Account) CancelField() { a.form.Cancel() }

func (a *Account) CanSave() bool { return a.form.CanSave() }

// SaveField saves the open field. A success closes the field and publishes
// account.update.success; a failure keeps it open and is reported.
func (a *Account) SaveField(ctx context.Context) error {
	before := a.form.Snapshot()

	if err := a.form.Save(ctx); err != nil {
		a.env.report(err)
		return err
	}

	// Unchanged values close silently.
	if st := before.Fields[before.Active]; st.Value != st.ServerValue {
		a.env.Notify.Success("account.update.success")
	}
	return nil
}

func (a *Account) Close() { a.user.Unsubscribe() }
