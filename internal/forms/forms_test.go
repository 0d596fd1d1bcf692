package forms

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/studio/pkg/apiclient"
)

func newValidator(t *testing.T) *Validator {
	t.Helper()
	v, err := NewValidator()
	require.NoError(t, err)
	return v
}

func TestValidatorStruct(t *testing.T) {
	t.Parallel()

	v := newValidator(t)

	err := v.Struct("en-US", apiclient.RegisterRequest{Email: "nope", Password: "short"})
	var fe FieldErrors
	require.ErrorAs(t, err, &fe)
	require.Contains(t, fe, "email")
	require.Contains(t, fe, "password")
	require.Contains(t, fe, "first_name")
	require.Contains(t, fe["email"], "valid email")

	require.NoError(t, v.Struct("en-US", apiclient.RegisterRequest{
		Email:     "ana@studio.test",
		Password:  "long-enough",
		FirstName: "Ana",
		LastName:  "Lopez",
	}))
}

func TestValidatorVar(t *testing.T) {
	t.Parallel()

	v := newValidator(t)

	require.Empty(t, v.Var("en-US", "ana@studio.test", "required,email"))
	require.Empty(t, v.Var("en-US", "anything", ""))
	require.Contains(t, v.Var("en-US", "nope", "required,email"), "valid email")
	require.Equal(t, "cannot be blank", v.Var("en-US", "   ", "notblank"))
	require.Equal(t, "no puede estar vacío", v.Var("es-ES", "   ", "notblank"))
	require.NotEmpty(t, v.Var("fr-FR", "", "required"))
}

type commitRecorder struct {
	calls []string
	err   error
}

func (c *commitRecorder) commit(_ context.Context, field, value string) error {
	c.calls = append(c.calls, field+"="+value)
	return c.err
}

func newForm(t *testing.T, rec *commitRecorder) *EditableForm {
	t.Helper()
	f := NewEditableForm(newValidator(t), "en-US", []Field{
		{Name: "first_name", Rule: "notblank,max=64"},
		{Name: "email", Rule: "required,email"},
	}, rec.commit)
	f.Load(map[string]string{"first_name": "Ana", "email": "ana@studio.test"})
	return f
}

func TestEditableForm(t *testing.T) {
	t.Parallel()

	t.Run("save changed value", func(t *testing.T) {
		t.Parallel()
		rec := &commitRecorder{}
		f := newForm(t, rec)

		require.NoError(t, f.Edit("first_name"))
		require.NoError(t, f.Change("Anna"))
		require.True(t, f.CanSave())
		require.NoError(t, f.Save(t.Context()))

		require.Equal(t, []string{"first_name=Anna"}, rec.calls)
		snap := f.Snapshot()
		require.Equal(t, Idle, snap.Mode)
		require.Equal(t, "Anna", snap.Fields["first_name"].ServerValue)
		require.False(t, snap.Fields["first_name"].Dirty)
	})

	t.Run("unchanged value closes without commit", func(t *testing.T) {
		t.Parallel()
		rec := &commitRecorder{}
		f := newForm(t, rec)

		require.NoError(t, f.Edit("email"))
		require.NoError(t, f.Change("ana@studio.test"))
		require.False(t, f.CanSave())
		require.NoError(t, f.Save(t.Context()))
		require.Empty(t, rec.calls)
		require.Equal(t, Idle, f.Snapshot().Mode)
	})

	t.Run("invalid value blocks save", func(t *testing.T) {
		t.Parallel()
		rec := &commitRecorder{}
		f := newForm(t, rec)

		require.NoError(t, f.Edit("email"))
		require.NoError(t, f.Change("not-an-email"))
		require.False(t, f.CanSave())
		require.NotEmpty(t, f.Field("email").Err)

		require.ErrorIs(t, f.Save(t.Context()), ErrInvalid)
		require.Empty(t, rec.calls)
		require.Equal(t, Editing, f.Snapshot().Mode)
		require.Equal(t, "not-an-email", f.Field("email").Value)
	})

	t.Run("commit failure keeps the field open", func(t *testing.T) {
		t.Parallel()
		rec := &commitRecorder{err: errors.New("boom")}
		f := newForm(t, rec)

		require.NoError(t, f.Edit("email"))
		require.NoError(t, f.Change("new@studio.test"))
		require.EqualError(t, f.Save(t.Context()), "boom")

		snap := f.Snapshot()
		require.Equal(t, Editing, snap.Mode)
		require.Equal(t, "email", snap.Active)
		require.Equal(t, "new@studio.test", snap.Fields["email"].Value)
		require.Equal(t, "ana@studio.test", snap.Fields["email"].ServerValue)
	})

	t.Run("cancel restores server value", func(t *testing.T) {
		t.Parallel()
		f := newForm(t, &commitRecorder{})

		require.NoError(t, f.Edit("first_name"))
		require.NoError(t, f.Change(""))
		f.Cancel()

		st := f.Field("first_name")
		require.Equal(t, "Ana", st.Value)
		require.Empty(t, st.Err)
		require.False(t, st.Touched)
		require.Equal(t, Idle, f.Snapshot().Mode)
	})

	t.Run("one field at a time", func(t *testing.T) {
		t.Parallel()
		f := newForm(t, &commitRecorder{})

		require.NoError(t, f.Edit("first_name"))
		require.NoError(t, f.Change("Draft"))
		require.NoError(t, f.Edit("email"))

		snap := f.Snapshot()
		require.Equal(t, "email", snap.Active)
		require.Equal(t, "Ana", snap.Fields["first_name"].Value)
	})

	t.Run("operations without an open field", func(t *testing.T) {
		t.Parallel()
		f := newForm(t, &commitRecorder{})

		require.ErrorIs(t, f.Change("x"), ErrNotEditing)
		require.ErrorIs(t, f.Save(t.Context()), ErrNotEditing)
		require.ErrorIs(t, f.Edit("nope"), ErrUnknownField)
		require.False(t, f.CanSave())
		require.Equal(t, []string{"first_name", "email"}, f.Names())
	})

	t.Run("load keeps the open draft", func(t *testing.T) {
		t.Parallel()
		f := newForm(t, &commitRecorder{})

		require.NoError(t, f.Edit("first_name"))
		require.NoError(t, f.Change("Draft"))
		f.Load(map[string]string{"first_name": "Server", "email": "x@studio.test"})

		require.Equal(t, "Draft", f.Field("first_name").Value)
		require.Equal(t, "Server", f.Field("first_name").ServerValue)
		require.Equal(t, "x@studio.test", f.Field("email").Value)
	})
}
