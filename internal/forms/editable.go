// Package forms holds the state of editable fields and local validation.
package forms

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

var (
	ErrNotEditing   = errors.New("forms: no field is being edited")
	ErrSaving       = errors.New("forms: a save is in progress")
	ErrInvalid      = errors.New("forms: value is invalid")
	ErrUnknownField = errors.New("forms: unknown field")
)

type Mode int

const (
	Idle Mode = iota
	Editing
	Saving
)

func (m Mode) String() string {
	switch m {
	case Editing:
		return "editing"
	case Saving:
		return "saving"
	default:
		return "idle"
	}
}

// Field declares an editable field and its validator tag.
type Field struct {
	Name string
	Rule string
}

// FieldState is the draft of one field next to its server value.
type FieldState struct {
	Value       string
	ServerValue string
	Err         string
	Touched     bool
	Dirty       bool
}

// CommitFunc sends one changed field to the backend.
type CommitFunc func(ctx context.Context, field, value string) error

// Snapshot is a copy of the form state.
type Snapshot struct {
	Mode   Mode
	Active string
	Fields map[string]FieldState
}

// EditableForm is a set of fields edited one at a time: a field is opened,
// changed, then saved or cancelled. Saving an unchanged value just closes
// the field.
type EditableForm struct {
	validator *Validator
	locale    string
	commit    CommitFunc

	mu     sync.Mutex
	order  []string
	rules  map[string]string
	fields map[string]*FieldState
	mode   Mode
	active string
}

func NewEditableForm(v *Validator, locale string, fields []Field, commit CommitFunc) *EditableForm {
	f := &EditableForm{
		validator: v,
		locale:    locale,
		commit:    commit,
		rules:     make(map[string]string, len(fields)),
		fields:    make(map[string]*FieldState, len(fields)),
	}
	for _, fd := range fields {
		f.order = append(f.order, fd.Name)
		f.rules[fd.Name] = fd.Rule
		f.fields[fd.Name] = &FieldState{}
	}
	return f
}

// Load sets the server values. Fields not being edited take the new value
// as their draft too.
func (f *EditableForm) Load(values map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, value := range values {
		st, ok := f.fields[name]
		if !ok {
			continue
		}
		st.ServerValue = value
		if f.mode == Idle || name != f.active {
			st.Value = value
			st.Dirty = false
			st.Touched = false
			st.Err = ""
		} else {
			st.Dirty = st.Value != value
		}
	}
}

// Edit opens name for editing. Opening another field discards the draft
// of the one currently open.
func (f *EditableForm) Edit(name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.fields[name]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, name)
	}
	if f.mode == Saving {
		return ErrSaving
	}
	if f.mode == Editing && f.active != name {
		f.reset(f.active)
	}

	f.mode = Editing
	f.active = name
	return nil
}

// Change updates the draft of the open field and validates it.
func (f *EditableForm) Change(value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != Editing {
		return ErrNotEditing
	}

	st := f.fields[f.active]
	st.Value = value
	st.Touched = true
	st.Dirty = value != st.ServerValue
	st.Err = f.validator.Var(f.locale, value, f.rules[f.active])
	return nil
}

// Cancel discards the draft and closes the field.
func (f *EditableForm) Cancel() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != Editing {
		return
	}
	f.reset(f.active)
	f.mode = Idle
	f.active = ""
}

// CanSave reports whether the open field holds a valid change.
func (f *EditableForm) CanSave() bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.mode != Editing {
		return false
	}
	st := f.fields[f.active]
	return st.Dirty && st.Err == ""
}

// Save commits the open field. An unchanged value closes the field without
// a request. An invalid value returns ErrInvalid and a failed commit its
// error; in both cases the field stays open with the draft intact.
func (f *EditableForm) Save(ctx context.Context) error {
	f.mu.Lock()
	if f.mode != Editing {
		f.mu.Unlock()
		return ErrNotEditing
	}

	name := f.active
	st := f.fields[name]
	if st.Value == st.ServerValue {
		f.reset(name)
		f.mode, f.active = Idle, ""
		f.mu.Unlock()
		return nil
	}

	st.Touched = true
	if st.Err = f.validator.Var(f.locale, st.Value, f.rules[name]); st.Err != "" {
		f.mu.Unlock()
		return fmt.Errorf("%w: %s: %s", ErrInvalid, name, st.Err)
	}

	value := st.Value
	f.mode = Saving
	f.mu.Unlock()

	err := f.commit(ctx, name, value)

	f.mu.Lock()
	defer f.mu.Unlock()

	if err != nil {
		f.mode = Editing
		return err
	}

	st.ServerValue = value
	f.reset(name)
	f.mode, f.active = Idle, ""
	return nil
}

// reset puts the server value back into the draft. f.mu must be held.
func (f *EditableForm) reset(name string) {
	st := f.fields[name]
	st.Value = st.ServerValue
	st.Err = ""
	st.Touched = false
	st.Dirty = false
}

// Field returns the state of name.
func (f *EditableForm) Field(name string) FieldState {
	f.mu.Lock()
	defer f.mu.Unlock()

	if st, ok := f.fields[name]; ok {
		return *st
	}
	return FieldState{}
}

// Snapshot returns a copy of the whole form.
func (f *EditableForm) Snapshot() Snapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := Snapshot{Mode: f.mode, Active: f.active, Fields: make(map[string]FieldState, len(f.fields))}
	for name, st := range f.fields {
		out.Fields[name] = *st
	}
	return out
}

// Names returns the field names in declaration order.
func (f *EditableForm) Names() []string {
	return slices.Clone(f.order)
}
