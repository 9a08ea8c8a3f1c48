package form

import (
	"context"
	"errors"

	"github.com/erazemk/inventrack/internal/api"
	"github.com/erazemk/inventrack/internal/model"
	"github.com/erazemk/inventrack/internal/store"
)

// User notifications.
const (
	MsgUserCreated      = "User created successfully"
	MsgUserCreateFailed = "Failed to create user"
)

// UserAPI is the part of the backend client the user form uses.
type UserAPI interface {
	CreateUser(ctx context.Context, draft model.UserDraft) (*model.User, error)
}

// UserForm creates users. Existing users cannot be edited.
type UserForm struct {
	API    UserAPI
	Cache  Invalidator
	Notify Notifier

	draft model.UserDraft
	open  bool
	pending
}

func (f *UserForm) Open()                   { f.open = true }
func (f *UserForm) Close()                  { f.open = false }
func (f *UserForm) IsOpen() bool            { return f.open }
func (f *UserForm) Draft() model.UserDraft  { return f.draft }
func (f *UserForm) SetUsername(name string) { f.draft.Username = name }
func (f *UserForm) SetEmail(email string)   { f.draft.Email = email }
func (f *UserForm) SetPassword(pw string)   { f.draft.Password = pw }

// Save validates the draft and creates the user. On success the draft is
// reset to blank and the form closes.
func (f *UserForm) Save(ctx context.Context) error {
	if err := f.draft.Validate(); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) {
			f.Notify.NotifyError(verr.Message)
		}
		return err
	}
	if !f.begin() {
		return ErrPending
	}
	defer f.end()

	if _, err := f.API.CreateUser(ctx, f.draft); err != nil && !accepted(err, api.ResourceUsers) {
		f.Notify.NotifyError(api.Message(err, MsgUserCreateFailed))
		return err
	}

	invalidate(ctx, f.Cache, store.KeyUsers)
	f.Notify.NotifySuccess(MsgUserCreated)
	f.draft = model.UserDraft{}
	f.Close()
	return nil
}
