package phone

import (
	"context"
	"errors"
	"fmt"

	"github.com/nhle/vulcania/internal/model"
	"github.com/nhle/vulcania/internal/source"
)

// ErrEmptyNumber is returned when the login number is blank.
var ErrEmptyNumber = errors.New("phone number is required")

// Login resolves number to a registered user, registering a new one named
// after the last digits of the number when nobody matches. created reports
// whether a new user was registered.
func Login(ctx context.Context, dir source.Directory, number string) (u model.User, created bool, err error) {
	normalized := Normalize(number)
	if normalized == "" {
		return model.User{}, false, ErrEmptyNumber
	}

	users, err := dir.ListUsers(ctx)
	if err != nil {
		return model.User{}, false, fmt.Errorf("looking up %s: %w", normalized, err)
	}
	if u, ok := Match(number, users); ok {
		return u, false, nil
	}

	u, err = dir.CreateUser(ctx, model.User{
		Name:  DefaultName(normalized),
		Phone: normalized,
	})
	if err != nil {
		return model.User{}, false, fmt.Errorf("registering %s: %w", normalized, err)
	}
	return u, true, nil
}
