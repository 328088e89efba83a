package api

import (
	"context"
	"errors"

	"github.com/soaringjerry/Mindful/internal/services"
)

type authStoreAdapter struct {
	store Store
}

func newAuthStoreAdapter(store Store) services.AuthStore {
	return &authStoreAdapter{store: store}
}

func (a *authStoreAdapter) FindUserByEmail(ctx context.Context, email string) (*services.User, error) {
	u, err := a.store.FindUserByEmail(ctx, email)
	if err != nil || u == nil {
		return nil, err
	}
	return &services.User{ID: u.ID, Email: u.Email, PassHash: u.PassHash, CreatedAt: u.CreatedAt}, nil
}

func (a *authStoreAdapter) AddUser(ctx context.Context, u *services.User) error {
	if u == nil {
		return services.NewInvalidError("user required")
	}
	err := a.store.AddUser(ctx, &User{ID: u.ID, Email: u.Email, PassHash: u.PassHash, CreatedAt: u.CreatedAt})
	if errors.Is(err, ErrDuplicateUser) {
		return services.NewConflictError("email exists")
	}
	return err
}

var _ services.AuthStore = (*authStoreAdapter)(nil)
