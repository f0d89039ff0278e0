package graphql

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/medconb/internal/common"
	"github.com/dmitrijs2005/medconb/internal/server/auth"
	"github.com/dmitrijs2005/medconb/internal/server/services"
)

// Messages returned to clients. They never say which check failed.
const (
	msgRegistrationDisabled = "Registration is deactivated"
	msgRegistrationFailed   = "Registration failed."
	msgLoginDisabled        = "Password based Login is deactivated."
	msgLoginFailed          = "Login failed."
	msgInternal             = "internal error"
)

// UserService is satisfied by *services.UserService.
type UserService interface {
	Register(ctx context.Context, in services.RegisterInput) (bool, error)
	Login(ctx context.Context, in services.LoginInput) (*services.TokenPayload, error)
}

func (h *Handler) mutationResolvers() map[string]resolverFunc {
	return map[string]resolverFunc{
		"registerUser": h.registerUser,
		"login":        h.login,
	}
}

func (h *Handler) queryResolvers(id auth.Identity) map[string]resolverFunc {
	return map[string]resolverFunc{
		"me": func(ctx context.Context, _ map[string]any) (any, error) {
			if !id.IsAuthenticated() {
				return nil, nil
			}
			return &objectValue{typeName: "Viewer", fields: map[string]any{
				"id":   id.Subject(),
				"name": id.Name(),
			}}, nil
		},
	}
}

func (h *Handler) registerUser(ctx context.Context, args map[string]any) (any, error) {
	req := inputObject(args, "request")
	ok, err := h.users.Register(ctx, services.RegisterInput{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
		Name:     stringField(req, "name"),
	})
	if err != nil {
		return nil, publicError(err, msgRegistrationDisabled, msgRegistrationFailed)
	}
	return ok, nil
}

func (h *Handler) login(ctx context.Context, args map[string]any) (any, error) {
	req := inputObject(args, "request")
	payload, err := h.users.Login(ctx, services.LoginInput{
		Email:    stringField(req, "email"),
		Password: stringField(req, "password"),
	})
	if err != nil {
		return nil, publicError(err, msgLoginDisabled, msgLoginFailed)
	}
	return &objectValue{typeName: "TokenPayload", fields: map[string]any{
		"token": payload.Token,
	}}, nil
}

func publicError(err error, disabled, failed string) error {
	switch {
	case errors.Is(err, common.ErrFeatureDisabled):
		return errors.New(disabled)
	case errors.Is(err, common.ErrRegistrationFailed), errors.Is(err, common.ErrLoginFailed):
		return errors.New(failed)
	default:
		return errors.New(msgInternal)
	}
}

func inputObject(args map[string]any, name string) map[string]any {
	m, _ := args[name].(map[string]any)
	return m
}

func stringField(m map[string]any, name string) string {
	s, _ := m[name].(string)
	return s
}
