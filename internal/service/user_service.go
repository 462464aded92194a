package service

import (
	"context"
	"io"
	"strings"

	"havenhub/internal/api"
	"havenhub/internal/domain"
	"havenhub/internal/models"

	"github.com/rs/zerolog"
)

// IdentityUpdater propagates profile edits into the held session.
type IdentityUpdater interface {
	UpdateIdentity(ctx context.Context, user models.User)
}

type UserService struct {
	backend domain.Backend
	session domain.SessionReader
	updater IdentityUpdater
	logger  *zerolog.Logger
}

func NewUserService(backend domain.Backend, session domain.SessionReader, updater IdentityUpdater, logger *zerolog.Logger) *UserService {
	return &UserService{
		backend: backend,
		session: session,
		updater: updater,
		logger:  logger,
	}
}

func (s *UserService) Register(ctx context.Context, req models.RegisterRequest) error {
	if strings.TrimSpace(req.Email) == "" || strings.TrimSpace(req.Password) == "" {
		return api.ErrInvalidCredentials
	}
	return s.backend.Register(ctx, req)
}

// CreateStaffUser provisions a staff account (admin only).
func (s *UserService) CreateStaffUser(ctx context.Context, req models.CreateUserRequest) (*models.User, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}
	if !s.session.IsAdmin() {
		return nil, api.ErrForbidden
	}

	user, err := s.backend.CreateStaffUser(ctx, req)
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("role", string(req.Role)).Str("email", req.Email).Msg("staff user created")
	return user, nil
}

func (s *UserService) Profile(ctx context.Context) (*models.User, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}
	return s.backend.Profile(ctx)
}

// UpdateProfile saves the edit and syncs the session identity.
func (s *UserService) UpdateProfile(ctx context.Context, req models.ProfileUpdate) (*models.User, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}

	user, err := s.backend.UpdateProfile(ctx, req)
	if err != nil {
		return nil, err
	}
	if s.updater != nil {
		s.updater.UpdateIdentity(ctx, *user)
	}
	return user, nil
}

func (s *UserService) UploadProfileImage(ctx context.Context, filename string, data io.Reader) (*models.User, error) {
	if !s.session.Authenticated() {
		return nil, api.ErrUnauthenticated
	}

	user, err := s.backend.UploadProfileImage(ctx, filename, data)
	if err != nil {
		return nil, err
	}
	if s.updater != nil {
		s.updater.UpdateIdentity(ctx, *user)
	}
	return user, nil
}

// GuestList is the receptionist's user directory.
func (s *UserService) GuestList(ctx context.Context) ([]models.User, error) {
	if !s.session.HasRole(models.RoleReceptionist) && !s.session.IsAdmin() {
		return nil, api.ErrForbidden
	}
	return s.backend.ReceptionistUsers(ctx)
}
