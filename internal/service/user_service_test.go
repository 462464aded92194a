package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"havenhub/internal/api"
	"havenhub/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type recordingUpdater struct {
	mu    sync.Mutex
	users []models.User
}

func (u *recordingUpdater) UpdateIdentity(ctx context.Context, user models.User) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.users = append(u.users, user)
}

func TestUserService_RegisterRejectsEmptyFields(t *testing.T) {
	backend := new(mockBackend)
	svc := NewUserService(backend, anonymousSession(), nil, testLogger())

	err := svc.Register(context.Background(), models.RegisterRequest{Email: "  ", Password: "secret"})
	require.ErrorIs(t, err, api.ErrInvalidCredentials)

	err = svc.Register(context.Background(), models.RegisterRequest{Email: "a@b.c", Password: ""})
	require.ErrorIs(t, err, api.ErrInvalidCredentials)

	backend.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
}

func TestUserService_RegisterPassesThrough(t *testing.T) {
	backend := new(mockBackend)
	svc := NewUserService(backend, anonymousSession(), nil, testLogger())

	req := models.RegisterRequest{Email: "a@b.c", Password: "secret", FirstName: "Ann"}
	backend.On("Register", mock.Anything, req).Return(nil)

	require.NoError(t, svc.Register(context.Background(), req))
	backend.AssertExpectations(t)
}

func TestUserService_CreateStaffUserAdminOnly(t *testing.T) {
	backend := new(mockBackend)
	svc := NewUserService(backend, sessionWithRoles(models.RoleManager), nil, testLogger())

	_, err := svc.CreateStaffUser(context.Background(), models.CreateUserRequest{Email: "c@h.io", Role: models.RoleCleaner})

	require.ErrorIs(t, err, api.ErrForbidden)
	backend.AssertNotCalled(t, "CreateStaffUser", mock.Anything, mock.Anything)
}

func TestUserService_CreateStaffUserSuccess(t *testing.T) {
	backend := new(mockBackend)
	svc := NewUserService(backend, sessionWithRoles(models.RoleAdmin), nil, testLogger())

	req := models.CreateUserRequest{Email: "c@h.io", Role: models.RoleCleaner}
	created := &models.User{ID: 9, Email: "c@h.io", Roles: []models.Role{models.RoleCleaner}}
	backend.On("CreateStaffUser", mock.Anything, req).Return(created, nil)

	user, err := svc.CreateStaffUser(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)
}

func TestUserService_UpdateProfileSyncsSession(t *testing.T) {
	backend := new(mockBackend)
	updater := &recordingUpdater{}
	svc := NewUserService(backend, sessionWithRoles(models.RoleCustomer), updater, testLogger())

	req := models.ProfileUpdate{FirstName: "New"}
	updated := &models.User{ID: 1, FirstName: "New", Roles: []models.Role{models.RoleCustomer}}
	backend.On("UpdateProfile", mock.Anything, req).Return(updated, nil)

	user, err := svc.UpdateProfile(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "New", user.FirstName)
	require.Len(t, updater.users, 1)
	assert.Equal(t, "New", updater.users[0].FirstName)
}

func TestUserService_UpdateProfileFailureLeavesSession(t *testing.T) {
	backend := new(mockBackend)
	updater := &recordingUpdater{}
	svc := NewUserService(backend, sessionWithRoles(models.RoleCustomer), updater, testLogger())

	backend.On("UpdateProfile", mock.Anything, mock.Anything).Return(nil, api.ErrServer)

	_, err := svc.UpdateProfile(context.Background(), models.ProfileUpdate{FirstName: "New"})
	require.ErrorIs(t, err, api.ErrServer)
	assert.Empty(t, updater.users)
}

func TestUserService_UploadProfileImage(t *testing.T) {
	backend := new(mockBackend)
	updater := &recordingUpdater{}
	svc := NewUserService(backend, sessionWithRoles(models.RoleCustomer), updater, testLogger())

	updated := &models.User{ID: 1, ProfileImageURL: "/uploads/avatar.png"}
	backend.On("UploadProfileImage", mock.Anything, "avatar.png", mock.Anything).Return(updated, nil)

	user, err := svc.UploadProfileImage(context.Background(), "avatar.png", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/avatar.png", user.ProfileImageURL)
	require.Len(t, updater.users, 1)
}

func TestUserService_GuestListRoles(t *testing.T) {
	backend := new(mockBackend)
	backend.On("ReceptionistUsers", mock.Anything).Return([]models.User{{ID: 2}}, nil)

	svc := NewUserService(backend, sessionWithRoles(models.RoleReceptionist), nil, testLogger())
	users, err := svc.GuestList(context.Background())
	require.NoError(t, err)
	assert.Len(t, users, 1)

	svc = NewUserService(backend, sessionWithRoles(models.RoleCustomer), nil, testLogger())
	_, err = svc.GuestList(context.Background())
	require.ErrorIs(t, err, api.ErrForbidden)
}
