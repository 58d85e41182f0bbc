package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/Techtaurant/be/internal/model"
)

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) FindRole(ctx context.Context, id uuid.UUID) (model.Role, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(model.Role), args.Error(1)
}

func (m *MockUserRepository) FindByProviderIdentity(ctx context.Context, provider model.Provider, identifier string) (model.User, error) {
	args := m.Called(ctx, provider, identifier)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, u model.User) (model.User, error) {
	args := m.Called(ctx, u)
	return args.Get(0).(model.User), args.Error(1)
}

func (m *MockUserRepository) UpdateRole(ctx context.Context, id uuid.UUID, role model.Role) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, name string, email string, pictureURL string) error {
	args := m.Called(ctx, id, name, email, pictureURL)
	return args.Error(0)
}
