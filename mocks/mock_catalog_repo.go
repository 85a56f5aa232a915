package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"bpextract/internal/domain"
)

// MockCatalogRepo is a mock implementation of port.CatalogRepository.
type MockCatalogRepo struct {
	mock.Mock
}

func (m *MockCatalogRepo) SaveProcess(ctx context.Context, runID uuid.UUID, details *domain.ProcessDetails) error {
	args := m.Called(ctx, runID, details)
	return args.Error(0)
}
