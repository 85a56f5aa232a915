package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"bpextract/internal/port"
)

// MockObjectStorage is a mock implementation of port.ObjectStorage. The
// body of every upload is drained so callers see the same behavior as with
// a real bucket.
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, input port.UploadInput) (*port.UploadOutput, error) {
	if input.Body != nil {
		_, _ = io.Copy(io.Discard, input.Body)
	}
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*port.UploadOutput), args.Error(1)
}
