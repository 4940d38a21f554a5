package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

type MockMirror struct {
	mock.Mock
}

func (m *MockMirror) Put(ctx context.Context, key string, r io.Reader, size int64) error {
	args := m.Called(ctx, key, r, size)
	return args.Error(0)
}

func (m *MockMirror) RemovePrefix(ctx context.Context, prefix string) error {
	args := m.Called(ctx, prefix)
	return args.Error(0)
}
