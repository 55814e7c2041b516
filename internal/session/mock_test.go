package session_test

import (
	"context"

	"github.com/contamio/recallctl/pkg/recall"
	"github.com/stretchr/testify/mock"
)

type MockClient struct {
	mock.Mock
}

func (m *MockClient) List(ctx context.Context) (recall.Collection, error) {
	args := m.Called(ctx)

	collection, _ := args.Get(0).(recall.Collection)

	return collection, args.Error(1)
}

func (m *MockClient) Get(ctx context.Context, id string) (recall.Record, error) {
	args := m.Called(ctx, id)

	record, _ := args.Get(0).(recall.Record)

	return record, args.Error(1)
}

func (m *MockClient) Update(ctx context.Context, id string, payload recall.UpdatePayload) (recall.Record, error) {
	args := m.Called(ctx, id, payload)

	record, _ := args.Get(0).(recall.Record)

	return record, args.Error(1)
}
