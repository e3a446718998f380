package contract

import (
	"context"

	"github.com/huangsam/flowpulse/schema"
	"github.com/stretchr/testify/mock"
)

// MockWorkItemRepository is a mock implementation of WorkItemRepository for testing.
type MockWorkItemRepository struct {
	mock.Mock
}

var _ WorkItemRepository = &MockWorkItemRepository{} // Compile-time check

// ListWorkItems implements the WorkItemRepository interface.
func (m *MockWorkItemRepository) ListWorkItems(ctx context.Context, kind schema.EntityKind, entityID int) ([]schema.WorkItem, error) {
	args := m.Called(ctx, kind, entityID)
	items, _ := args.Get(0).([]schema.WorkItem)
	return items, args.Error(1)
}

// MockWorkItemStore is a mock implementation of WorkItemStore for testing.
type MockWorkItemStore struct {
	MockWorkItemRepository
}

var _ WorkItemStore = &MockWorkItemStore{} // Compile-time check

// SaveWorkItems implements the WorkItemStore interface.
func (m *MockWorkItemStore) SaveWorkItems(ctx context.Context, items []schema.WorkItem) (int, error) {
	args := m.Called(ctx, items)
	return args.Int(0), args.Error(1)
}

// GetEntity implements the WorkItemStore interface.
func (m *MockWorkItemStore) GetEntity(ctx context.Context, kind schema.EntityKind, id int) (schema.Entity, error) {
	args := m.Called(ctx, kind, id)
	entity, _ := args.Get(0).(schema.Entity)
	return entity, args.Error(1)
}

// ListEntities implements the WorkItemStore interface.
func (m *MockWorkItemStore) ListEntities(ctx context.Context, kind schema.EntityKind) ([]schema.Entity, error) {
	args := m.Called(ctx, kind)
	entities, _ := args.Get(0).([]schema.Entity)
	return entities, args.Error(1)
}

// UpsertEntity implements the WorkItemStore interface.
func (m *MockWorkItemStore) UpsertEntity(ctx context.Context, entity schema.Entity) error {
	args := m.Called(ctx, entity)
	return args.Error(0)
}

// GetStatus implements the WorkItemStore interface.
func (m *MockWorkItemStore) GetStatus() (schema.StoreStatus, error) {
	args := m.Called()
	status, _ := args.Get(0).(schema.StoreStatus)
	return status, args.Error(1)
}

// Close implements the WorkItemStore interface.
func (m *MockWorkItemStore) Close() error {
	args := m.Called()
	return args.Error(0)
}
