package storage

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/date"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/instance"
	"github.com/autodidacticspam-coder/household-manager-sub000/calendar/schedule"
)

// MockStorage implements the Storage interface for testing.
type MockStorage struct {
	mock.Mock
}

// TaskDefinitions implements the Storage interface.
func (m *MockStorage) TaskDefinitions(ctx context.Context, window date.Range) ([]TaskDefinition, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]TaskDefinition), args.Error(1)
}

// TaskExceptions implements the Storage interface.
func (m *MockStorage) TaskExceptions(ctx context.Context, definitionIDs []string) (instance.Tables, error) {
	args := m.Called(ctx, definitionIDs)
	return args.Get(0).(instance.Tables), args.Error(1)
}

// LeaveRequests implements the Storage interface.
func (m *MockStorage) LeaveRequests(ctx context.Context, window date.Range) ([]LeaveRequest, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LeaveRequest), args.Error(1)
}

// LogEntries implements the Storage interface.
func (m *MockStorage) LogEntries(ctx context.Context, window date.Range, categories []string) ([]LogEntry, error) {
	args := m.Called(ctx, window, categories)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]LogEntry), args.Error(1)
}

// ImportantDates implements the Storage interface.
func (m *MockStorage) ImportantDates(ctx context.Context) ([]ImportantDate, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ImportantDate), args.Error(1)
}

// WeeklySchedules implements the Storage interface.
func (m *MockStorage) WeeklySchedules(ctx context.Context) ([]schedule.Weekly, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schedule.Weekly), args.Error(1)
}

// ScheduleOverrides implements the Storage interface.
func (m *MockStorage) ScheduleOverrides(ctx context.Context, window date.Range) (map[schedule.OverrideKey]schedule.Override, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[schedule.OverrideKey]schedule.Override), args.Error(1)
}

// OneOffSchedules implements the Storage interface.
func (m *MockStorage) OneOffSchedules(ctx context.Context, window date.Range) ([]schedule.OneOff, error) {
	args := m.Called(ctx, window)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]schedule.OneOff), args.Error(1)
}
