package services

import (
	"time"

	"github.com/stretchr/testify/mock"
)

// FixedTime is used to patch time.Now in tests.
var FixedTime = time.Date(2026, time.February, 10, 0, 0, 0, 0, time.UTC)

// MockDB implements DBInterface with testify/mock so the real service methods
// run against scripted store behavior.
type MockDB struct {
	mock.Mock
}

func (m *MockDB) Where(query interface{}, args ...interface{}) DBInterface {
	m.Called(query, args)
	return m
}

func (m *MockDB) First(dest interface{}, conds ...interface{}) DBInterface {
	m.Called(dest, conds)
	return m
}

func (m *MockDB) Find(dest interface{}, conds ...interface{}) DBInterface {
	m.Called(dest, conds)
	return m
}

func (m *MockDB) Create(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) Save(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) Model(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) Updates(values interface{}) DBInterface {
	m.Called(values)
	return m
}

func (m *MockDB) Select(query interface{}, args ...interface{}) DBInterface {
	m.Called(query, args)
	return m
}

func (m *MockDB) Omit(fields ...string) DBInterface {
	m.Called(fields)
	return m
}

func (m *MockDB) Order(value interface{}) DBInterface {
	m.Called(value)
	return m
}

func (m *MockDB) Limit(limit int) DBInterface {
	m.Called(limit)
	return m
}

func (m *MockDB) Count(count *int64) DBInterface {
	m.Called(count)
	return m
}

func (m *MockDB) Error() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockDB) RowsAffected() int64 {
	args := m.Called()
	return args.Get(0).(int64)
}

// createRecorder collects every object passed to Create so tests can tally
// what a service call persisted.
type createRecorder struct {
	created []interface{}
}

func (r *createRecorder) record(args mock.Arguments) {
	r.created = append(r.created, args.Get(0))
}
