package mocks

import "github.com/stretchr/testify/mock"

// MockVisitor records tree traversal callbacks. Pass its Visit method where a
// visit func is expected.
type MockVisitor[N any] struct {
	mock.Mock
}

func (m *MockVisitor[N]) Visit(n N, level int) {
	m.MethodCalled("Visit", n, level)
}
