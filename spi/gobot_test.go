package spi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockGobotConnection struct {
	mock.Mock
}

func (m *mockGobotConnection) ReadCommandData(command []byte, data []byte) error {
	args := m.Called(command, len(data))
	if reply, ok := args.Get(0).([]byte); ok {
		copy(data, reply)
	}
	return args.Error(1)
}

func (m *mockGobotConnection) WriteBytes(data []byte) error {
	return m.Called(data).Error(0)
}

func TestGobotBus_Tx(t *testing.T) {
	c := &mockGobotConnection{}
	c.On("WriteBytes", []byte{0x06}).Return(nil).Once()
	c.On("ReadCommandData", []byte{0x9F}, 3).Return([]byte{0xEF, 0x40, 0x18}, nil).Once()
	bus := &GobotBus{conn: c}

	assert.NoError(t, bus.Tx(context.Background(), []byte{0x06}, nil))
	r := make([]byte, 3)
	assert.NoError(t, bus.Tx(context.Background(), []byte{0x9F}, r))
	assert.Equal(t, []byte{0xEF, 0x40, 0x18}, r)
	c.AssertExpectations(t)
}

func TestGobotBus_NotStarted(t *testing.T) {
	bus := &GobotBus{}
	assert.ErrorIs(t, bus.Tx(context.Background(), []byte{0x05}, make([]byte, 1)), ErrNotStarted)
}
