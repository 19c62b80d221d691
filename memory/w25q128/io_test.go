package w25q128

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIO(t *testing.T) {
	f, _ := newTestFlash(t)
	dev := NewIO(context.Background(), f)
	assert.Equal(t, int64(testGeometry.Capacity), dev.Size())

	n, err := dev.WriteAt([]byte("hello"), 4090)
	require.NoError(t, err)
	assert.Equal(t, 5, n)

	buf := make([]byte, 5)
	n, err = dev.ReadAt(buf, 4090)
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, "hello", string(buf))

	// io.SectionReader relies on ReadAt semantics.
	got, err := io.ReadAll(io.NewSectionReader(dev, 4090, 5))
	require.NoError(t, err)
	assert.Equal(t, "hello", string(got))
}

func TestIO_Bounds(t *testing.T) {
	f, _ := newTestFlash(t)
	dev := NewIO(context.Background(), f)
	end := dev.Size()

	buf := make([]byte, 8)
	n, err := dev.ReadAt(buf, end-4)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, 4, n)

	n, err = dev.ReadAt(buf, end)
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	_, err = dev.ReadAt(buf, -1)
	assert.Error(t, err)

	_, err = dev.WriteAt(buf, end-4)
	assert.ErrorIs(t, err, ErrOutOfRange)

	_, err = dev.WriteAt(buf, -1)
	assert.Error(t, err)
}
