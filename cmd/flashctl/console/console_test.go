package console

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatch(t *testing.T) {
	c := []string{No, Yes}
	assert.Equal(t, No, match("", c))
	assert.Equal(t, Yes, match(" Y ", c))
	assert.Equal(t, No, match("yes please", c))
	assert.Equal(t, No, match("n", c))
}

func TestDump(t *testing.T) {
	DisableColors()
	var out bytes.Buffer
	SetOutput(&out, &out)

	Dump(0x001000, []byte("hello, flash chip\x00\xff"))
	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	assert.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "001000  68 65 6C 6C 6F"))
	assert.True(t, strings.HasSuffix(lines[0], "|hello, flash chi|"))
	assert.True(t, strings.HasPrefix(lines[1], "001010  70 00 FF"))
	assert.True(t, strings.HasSuffix(lines[1], "|p..|"))
}

func TestVerbose(t *testing.T) {
	ctx := context.Background()
	assert.False(t, IsVerbose(ctx))
	assert.True(t, IsVerbose(WithVerbose(ctx, true)))
}
