package linux

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrnoNames(t *testing.T) {
	assert.Equal(t, "EAGAIN", EAGAIN.Error())
	assert.Equal(t, "EAFNOSUPPORT", EAFNOSUPPORT.Error())
	assert.Equal(t, "errno 9999", Errno(9999).Error())
}

func TestWouldBlockAlias(t *testing.T) {
	assert.Equal(t, EAGAIN, EWOULDBLOCK)
}

func TestAsErrno(t *testing.T) {
	e, ok := AsErrno(ECONNREFUSED)
	assert.True(t, ok)
	assert.Equal(t, ECONNREFUSED, e)

	e, ok = AsErrno(fmt.Errorf("connect: %w", ETIMEDOUT))
	assert.True(t, ok)
	assert.Equal(t, ETIMEDOUT, e)

	_, ok = AsErrno(fmt.Errorf("no errno inside"))
	assert.False(t, ok)

	_, ok = AsErrno(nil)
	assert.False(t, ok)
}
