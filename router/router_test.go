package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindLiteralFastPath(t *testing.T) {
	r := New()
	r.Register([]string{"GET"}, "/hello", "handler-hello")

	target, ok := r.Find("/hello")
	require.True(t, ok)
	assert.Equal(t, "handler-hello", target.Handler)
}

func TestFindMiss(t *testing.T) {
	r := New()
	r.Register([]string{"GET"}, "/hello", "h")
	_, ok := r.Find("/nope")
	assert.False(t, ok)
}

func TestMethodNotAllowedDistinguishedByCaller(t *testing.T) {
	r := New()
	r.Register([]string{"GET"}, "/x", "h")
	target, ok := r.Find("/x")
	require.True(t, ok)
	assert.False(t, target.Methods["POST"])
}

func TestRegexRegistrationOrderingDoesNotShadowEarlier(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterPattern([]string{"GET"}, "/a/[0-9]+", "first"))
	require.NoError(t, r.RegisterPattern([]string{"GET"}, "/a/.*", "second"))

	target, ok := r.Find("/a/42")
	require.True(t, ok)
	assert.Equal(t, "first", target.Handler)
}

func TestRegexFullMatchBothEndsAnchored(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterPattern([]string{"GET"}, "/a", "h"))

	_, ok := r.Find("/ab")
	assert.False(t, ok, "Find(/ab) matched /a pattern; want anchored full match only")

	_, ok = r.Find("x/a")
	assert.False(t, ok, "Find(x/a) matched /a pattern; want anchored full match only")

	_, ok = r.Find("/a")
	assert.True(t, ok, "Find(/a) did not match")
}

func TestLiteralTakesPrecedenceOverRegex(t *testing.T) {
	r := New()
	require.NoError(t, r.RegisterPattern([]string{"GET"}, "/x", "regex"))
	r.Register([]string{"GET"}, "/x", "literal")

	target, ok := r.Find("/x")
	require.True(t, ok)
	assert.Equal(t, "literal", target.Handler)
}
