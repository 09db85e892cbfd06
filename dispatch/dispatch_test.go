package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gopherhttp/httpd/httperr"
	"github.com/gopherhttp/httpd/message"
)

func req(method, uri string, fields map[string]string) *message.Request {
	r := message.NewRequest()
	r.Method, r.URI, r.Version = method, uri, "HTTP/1.1"
	r.Body = &message.Body{Kind: message.KindForm, Fields: fields}
	return r
}

func TestDispatchBindsDeclaredParamsOnly(t *testing.T) {
	d := New()
	var seenName string
	var sawExtra bool
	d.Handle([]string{"GET"}, "/greet", func(ctx *Context) (any, error) {
		name, _ := ctx.String("name")
		seenName = name
		_, sawExtra = ctx.String("extra")
		return "hi " + name, nil
	}, Param{Name: "name", Kind: ParamString})

	resp := d.Dispatch(req("GET", "/greet", map[string]string{"name": "ada", "extra": "dropped"}))
	assert.Equal(t, 200, resp.Status)
	assert.Equal(t, "ada", seenName)
	assert.False(t, sawExtra, "undeclared param leaked into bound args")
}

func TestDispatchNotFound(t *testing.T) {
	d := New()
	resp := d.Dispatch(req("GET", "/nope", nil))
	assert.Equal(t, 404, resp.Status)
}

func TestDispatchMethodNotAllowed(t *testing.T) {
	d := New()
	d.Handle([]string{"GET"}, "/only-get", func(ctx *Context) (any, error) { return "ok", nil })
	resp := d.Dispatch(req("POST", "/only-get", nil))
	assert.Equal(t, 405, resp.Status)
}

func TestDispatchDomainErrorStatusPropagates(t *testing.T) {
	d := New()
	d.Handle([]string{"GET"}, "/boom", func(ctx *Context) (any, error) {
		return nil, httperr.BadRequest("missing field")
	})
	resp := d.Dispatch(req("GET", "/boom", nil))
	assert.Equal(t, 400, resp.Status)
}

func TestDispatchPendingIsAwaited(t *testing.T) {
	d := New()
	d.Handle([]string{"GET"}, "/later", func(ctx *Context) (any, error) {
		return Pending(func() (any, error) { return "done", nil }), nil
	})
	resp := d.Dispatch(req("GET", "/later", nil))
	require.Equal(t, 200, resp.Status)
	assert.Equal(t, "done", string(resp.Body.Raw))
}

func TestDispatchCookieCarryOver(t *testing.T) {
	d := New()
	d.Handle([]string{"GET"}, "/carry", func(ctx *Context) (any, error) {
		return "ok", nil
	})
	r := req("GET", "/carry", nil)
	message.ParseCookieHeader(r.Cookies, "session=abc")
	resp := d.Dispatch(r)
	assert.True(t, resp.Cookies.Has("session"), "response cookie jar missing carried-over session cookie")
}

func TestKeepCookieWrapsAdHocHandler(t *testing.T) {
	fn := KeepCookie(func(ctx *Context) (any, error) {
		return "ok", nil
	})
	r := req("GET", "/outside-router", nil)
	message.ParseCookieHeader(r.Cookies, "session=abc")

	result, err := fn(&Context{Request: r})
	require.NoError(t, err)
	resp, ok := result.(*message.Response)
	require.True(t, ok, "result = %T; want *message.Response", result)
	assert.True(t, resp.Cookies.Has("session"), "KeepCookie did not carry over the session cookie")
}

func TestPatternRouteFullMatchAnchoring(t *testing.T) {
	d := New()
	err := d.HandlePattern([]string{"GET"}, `/item/\d+`, func(ctx *Context) (any, error) {
		return "item", nil
	})
	require.NoError(t, err)

	resp := d.Dispatch(req("GET", "/item/42", nil))
	assert.Equal(t, 200, resp.Status)

	resp = d.Dispatch(req("GET", "/item/42/extra", nil))
	assert.Equal(t, 404, resp.Status, "unanchored suffix should not match")
}
