// Package fasthttptest routes the shared fasthttp client to an in-memory
// server for the duration of a test.
package fasthttptest

import (
	"net"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/ruizlenato/mediasaver/internal/utils"
)

// Serve starts handler on an in-memory listener and points the default
// caller at it. Every host name resolves to the same server.
func Serve(t testing.TB, handler fasthttp.RequestHandler) *fasthttp.Client {
	t.Helper()

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = fasthttp.Serve(ln, handler)
	}()

	client := &fasthttp.Client{
		Dial: func(string) (net.Conn, error) {
			return ln.Dial()
		},
	}

	previous := utils.DefaultFastHTTPCaller.Client
	utils.DefaultFastHTTPCaller.Client = client
	t.Cleanup(func() {
		utils.DefaultFastHTTPCaller.Client = previous
		ln.Close()
	})

	return client
}
