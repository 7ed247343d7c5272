package utils

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
)

var UserAgent = "mediasaver/1.0 (by u/anon)"

type FastHTTPCaller struct {
	Client *fasthttp.Client
}

var DefaultFastHTTPCaller = &FastHTTPCaller{
	Client: &fasthttp.Client{
		ReadBufferSize:     16 * 1024,
		MaxConnsPerHost:    1024,
		StreamResponseBody: true,
	},
}

func (a FastHTTPCaller) Call(url string, params RequestParams) (*fasthttp.Request, *fasthttp.Response, error) {
	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()

	req.Header.SetMethod(params.Method)
	req.Header.SetUserAgent(UserAgent)
	for key, value := range params.Headers {
		req.Header.Set(key, value)
	}

	switch params.Method {
	case fasthttp.MethodGet, fasthttp.MethodOptions, fasthttp.MethodHead:
		req.SetRequestURI(url)
		for key, value := range params.Query {
			req.URI().QueryArgs().Add(key, value)
		}
		if params.Method == fasthttp.MethodHead {
			resp.SkipBody = true
		}
	case fasthttp.MethodPost:
		req.SetBodyString(strings.Join(params.BodyString, "&"))
		req.SetRequestURI(url)
	default:
		ReleaseRequestResources(req, resp)
		return nil, nil, fmt.Errorf("unsupported method: %s", params.Method)
	}

	var err error
	if params.Redirects > 0 {
		err = a.Client.DoRedirects(req, resp, params.Redirects)
	} else {
		err = a.Client.Do(req, resp)
	}

	if err != nil {
		ReleaseRequestResources(req, resp)
		return nil, nil, fmt.Errorf("request error: %w", err)
	}

	return req, resp, nil
}

type RequestParams struct {
	Method     string            // "GET", "HEAD", "OPTIONS" or "POST"
	Redirects  int               // Number of redirects to follow
	Headers    map[string]string // Common headers for both GET and POST
	Query      map[string]string // Query parameters for GET
	BodyString []string          // Body of the request for POST
}

func Request(link string, params RequestParams) (*fasthttp.Request, *fasthttp.Response, error) {
	req, resp, err := DefaultFastHTTPCaller.Call(link, params)
	if err != nil {
		return nil, nil, err
	}

	return req, resp, nil
}

type RetryCaller struct {
	Caller       *FastHTTPCaller
	MaxAttempts  int
	ExponentBase float64
	StartDelay   time.Duration
	MaxDelay     time.Duration
}

// DefaultRetryCaller is used for JSON API lookups, where a transient 5xx is common.
var DefaultRetryCaller = &RetryCaller{
	Caller:       DefaultFastHTTPCaller,
	MaxAttempts:  3,
	ExponentBase: 2,
	StartDelay:   500 * time.Millisecond,
	MaxDelay:     3 * time.Second,
}

var ErrMaxRetryAttempts = errors.New("max retry attempts reached")

func (r *RetryCaller) Request(url string, params RequestParams) (*fasthttp.Request, *fasthttp.Response, error) {
	var req *fasthttp.Request
	var resp *fasthttp.Response
	var err error

	for i := 0; i < r.MaxAttempts; i++ {
		req, resp, err = r.Caller.Call(url, params)
		if err == nil && resp.StatusCode() < fasthttp.StatusInternalServerError {
			return req, resp, nil
		}
		if err == nil {
			err = fmt.Errorf("unexpected status %d", resp.StatusCode())
			ReleaseRequestResources(req, resp)
		}

		if i == r.MaxAttempts-1 {
			break
		}

		delay := time.Duration(math.Pow(r.ExponentBase, float64(i))) * r.StartDelay
		if delay > r.MaxDelay {
			delay = r.MaxDelay
		}
		time.Sleep(delay)
	}

	return nil, nil, errors.Join(err, ErrMaxRetryAttempts)
}

func ReleaseRequestResources(request *fasthttp.Request, response *fasthttp.Response) {
	if request != nil {
		defer fasthttp.ReleaseRequest(request)
	}
	if response != nil {
		defer fasthttp.ReleaseResponse(response)
	}
}

// ContentType issues a HEAD request and returns the response media type
// without parameters. Redirects are followed.
func ContentType(url string) (string, error) {
	request, response, err := Request(url, RequestParams{
		Method:    fasthttp.MethodHead,
		Redirects: 5,
	})
	if err != nil {
		return "", err
	}
	defer ReleaseRequestResources(request, response)

	if response.StatusCode() != fasthttp.StatusOK {
		return "", fmt.Errorf("unexpected status %d", response.StatusCode())
	}

	contentType, _, _ := strings.Cut(string(response.Header.ContentType()), ";")
	return strings.TrimSpace(contentType), nil
}
