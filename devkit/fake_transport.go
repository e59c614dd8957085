// Package devkit provides test doubles for code built on the scoopit client.
package devkit

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/goliatone/go-scoopit/core"
)

const KindFake = "fake"

// TransportScript is one scripted reply. Scripts are consumed in order and
// the last one repeats once the list runs out.
type TransportScript struct {
	Response core.TransportResponse
	Err      error
}

func Reply(status int, body string) TransportScript {
	return TransportScript{Response: core.TransportResponse{
		StatusCode: status,
		Headers:    map[string]string{},
		Body:       []byte(body),
	}}
}

func JSONReply(status int, body string) TransportScript {
	script := Reply(status, body)
	script.Response.Headers["Content-Type"] = "application/json"
	return script
}

func FailWith(err error) TransportScript {
	return TransportScript{Err: err}
}

type FakeTransport struct {
	mu       sync.Mutex
	scripts  []TransportScript
	requests []core.TransportRequest
}

func NewFakeTransport(scripts ...TransportScript) *FakeTransport {
	return &FakeTransport{scripts: append([]TransportScript(nil), scripts...)}
}

func (*FakeTransport) Kind() string {
	return KindFake
}

func (a *FakeTransport) Do(_ context.Context, req core.TransportRequest) (core.TransportResponse, error) {
	if a == nil {
		return core.TransportResponse{}, fmt.Errorf("devkit: fake transport is nil")
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	a.requests = append(a.requests, cloneTransportRequest(req))
	index := len(a.requests) - 1
	if index < len(a.scripts) {
		script := a.scripts[index]
		return cloneTransportResponse(script.Response), script.Err
	}
	if len(a.scripts) > 0 {
		last := a.scripts[len(a.scripts)-1]
		return cloneTransportResponse(last.Response), last.Err
	}
	return core.TransportResponse{
		StatusCode: 200,
		Headers:    map[string]string{},
		Metadata:   map[string]any{"kind": KindFake},
	}, nil
}

// Enqueue appends scripts after the ones already queued.
func (a *FakeTransport) Enqueue(scripts ...TransportScript) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.scripts = append(a.scripts, scripts...)
}

func (a *FakeTransport) Requests() []core.TransportRequest {
	if a == nil {
		return nil
	}
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]core.TransportRequest, 0, len(a.requests))
	for _, item := range a.requests {
		out = append(out, cloneTransportRequest(item))
	}
	return out
}

// LastRequest returns the most recent request, or false when none was sent.
func (a *FakeTransport) LastRequest() (core.TransportRequest, bool) {
	requests := a.Requests()
	if len(requests) == 0 {
		return core.TransportRequest{}, false
	}
	return requests[len(requests)-1], true
}

// RequestParams merges the URL query with a form-encoded body.
func RequestParams(req core.TransportRequest) (url.Values, error) {
	out := url.Values{}
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return nil, err
	}
	for key, values := range parsed.Query() {
		out[key] = append(out[key], values...)
	}
	if strings.HasPrefix(req.Headers["Content-Type"], "application/x-www-form-urlencoded") && len(req.Body) > 0 {
		form, err := url.ParseQuery(string(req.Body))
		if err != nil {
			return nil, err
		}
		for key, values := range form {
			out[key] = append(out[key], values...)
		}
	}
	return out, nil
}

// RequestPath returns the URL path of req without query.
func RequestPath(req core.TransportRequest) string {
	parsed, err := url.Parse(req.URL)
	if err != nil {
		return ""
	}
	return parsed.Path
}

func cloneTransportRequest(in core.TransportRequest) core.TransportRequest {
	out := core.TransportRequest{
		Method:               in.Method,
		URL:                  in.URL,
		Headers:              map[string]string{},
		Body:                 append([]byte(nil), in.Body...),
		Metadata:             map[string]any{},
		MaxResponseBodyBytes: in.MaxResponseBodyBytes,
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

func cloneTransportResponse(in core.TransportResponse) core.TransportResponse {
	out := core.TransportResponse{
		StatusCode: in.StatusCode,
		Headers:    map[string]string{},
		Body:       append([]byte(nil), in.Body...),
		Metadata:   map[string]any{},
	}
	for key, value := range in.Headers {
		out.Headers[key] = value
	}
	for key, value := range in.Metadata {
		out.Metadata[key] = value
	}
	return out
}

var _ core.TransportAdapter = (*FakeTransport)(nil)
