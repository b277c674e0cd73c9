package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"acoustid/core/apierr"
	"acoustid/core/fingerprint"
	"acoustid/core/lookup"
	"acoustid/core/params"
	"acoustid/core/submit"
	"acoustid/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeApplications map[string]*model.Application

func (f fakeApplications) FindActiveByAPIKey(_ context.Context, apiKey string) (*model.Application, error) {
	return f[apiKey], nil
}

type fakeAccounts map[string]int64

func (f fakeAccounts) FindIDByAPIKey(_ context.Context, apiKey string) (int64, error) {
	return f[apiKey], nil
}

type fakeLimiter struct {
	calls []string
	err   error
}

func (f *fakeLimiter) Check(_ context.Context, ip string, _ params.Client) error {
	f.calls = append(f.calls, ip)
	return f.err
}

type fakeLookups struct {
	got  *params.LookupParams
	resp *lookup.Response
}

func (f *fakeLookups) Lookup(_ context.Context, p *params.LookupParams, _, _ string) (*lookup.Response, error) {
	f.got = p
	return f.resp, nil
}

type fakeSubmissions struct {
	submitted []*params.SubmitParams
}

func (f *fakeSubmissions) Submit(_ context.Context, p *params.SubmitParams) (*submit.StatusResponse, error) {
	f.submitted = append(f.submitted, p)
	return &submit.StatusResponse{Submissions: []submit.SubmissionStatus{{ID: 1, Status: submit.StatusPending}}}, nil
}

func (f *fakeSubmissions) Status(_ context.Context, ids []int64) (*submit.StatusResponse, error) {
	resp := &submit.StatusResponse{Submissions: []submit.SubmissionStatus{}}
	for _, id := range ids {
		resp.Submissions = append(resp.Submissions, submit.SubmissionStatus{ID: id, Status: submit.StatusPending})
	}
	return resp, nil
}

type testServer struct {
	router      http.Handler
	limiter     *fakeLimiter
	lookups     *fakeLookups
	submissions *fakeSubmissions
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ts := &testServer{
		limiter:     &fakeLimiter{},
		lookups:     &fakeLookups{resp: &lookup.Response{Results: []lookup.Result{{ID: "9ff43b6a-4f16-427c-93c2-92307ca505e0", Score: 0.9}}}},
		submissions: &fakeSubmissions{},
	}
	parser := params.NewParser(
		fakeApplications{"app1key": {ID: 10, Name: "app1", Active: true}},
		fakeAccounts{"user1key": 42},
		"secret",
		30,
	)
	ts.router = NewRouter(NewAPIHandler(parser, ts.limiter, ts.lookups, ts.submissions), NewHealthHandler("master", ""))
	return ts
}

func (ts *testServer) post(path string, values url.Values, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

var testFingerprint = fingerprint.Encode([]int32{1, 2, 3, 4}, 1)

func TestLookupEndpoint(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.post("/v2/lookup", url.Values{
		"client":      {"app1key"},
		"fingerprint": {testFingerprint},
		"duration":    {"120"},
		"meta":        {"recordings"},
	}, "X-Forwarded-For", "10.0.0.1, 10.0.0.2")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, `{"results":[{"id":"9ff43b6a-4f16-427c-93c2-92307ca505e0","score":0.9}],"status":"ok"}`, rec.Body.String())
	assert.Equal(t, []string{"10.0.0.1"}, ts.limiter.calls)
	require.NotNil(t, ts.lookups.got)
	assert.Equal(t, int64(10), ts.lookups.got.ApplicationID)
}

func TestInvalidClientKey(t *testing.T) {
	for _, path := range []string{"/v2/lookup", "/v2/submit"} {
		t.Run(path, func(t *testing.T) {
			ts := newTestServer(t)
			rec := ts.post(path, url.Values{
				"client":      {"wrong"},
				"user":        {"user1key"},
				"fingerprint": {testFingerprint},
				"duration":    {"120"},
			})

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			var body struct {
				Status string `json:"status"`
				Error  struct {
					Code    int    `json:"code"`
					Message string `json:"message"`
				} `json:"error"`
			}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "error", body.Status)
			assert.Equal(t, apierr.CodeInvalidAPIKey, body.Error.Code)
			assert.Equal(t, "invalid API key", body.Error.Message)

			assert.Empty(t, ts.limiter.calls)
			assert.Nil(t, ts.lookups.got)
			assert.Empty(t, ts.submissions.submitted)
		})
	}
}

func TestUnknownFormatRendersJSON(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.post("/v2/lookup", url.Values{"format": {"yaml"}, "client": {"app1key"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "application/json; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), `"code":1`)
}

func TestErrorInRequestedFormat(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.post("/v2/lookup", url.Values{"format": {"xml"}})

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "text/xml; charset=UTF-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "<code>2</code>")
}

func TestRateLimited(t *testing.T) {
	ts := newTestServer(t)
	ts.limiter.err = apierr.TooManyRequests(3)
	rec := ts.post("/v2/lookup", url.Values{
		"client":      {"app1key"},
		"fingerprint": {testFingerprint},
		"duration":    {"120"},
	})

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":14`)
	assert.Nil(t, ts.lookups.got)
}

func TestSubmitAndStatusEndpoints(t *testing.T) {
	ts := newTestServer(t)
	rec := ts.post("/v2/submit", url.Values{
		"client":      {"app1key"},
		"user":        {"user1key"},
		"fingerprint": {testFingerprint},
		"duration":    {"120"},
	}, "X-Real-IP", "10.1.1.1")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"ok","submissions":[{"id":1,"status":"pending"}]}`, rec.Body.String())
	require.Len(t, ts.submissions.submitted, 1)
	assert.Equal(t, int64(42), ts.submissions.submitted[0].AccountID)
	assert.Equal(t, []string{"10.1.1.1"}, ts.limiter.calls)

	rec = ts.post("/v2/submission_status", url.Values{"client": {"app1key"}, "id": {"1"}})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `{"status":"ok","submissions":[{"id":1,"status":"pending"}]}`, rec.Body.String())
}

func TestJSONPCallback(t *testing.T) {
	ts := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v2/submission_status?client=app1key&id=5&format=jsonp&jsoncallback=cb", nil)
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `cb({"status":"ok","submissions":[{"id":5,"status":"pending"}]})`, rec.Body.String())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:1234"
	assert.Equal(t, "192.0.2.1", clientIP(req))

	req.Header.Set("X-Real-IP", "10.0.0.9")
	assert.Equal(t, "10.0.0.9", clientIP(req))

	req.Header.Set("X-Forwarded-For", "10.0.0.7")
	assert.Equal(t, "10.0.0.7", clientIP(req))
}

func TestHealth(t *testing.T) {
	shutdown := filepath.Join(t.TempDir(), "shutdown")
	get := func(h http.Handler, path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		return rec
	}

	master := NewRouter(NewAPIHandler(nil, nil, nil, nil), NewHealthHandler("master", shutdown))
	slave := NewRouter(NewAPIHandler(nil, nil, nil, nil), NewHealthHandler("slave", shutdown))

	assert.Equal(t, http.StatusOK, get(master, "/_health").Code)
	assert.Equal(t, http.StatusServiceUnavailable, get(slave, "/_health").Code)
	assert.Equal(t, http.StatusOK, get(slave, "/_health_ro").Code)
	assert.Equal(t, http.StatusOK, get(slave, "/_health_docker").Code)

	require.NoError(t, os.WriteFile(shutdown, nil, 0o644))
	rec := get(master, "/_health_ro")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "shutdown in process", rec.Body.String())
}
