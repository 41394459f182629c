package server

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/cratemover/pkg/errors"
	"github.com/matzehuels/cratemover/pkg/pipeline"
	"github.com/matzehuels/cratemover/pkg/supply"
)

const sampleInput = "    [D]    \n[N] [C]    \n[Z] [M] [P]\n 1   2   3 \n\n" +
	"move 1 from 2 to 1\nmove 3 from 1 to 3\nmove 2 from 2 to 1\nmove 1 from 1 to 2\n"

func newTestServer() *Server {
	logger := log.New(io.Discard)
	return New(pipeline.NewRunner(nil, nil, logger), logger)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		r = strings.NewReader(string(data))
	}
	req := httptest.NewRequest(method, path, r)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorBody {
	t.Helper()
	var resp ErrorResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Error
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"status":"ok"`)

	_, err := uuid.Parse(rec.Header().Get(RequestIDHeader))
	assert.NoError(t, err)
}

func TestRequestIDIsReused(t *testing.T) {
	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req = httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(RequestIDHeader, "not-a-uuid")
	rec = httptest.NewRecorder()
	newTestServer().Handler().ServeHTTP(rec, req)
	assert.NotEqual(t, "not-a-uuid", rec.Header().Get(RequestIDHeader))
}

func TestSolve(t *testing.T) {
	s := newTestServer()
	for policy, want := range map[string]string{"sequential": "CMZ", "batch": "MCD", "9001": "MCD"} {
		rec := do(t, s, http.MethodPost, "/v1/solve", map[string]any{"input": sampleInput, "policy": policy})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var res pipeline.Result
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
		assert.Equal(t, want, res.Answer, policy)
		assert.NotEmpty(t, res.RunID)
	}
}

func TestSolveAll(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/v1/solve", map[string]any{"input": sampleInput, "policy": "all"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp SolveAllResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Results, 2)
	assert.Equal(t, supply.PolicySequential, resp.Results[0].Policy)
	assert.Equal(t, "CMZ", resp.Results[0].Answer)
	assert.Equal(t, "MCD", resp.Results[1].Answer)
}

func TestSolveTrace(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/v1/solve", map[string]any{"input": sampleInput, "trace": true})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	require.Len(t, res.Trace, 4)
	assert.Equal(t, supply.StacksOf("ZND", "MC", "P"), res.Trace[0].Stacks)
}

func TestSolveErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
		code   errors.Code
	}{
		{"bad json", "{", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"unknown field", `{"input":"x","colour":"red"}`, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"empty input", map[string]any{"input": ""}, http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"bad policy", map[string]any{"input": sampleInput, "policy": "forklift"}, http.StatusBadRequest, errors.ErrCodeInvalidPolicy},
		{"bad header mode", map[string]any{"input": sampleInput, "header_mode": "roman"}, http.StatusBadRequest, errors.ErrCodeInvalidConfig},
		{"no separator", map[string]any{"input": "[A]\n 1 \n"}, http.StatusBadRequest, errors.ErrCodeSeparatorMissing},
		{"bad header", map[string]any{"input": "[A]\n x \n\n"}, http.StatusBadRequest, errors.ErrCodeMalformedHeader},
		{"bad syntax", map[string]any{"input": "[A]\n 1 \n\nlift 1\n"}, http.StatusBadRequest, errors.ErrCodeInstructionSyntax},
		{"too many", map[string]any{"input": "[A]\n 1 \n\nmove 2 from 1 to 1\n"}, http.StatusUnprocessableEntity, errors.ErrCodeInsufficientUnits},
		{"origin", map[string]any{"input": "[A]\n 1 \n\nmove 1 from 4 to 1\n"}, http.StatusUnprocessableEntity, errors.ErrCodeOriginOutOfRange},
	}
	s := newTestServer()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/v1/solve", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			body := decodeError(t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.Message)
			assert.Equal(t, rec.Header().Get(RequestIDHeader), body.RequestID)
		})
	}
}

func TestSolveLenient(t *testing.T) {
	input := "[A]\n 1 \n\nmove 2 from 1 to 1\n"
	rec := do(t, newTestServer(), http.MethodPost, "/v1/solve", map[string]any{"input": input, "error_mode": "lenient"})
	require.Equal(t, http.StatusOK, rec.Code)

	var res pipeline.Result
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&res))
	assert.Equal(t, "A", res.Answer)
	assert.Equal(t, []int{1}, res.Skipped)
}

func TestStacks(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/v1/stacks", StacksRequest{Input: sampleInput})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StacksResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, supply.StacksOf("ZN", "MCD", "P"), resp.Stacks)
	assert.Equal(t, "NDP", resp.Tops)
	assert.Equal(t, 6, resp.Crates)
}

func TestStacksError(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/v1/stacks", StacksRequest{Input: "[A]\n 1 \n"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, errors.ErrCodeSeparatorMissing, decodeError(t, rec).Code)
}

func TestNotFound(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodPost, "/v2/solve", map[string]any{"input": sampleInput})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, errors.ErrCodeNotFound, body.Code)
	assert.Contains(t, body.Message, "/v2/solve")
	assert.Equal(t, rec.Header().Get(RequestIDHeader), body.RequestID)
}

func TestMethodNotAllowed(t *testing.T) {
	rec := do(t, newTestServer(), http.MethodGet, "/v1/solve", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestListenAndServeShutdown(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- newTestServer().ListenAndServe(ctx, addr) }()

	require.Eventually(t, func() bool {
		resp, err := http.Get("http://" + addr + "/healthz")
		if err != nil {
			return false
		}
		resp.Body.Close()
		return resp.StatusCode == http.StatusOK
	}, 2*time.Second, 20*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
