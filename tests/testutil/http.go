package testutil

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// HTTPTestCase represents a request against a full handler tree.
type HTTPTestCase struct {
	Name           string
	Method         string
	Path           string
	Body           any
	Headers        map[string]string
	ExpectedStatus int
	ExpectedBody   map[string]any
	Validate       func(t *testing.T, w *httptest.ResponseRecorder)
}

// RunHTTPTestCases runs each case as a subtest against handler.
func RunHTTPTestCases(t *testing.T, handler http.Handler, cases []HTTPTestCase) {
	t.Helper()

	for _, tc := range cases {
		t.Run(tc.Name, func(t *testing.T) {
			RunHTTPTestCase(t, handler, tc)
		})
	}
}

// RunHTTPTestCase sends one request and checks status and top-level body keys.
func RunHTTPTestCase(t *testing.T, handler http.Handler, tc HTTPTestCase) *httptest.ResponseRecorder {
	t.Helper()

	var body io.Reader
	if tc.Body != nil {
		body = ToJSONReader(t, tc.Body)
	}
	method := tc.Method
	if method == "" {
		method = http.MethodGet
	}
	path := tc.Path
	if path == "" {
		path = "/"
	}

	req := httptest.NewRequest(method, path, body)
	if tc.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range tc.Headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if tc.ExpectedStatus != 0 {
		assert.Equal(t, tc.ExpectedStatus, w.Code, "Unexpected status code: %s", w.Body.String())
	}
	if tc.ExpectedBody != nil {
		actual := DecodeJSON[map[string]any](t, w.Body.Bytes())
		for key, expected := range tc.ExpectedBody {
			assert.Equal(t, expected, actual[key], "Unexpected value for key: %s", key)
		}
	}
	if tc.Validate != nil {
		tc.Validate(t, w)
	}
	return w
}

// DecodeJSON parses raw into T.
func DecodeJSON[T any](t *testing.T, raw []byte) T {
	t.Helper()

	var result T
	require.NoError(t, json.Unmarshal(raw, &result), "Failed to parse JSON response: %s", raw)
	return result
}

// AssertSuccessResponse asserts an enveloped response with success true.
func AssertSuccessResponse(t *testing.T, raw []byte) {
	t.Helper()

	resp := DecodeJSON[map[string]any](t, raw)
	assert.Equal(t, true, resp["success"], "Expected success to be true")
	assert.Nil(t, resp["error"], "Expected no error")
}

// AssertErrorResponse asserts an enveloped error carrying expectedCode.
func AssertErrorResponse(t *testing.T, raw []byte, expectedCode string) {
	t.Helper()

	resp := DecodeJSON[map[string]any](t, raw)
	assert.Equal(t, false, resp["success"], "Expected success to be false")

	errMap, ok := resp["error"].(map[string]any)
	require.True(t, ok, "Expected error object in response")
	assert.Equal(t, expectedCode, errMap["code"], "Unexpected error code")
}

// AssertPlainError asserts a storefront {"error": "..."} body.
func AssertPlainError(t *testing.T, raw []byte, expectedMessage string) {
	t.Helper()

	resp := DecodeJSON[map[string]any](t, raw)
	assert.Equal(t, expectedMessage, resp["error"])
}

// ToJSONReader converts a value to a JSON io.Reader.
func ToJSONReader(t *testing.T, v any) io.Reader {
	t.Helper()

	data, err := json.Marshal(v)
	require.NoError(t, err, "Failed to marshal to JSON")
	return bytes.NewReader(data)
}
