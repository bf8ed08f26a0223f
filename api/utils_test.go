package api

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondWithError(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithError(rec, 400, "Missing user_id")

	assert.Equal(t, 400, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	body := decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Missing user_id", body["error"])
}

func TestRespondWithResult(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithResult(rec, true, "")
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.NotContains(t, body, "error")

	rec = httptest.NewRecorder()
	RespondWithResult(rec, false, "boom")
	body = decodeBody(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "boom", body["error"])
}

func TestRespondWithPayload(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithPayload(rec, true, "", []map[string]interface{}{{"id": "1"}})
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	rows, ok := body["rows"].([]interface{})
	require.True(t, ok)
	assert.Len(t, rows, 1)
}

func TestIsBulkSuccess(t *testing.T) {
	assert.True(t, IsBulkSuccess([]map[string]interface{}{{"success": true}, {"success": true}}))
	assert.False(t, IsBulkSuccess([]map[string]interface{}{{"success": true}, {"success": false}}))
	assert.False(t, IsBulkSuccess([]map[string]interface{}{{"status": "ok"}}))
	assert.True(t, IsBulkSuccess(nil))
}
