package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPushBatchGroupsByBatch(t *testing.T) {
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod = r.Method
		gotPath = r.URL.Path
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	require.NoError(t, PushBatch(srv.URL, "toeicq", "batch-42"))
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/metrics/job/toeicq/batch/batch-42", gotPath)
}

func TestPushBatchReportsGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "no room", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := PushBatch(srv.URL, "toeicq", "batch-err")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "batch-err")
}
