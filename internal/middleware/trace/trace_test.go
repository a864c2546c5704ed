package trace

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"financeflow/internal/log"
)

func TestTransportSetsRequestID(t *testing.T) {
	var seen []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get(HeaderRequestID))
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	tr := NewTransport(nil, log.Discard())
	client := &http.Client{Transport: tr}

	ctx := WithRequestID(context.Background(), "req_fixed")
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/ok", nil)
	require.NoError(t, err)
	resp, err := client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Empty(t, req.Header.Get(HeaderRequestID), "caller request must not be modified")

	req, err = http.NewRequest(http.MethodGet, srv.URL+"/missing", nil)
	require.NoError(t, err)
	resp, err = client.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	require.Len(t, seen, 2)
	require.Equal(t, "req_fixed", seen[0])
	require.Regexp(t, `^req_[0-9a-f-]{36}$`, seen[1])

	m := tr.GetMetrics()
	require.EqualValues(t, 2, m.TotalRequests)
	require.EqualValues(t, 1, m.FailedRequests)
}
