package posts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/blog_api/internal/dispatch"
)

func csvServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestImportFromCSV(t *testing.T) {
	s := newTestService(t)
	srv := csvServer(t, "title,friendlyUrl,content\nFirst,first,hello\nSecond,second,world\n", http.StatusOK)

	res, err := s.ImportFromCSV(context.Background(), ImportPostsCommand{CSVURL: srv.URL, RequestedBy: "admin"})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, 2, res.Value.Imported)
	require.Equal(t, 0, res.Value.Skipped)

	list, err := s.List(context.Background(), ListPostsQuery{Page: 1, Size: 10})
	require.NoError(t, err)
	require.EqualValues(t, 2, list.Value.Meta.Total)
	for _, p := range list.Value.Data {
		require.Equal(t, "admin", p.CreatedBy)
	}
}

func TestImportSkipsConflictingRows(t *testing.T) {
	s := newTestService(t)
	srv := csvServer(t, "title,friendlyUrl,content\nFirst,dup,hello\nSecond,dup,world\n", http.StatusOK)

	res, err := s.ImportFromCSV(context.Background(), ImportPostsCommand{CSVURL: srv.URL, RequestedBy: "admin"})
	require.NoError(t, err)
	require.True(t, res.OK)
	require.Equal(t, 1, res.Value.Imported)
	require.Equal(t, 1, res.Value.Skipped)
}

func TestImportMissingURL(t *testing.T) {
	s := newTestService(t)

	res, err := s.ImportFromCSV(context.Background(), ImportPostsCommand{})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusBadRequest, res.Status)
	require.Equal(t, "CSV URL is required.", res.ErrMessage)
}

func TestImportBadStatus(t *testing.T) {
	s := newTestService(t)
	srv := csvServer(t, "nope", http.StatusNotFound)

	res, err := s.ImportFromCSV(context.Background(), ImportPostsCommand{CSVURL: srv.URL})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusBadRequest, res.Status)
}

func TestImportBadHeader(t *testing.T) {
	s := newTestService(t)
	srv := csvServer(t, "foo,bar\n1,2\n", http.StatusOK)

	res, err := s.ImportFromCSV(context.Background(), ImportPostsCommand{CSVURL: srv.URL})
	require.NoError(t, err)
	require.False(t, res.OK)
	require.Equal(t, dispatch.StatusBadRequest, res.Status)
}
