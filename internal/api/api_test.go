package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwklam/scrape-chinese-social-media/internal/ingest"
	"github.com/pwklam/scrape-chinese-social-media/internal/logging"
	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/normalize"
	"github.com/pwklam/scrape-chinese-social-media/internal/storage"
)

var reference = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

type fakeIngester struct {
	summary ingest.Summary
	err     error
}

func (f *fakeIngester) Run(context.Context) (ingest.Summary, error) {
	return f.summary, f.err
}

func newTestRouter(t *testing.T, ingester Ingester) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "posts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	n := normalize.New(nil, normalize.WithClock(func() time.Time { return reference }))
	return NewRouter(NewHandler(n, store, ingester), logrus.NewEntry(logging.Discard()))
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestHealth(t *testing.T) {
	router := newTestRouter(t, nil)
	w := doJSON(t, router, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", decode(t, w)["status"])
	assert.NotEmpty(t, w.Header().Get(requestIDHeader))
}

func TestNormalizeComments(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/comments/normalize", gin.H{
		"platform": "weixin",
		"text":     "comment\n张三\n北京\n3天前\n写得真好",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Platform string           `json:"platform"`
		Comments []models.Comment `json:"comments"`
		Payload  *string          `json:"payload"`
		Degraded bool             `json:"degraded"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "weixin", resp.Platform)
	assert.Equal(t, []models.Comment{
		{Username: "张三", Content: "写得真好", Time: "2024-01-07", Likes: "0"},
	}, resp.Comments)
	require.NotNil(t, resp.Payload)
	assert.False(t, resp.Degraded)

	w = doJSON(t, router, http.MethodPost, "/api/v1/comments/normalize", gin.H{
		"platform":  "douyin",
		"fragments": []string{"Bob\nhi\n1天前"},
		"now":       "2023-06-01 12:00:00",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "2023-05-31 00:00:00", resp.Comments[0].Time)

	w = doJSON(t, router, http.MethodPost, "/api/v1/comments/normalize", gin.H{
		"platform": "weixin",
		"text":     "nothing to see",
	})
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, []any{}, out["comments"])
	assert.Nil(t, out["payload"])
	assert.Equal(t, true, out["degraded"])
}

func TestNormalizeCommentsRejectsBadInput(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/comments/normalize", gin.H{"platform": "myspace", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/comments/normalize", gin.H{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid request body", decode(t, w)["message"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/comments/normalize", gin.H{"platform": "weibo", "now": "yesterday"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestParseCounts(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/counts/parse", gin.H{"texts": []string{"1.2万", "3.4K", ""}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Values []countValue `json:"values"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, []countValue{
		{Text: "1.2万", Value: 12000},
		{Text: "3.4K", Value: 3400},
		{Text: "", Value: 0},
	}, resp.Values)

	w = doJSON(t, router, http.MethodPost, "/api/v1/counts/parse", gin.H{"texts": []string{"12", "很多"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.NotEmpty(t, decode(t, w)["request_id"])

	w = doJSON(t, router, http.MethodPost, "/api/v1/counts/parse", gin.H{"texts": []string{"5件"}})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
}

func TestPostsLifecycle(t *testing.T) {
	router := newTestRouter(t, nil)
	raw := models.RawPost{
		URL:              "https://www.douyin.com/video/1",
		Platform:         "douyin",
		Author:           "乡村日记",
		PublishTime:      "发布时间：2024-01-02 09:30",
		Content:          "春耕",
		LikeText:         "3.4万",
		CommentFragments: []string{"Bob\nhi\n1天前"},
	}

	w := doJSON(t, router, http.MethodPost, "/api/v1/posts", raw)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	raw.LikeText = "3.5万"
	w = doJSON(t, router, http.MethodPost, "/api/v1/posts", raw)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = doJSON(t, router, http.MethodGet, "/api/v1/posts", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), decode(t, w)["count"])

	w = doJSON(t, router, http.MethodGet, "/api/v1/posts/lookup?url="+url.QueryEscape(raw.URL), nil)
	require.Equal(t, http.StatusOK, w.Code)
	var post models.Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &post))
	assert.Equal(t, 35000.0, post.Metrics.Likes)
	assert.Equal(t, "2024-01-02 09:30:00", post.PublicationDate)
	require.NotNil(t, post.Comments)

	w = doJSON(t, router, http.MethodGet, "/api/v1/posts/lookup?url="+url.QueryEscape("https://weibo.com/none"), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/posts/lookup", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSavePostRejectsBadCounts(t *testing.T) {
	router := newTestRouter(t, nil)

	w := doJSON(t, router, http.MethodPost, "/api/v1/posts", models.RawPost{
		URL:      "https://weibo.com/1/a",
		Platform: "weibo",
		LikeText: "很多",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/posts", models.RawPost{Platform: "weibo"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScrape(t *testing.T) {
	w := doJSON(t, newTestRouter(t, nil), http.MethodPost, "/api/v1/scrape", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	ingester := &fakeIngester{summary: ingest.Summary{RunID: "run-1", Saved: 2}}
	w = doJSON(t, newTestRouter(t, ingester), http.MethodPost, "/api/v1/scrape", nil)
	require.Equal(t, http.StatusOK, w.Code)
	out := decode(t, w)
	assert.Equal(t, "run-1", out["run_id"])
	assert.Equal(t, float64(2), out["saved"])

	ingester = &fakeIngester{err: ingest.ErrRunInProgress}
	w = doJSON(t, newTestRouter(t, ingester), http.MethodPost, "/api/v1/scrape", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}
