package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/storage"
)

func setupEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "posts.db")
	t.Setenv("STORAGE_PATH", dbPath)
	t.Setenv("LOG_LEVEL", "error")
	t.Setenv("NORMALIZE_TIMEZONE", "UTC")
	t.Setenv("COLLECTOR_DELAY", "0s")
	return dbPath
}

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCmd()
	out, errOut := new(bytes.Buffer), new(bytes.Buffer)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestNormalizeFromStdin(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "'Alice: hello there 2024-01-05 10:30 7'\n",
		"normalize", "--platform", "weibo", "--now", "2024-01-10 08:00:00")
	require.NoError(t, err)
	assert.Equal(t,
		`[{"username":"Alice","content":"hello there","time":"2024-01-05 00:00:00","likes":"7"}]`+"\n",
		out)
}

func TestNormalizeFragmentsFromFile(t *testing.T) {
	setupEnv(t)
	path := filepath.Join(t.TempDir(), "douyin.txt")
	input := "Bob\n...\nGreat post\n3天前·Beijing\n\n5\n\n分享\n回复\n---\nAnn\nhi\n1天前\n---\nx\n"
	require.NoError(t, os.WriteFile(path, []byte(input), 0o644))

	out, errOut, err := run(t, "", "normalize", "-p", "douyin", "--fragments", "--table",
		"--now", "2024-01-10T08:00:00Z", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Great post")
	assert.Contains(t, out, "2024-01-07 00:00:00")
	assert.Contains(t, out, "Ann")
	assert.Contains(t, errOut, "skipped 2")
}

func TestNormalizeEmptyAndErrors(t *testing.T) {
	setupEnv(t)

	out, _, err := run(t, "no comments", "normalize", "-p", "weixin")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)

	_, _, err = run(t, "x", "normalize", "-p", "myspace")
	assert.Error(t, err)

	_, _, err = run(t, "x", "normalize")
	assert.Error(t, err)

	_, _, err = run(t, "x", "normalize", "-p", "weibo", "--now", "soon")
	assert.Error(t, err)
}

func TestCount(t *testing.T) {
	out, _, err := run(t, "", "count", "1.2万", "3.4K", "356")
	require.NoError(t, err)
	assert.Equal(t, "1.2万\t12000\n3.4K\t3400\n356\t356\n", out)

	_, _, err = run(t, "", "count", "很多")
	assert.Error(t, err)
}

func TestSplitFragments(t *testing.T) {
	got := splitFragments("a\nb\n---\n\n---\nc\r\n", "---")
	assert.Equal(t, []string{"a\nb", "c"}, got)
}

func TestPostsListsStoredPosts(t *testing.T) {
	dbPath := setupEnv(t)

	store, err := storage.NewSQLiteStorage(dbPath)
	require.NoError(t, err)
	comments := `[{"username":"Alice","content":"hi","time":"2024-01-05 00:00:00","likes":"7"}]`
	require.NoError(t, store.SavePost(&models.Post{
		URL:      "https://weibo.com/1/a",
		Platform: "weibo",
		UserName: "农业频道",
		Metrics:  models.Metrics{Shares: 12000, Comments: 3, Likes: 45},
		Comments: &comments,
	}))
	require.NoError(t, store.Close())

	out, _, err := run(t, "", "posts")
	require.NoError(t, err)
	assert.Contains(t, out, "https://weibo.com/1/a")
	assert.Contains(t, out, "12000")

	out, _, err = run(t, "", "posts", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"user_name": "农业频道"`)
}

func TestIngestReportsFailures(t *testing.T) {
	setupEnv(t)
	dir := t.TempDir()
	urls := filepath.Join(dir, "urls.txt")
	missing := "file://" + filepath.ToSlash(filepath.Join(dir, "missing.html"))
	require.NoError(t, os.WriteFile(urls, []byte("weibo "+missing+"\n"), 0o644))

	out, _, err := run(t, "", "ingest", urls)
	require.Error(t, err)
	assert.Contains(t, strings.ToLower(out), "0 saved, 1 failed")
}
