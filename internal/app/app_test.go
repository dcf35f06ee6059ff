package app

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwklam/scrape-chinese-social-media/internal/config"
	"github.com/pwklam/scrape-chinese-social-media/internal/models"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		Storage: config.StorageConfig{Type: "sqlite", Path: filepath.Join(dir, "data", "posts.db")},
		Collector: config.CollectorConfig{
			URLsFile: filepath.Join(dir, "urls.txt"),
			Selectors: map[string]config.SelectorsConfig{
				"weibo": {Content: ".text"},
			},
		},
		Normalize: config.NormalizeConfig{Timezone: "UTC"},
		Log:       config.LogConfig{Level: "warn"},
	}
}

func TestNewAndOpen(t *testing.T) {
	a, err := New(testConfig(t))
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, "UTC", a.Normalizer.Now().Location().String())

	store, err := a.OpenStore()
	require.NoError(t, err)
	again, err := a.OpenStore()
	require.NoError(t, err)
	assert.Same(t, store, again)

	svc, err := a.OpenIngest()
	require.NoError(t, err)
	assert.NotNil(t, svc)
}

func TestNewLenientCounts(t *testing.T) {
	cfg := testConfig(t)
	cfg.Normalize.LenientCounts = true
	a, err := New(cfg)
	require.NoError(t, err)
	defer a.Close()

	post, report, err := a.Normalizer.Post(models.RawPost{
		URL:      "https://weibo.com/1/a",
		Platform: "weibo",
		LikeText: "很多",
	}, time.Time{})
	require.NoError(t, err)
	assert.Zero(t, post.Metrics.Likes)
	assert.Equal(t, []string{"likes"}, report.DefaultedCounts)
}

func TestNewRejectsBadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Normalize.Timezone = "Mars/Olympus"
	_, err := New(cfg)
	assert.Error(t, err)
}

func TestOpenStorageRejectsUnknownType(t *testing.T) {
	_, err := OpenStorage(config.StorageConfig{Type: "mongo"})
	assert.Error(t, err)
}
