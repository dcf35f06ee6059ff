package normalize

import (
	"errors"
	"fmt"
	"strings"
)

// Platform names the site a piece of raw text came from.
type Platform string

const (
	Weibo  Platform = "weibo"
	Weixin Platform = "weixin"
	Douyin Platform = "douyin"
)

// ErrUnknownPlatform is returned for platform tags with no extractor.
var ErrUnknownPlatform = errors.New("unknown platform")

// Platforms lists every supported platform.
var Platforms = []Platform{Weibo, Weixin, Douyin}

var platformAliases = map[string]Platform{
	"weibo":  Weibo,
	"weixin": Weixin,
	"wechat": Weixin,
	"douyin": Douyin,
	"tiktok": Douyin,
}

// ParsePlatform maps a platform tag (case-insensitive, a few aliases
// accepted) to a Platform.
func ParsePlatform(tag string) (Platform, error) {
	p, ok := platformAliases[strings.ToLower(strings.TrimSpace(tag))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownPlatform, tag)
	}
	return p, nil
}

var urlMarkers = []struct {
	marker   string
	platform Platform
}{
	{"weibo.com/", Weibo},
	{"mp.weixin.qq.com/", Weixin},
	{"www.iesdouyin.com/", Douyin},
	{"www.douyin.com/", Douyin},
}

// PlatformFromURL picks the platform for a post URL by its host. The
// normalizer never calls this itself; callers that only have a URL use it to
// choose the tag they pass in.
func PlatformFromURL(url string) (Platform, error) {
	for _, m := range urlMarkers {
		if strings.Contains(url, m.marker) {
			return m.platform, nil
		}
	}
	return "", fmt.Errorf("%w: no platform for url %q", ErrUnknownPlatform, url)
}
