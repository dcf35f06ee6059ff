package extract

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pwklam/scrape-chinese-social-media/internal/models"
	"github.com/pwklam/scrape-chinese-social-media/internal/reltime"
)

var reference = time.Date(2024, time.January, 10, 8, 0, 0, 0, time.UTC)

const weixinDump = `文章标题
正文第一段
Comments
张三
北京
3天前
12
写得真好
第二行
李四
上海
昨天
支持
2条回复
王五
广东
2024-01-02
不错`

func TestDenseExtract(t *testing.T) {
	result := Dense{}.Extract(Input{Text: weixinDump}, reference)

	expected := []models.Comment{
		{Username: "张三", Content: "写得真好\n第二行", Time: "2024-01-07", Likes: "12"},
		{Username: "李四", Content: "支持", Time: "2024-01-09", Likes: "0"},
		{Username: "王五", Content: "不错", Time: "2024-01-02", Likes: "0"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}
	assert.False(t, result.Degraded())
}

func TestDenseCounterHeader(t *testing.T) {
	text := "正文\n2 comments\n\n张三\n刚刚\n你好\n"
	result := Dense{}.Extract(Input{Text: text}, reference)

	expected := []models.Comment{
		{Username: "张三", Content: "你好", Time: "2024-01-10", Likes: "0"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}
}

func TestDenseUsernameFallback(t *testing.T) {
	testCases := []struct {
		name     string
		text     string
		username string
	}{
		{name: "line above", text: "comment\n张三\n3天前\n内容", username: "张三"},
		{name: "anchor first", text: "comment\n3天前\n内容", username: UnknownUser},
		{name: "skips digits", text: "comment\n12\n3天前\n内容", username: UnknownUser},
	}
	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			result := Dense{}.Extract(Input{Text: test.text}, reference)
			require.Len(t, result.Records, 1)
			assert.Equal(t, test.username, result.Records[0].Username)
		})
	}
}

func TestDenseNoAnchors(t *testing.T) {
	result := Dense{}.Extract(Input{Text: "Comments\n张三\n你好"}, reference)
	assert.Empty(t, result.Records)
	assert.True(t, result.Degraded())

	result = Dense{}.Extract(Input{}, reference)
	assert.Empty(t, result.Records)
	assert.False(t, result.Degraded())
}

func TestDenseLayout(t *testing.T) {
	result := Dense{Layout: reltime.DateTimeLayout}.Extract(Input{Text: "comment\n张三\n北京\n3天前\n好"}, reference)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "2024-01-07 00:00:00", result.Records[0].Time)
}

func TestDelimitedExtract(t *testing.T) {
	text := "'Alice: hello there 2024-01-05 10:30 7'\n" +
		"用户A：测试评论 24-11-26\n" +
		"\n" +
		"Bob: 2024/01/05 3\n" +
		"Carol: 生日 2000-01-01 快乐 23.2.1 09:15"

	result := Delimited{}.Extract(Input{Text: text}, reference)

	expected := []models.Comment{
		{Username: "Alice", Content: "hello there", Time: "2024-01-05 00:00:00", Likes: "7"},
		{Username: "用户A", Content: "测试评论", Time: "2024-11-26 00:00:00", Likes: "0"},
		{Username: "Bob", Content: "", Time: "2024-01-05 00:00:00", Likes: "3"},
		{Username: "Carol", Content: "生日 2000-01-01 快乐", Time: "2023-02-01 00:00:00", Likes: "0"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}
	assert.False(t, result.Degraded())
}

func TestDelimitedFallback(t *testing.T) {
	result := Delimited{}.Extract(Input{Text: "Alice hello 2024-01-05 10:30 7"}, reference)

	expected := []models.Comment{
		{Username: "Alice hello", Content: "", Time: "2024-01-05 00:00:00", Likes: "7"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}
}

func TestDelimitedFallbackUnreadableDate(t *testing.T) {
	result := Delimited{}.Extract(Input{Text: "Dan: nice 2024/01/05 10:30 赞"}, reference)

	require.Len(t, result.Records, 1)
	got := result.Records[0]
	assert.Equal(t, "Dan", got.Username)
	assert.Equal(t, "nice", got.Content)
	assert.Equal(t, "2024-01-10 00:00:00", got.Time)
	assert.Equal(t, "0", got.Likes)
}

func TestDelimitedUnicodeSpaces(t *testing.T) {
	text := "Alice：\u3000hello\u30002024-01-05\u300010:30\u30007\n" +
		"Bob: hi\u00a02024-01-06"

	result := Delimited{}.Extract(Input{Text: text}, reference)

	expected := []models.Comment{
		{Username: "Alice", Content: "hello", Time: "2024-01-05 00:00:00", Likes: "7"},
		{Username: "Bob", Content: "hi", Time: "2024-01-06 00:00:00", Likes: "0"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}
	assert.Empty(t, result.Skipped)
}

func TestDelimitedFallbackNeedsThreeTokensForClock(t *testing.T) {
	result := Delimited{}.Extract(Input{Text: "10:30 x\n2024-01-05 7"}, reference)

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "10:30 x", result.Skipped[0].Text)
	require.Len(t, result.Records, 1)
	assert.Equal(t, "2024-01-05 00:00:00", result.Records[0].Time)
	assert.Equal(t, "7", result.Records[0].Likes)
}

func TestDelimitedDropsNoise(t *testing.T) {
	result := Delimited{}.Extract(Input{Text: "just some noise\nAlice: hi 2024-01-05"}, reference)

	require.Len(t, result.Records, 1)
	assert.Equal(t, "Alice", result.Records[0].Username)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, "just some noise", result.Skipped[0].Text)
	assert.True(t, result.Degraded())
}

func TestDelimitedFragmentsAreFlattened(t *testing.T) {
	in := Input{Fragments: []string{"Alice:\nhello\n2024-01-05 10:30\n7"}}
	result := Delimited{}.Extract(in, reference)

	expected := []models.Comment{
		{Username: "Alice", Content: "hello", Time: "2024-01-05 00:00:00", Likes: "7"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}
}

func TestFragmentsExtract(t *testing.T) {
	in := Input{Fragments: []string{
		"Bob\n...\nGreat post\n3天前·Beijing\n\n5\n\n分享\n回复",
		"...\n为您加油\n1周前\n展开1条回复",
		"'Carol\n2年前·天津\n分享'",
		"Dave\n分享\n回复",
		"",
		"Eve\nhello\n展开3条回复",
	}}

	result := Fragments{}.Extract(in, reference)

	expected := []models.Comment{
		{Username: "Bob", Content: "Great post", Time: "2024-01-07 00:00:00", Likes: "5"},
		{Username: UnknownUser, Content: "为您加油", Time: "2024-01-03 00:00:00", Likes: "0"},
		{Username: "Carol", Content: "", Time: "2022-01-10 00:00:00", Likes: "0"},
		{Username: "Eve", Content: "hello", Time: "2024-01-10 00:00:00", Likes: "0"},
	}
	if diff := cmp.Diff(expected, result.Records); diff != "" {
		t.Fatal(diff)
	}

	require.Len(t, result.Skipped, 1)
	assert.Equal(t, 3, result.Skipped[0].Index)
}

func TestFragmentsFromText(t *testing.T) {
	result := Fragments{}.Extract(Input{Text: "Bob\nGreat post"}, reference)
	assert.Empty(t, result.Records)
	assert.Len(t, result.Skipped, 2)
}

func TestRecordsAreComplete(t *testing.T) {
	extractors := map[string]struct {
		extractor Extractor
		in        Input
	}{
		"dense":     {Dense{}, Input{Text: weixinDump}},
		"delimited": {Delimited{}, Input{Text: "'Alice: hello there 2024-01-05 10:30 7'\nx y 10:30 z"}},
		"fragments": {Fragments{}, Input{Fragments: []string{"Bob\n...\nGreat post\n3天前·Beijing\n\n5", "...\n\n1小时前"}}},
	}

	for name, test := range extractors {
		t.Run(name, func(t *testing.T) {
			result := test.extractor.Extract(test.in, reference)
			require.NotEmpty(t, result.Records)
			for _, c := range result.Records {
				assert.NotEmpty(t, c.Username)
				assert.Regexp(t, `^\d+$`, c.Likes)
				_, errDate := time.Parse(reltime.DateLayout, c.Time)
				_, errDateTime := time.Parse(reltime.DateTimeLayout, c.Time)
				assert.True(t, errDate == nil || errDateTime == nil, "unparseable time %q", c.Time)
			}
		})
	}
}

func TestRsplitFields(t *testing.T) {
	assert.Equal(t, []string{"a b", "c", "d", "e"}, rsplitFields("a b c d e", 3))
	assert.Equal(t, []string{"a", "b"}, rsplitFields("a  b", 3))
	assert.Equal(t, []string{"a"}, rsplitFields(" a ", 3))
	assert.Equal(t, []string{"a", "b", "c"}, rsplitFields("a\u3000b\u00a0c", 3))
}
