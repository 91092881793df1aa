package biqu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errpkg "github.com/veranemoloko/novel-downloader/internal/errors"
)

const testBase = "https://www.biqg.cc"

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	p, err := NewParser(testBase)
	require.NoError(t, err)
	return p
}

func TestParser_ListUnits(t *testing.T) {
	page := `<html><body><div class="listmain"><dl>
<dd><a href="/book/1/1.html">第一章</a></dd>
<dd><a href="/book/1/2.html">第二章</a></dd>
<dd><a href="https://other.example/3.html"> 第三章 </a></dd>
</dl></div></body></html>`

	units, err := newTestParser(t).ListUnits([]byte(page))
	require.NoError(t, err)
	require.Len(t, units, 3)

	assert.Equal(t, 0, units[0].Index)
	assert.Equal(t, "https://www.biqg.cc/book/1/1.html", units[0].Locator)
	assert.Equal(t, "第一章", units[0].Title)
	assert.Equal(t, 2, units[2].Index)
	assert.Equal(t, "https://other.example/3.html", units[2].Locator)
	assert.Equal(t, "第三章", units[2].Title)
}

func TestParser_ListUnits_HiddenChapters(t *testing.T) {
	page := `<html><body><div class="listmain"><dl>
<dd><a href="/b/1.html">c1</a></dd>
<dd><a href="/b/2.html">c2</a></dd>
<dd><a href="javascript:dd_show()">展开全部章节</a></dd>
<span class="dd_hide">
<dd><a href="/b/3.html">c3</a></dd>
<dd><a href="/b/4.html">c4</a></dd>
</span>
<dd><a href="/b/5.html">c5</a></dd>
</dl></div></body></html>`

	units, err := newTestParser(t).ListUnits([]byte(page))
	require.NoError(t, err)

	var titles []string
	for i, u := range units {
		assert.Equal(t, i, u.Index)
		titles = append(titles, u.Title)
	}
	assert.Equal(t, []string{"c1", "c2", "c3", "c4", "c5"}, titles)
}

func TestParser_ListUnits_Missing(t *testing.T) {
	_, err := newTestParser(t).ListUnits([]byte(`<html><body><p>nothing</p></body></html>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errpkg.ErrEnumeration))
}

func TestParser_Extract(t *testing.T) {
	page := `<html><body><h1>第一章 开始</h1>
<div id="chaptercontent">header　　第一段　　第二段　　第三段　　footer1　　footer2</div>
</body></html>`

	title, body, err := newTestParser(t).Extract([]byte(page))
	require.NoError(t, err)
	assert.Equal(t, "第一章 开始", title)
	assert.Equal(t, "第一段\n第二段\n第三段", body)
}

func TestParser_Extract_ShortContent(t *testing.T) {
	page := `<html><body><div id="chaptercontent">a　　b</div></body></html>`

	_, body, err := newTestParser(t).Extract([]byte(page))
	require.NoError(t, err)
	assert.Empty(t, body)
}

func TestParser_Extract_MissingContainer(t *testing.T) {
	_, _, err := newTestParser(t).Extract([]byte(`<html><body><h1>x</h1></body></html>`))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errpkg.ErrExtraction))
}
