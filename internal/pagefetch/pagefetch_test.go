package pagefetch

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amishk599/canjobs/internal/cache"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var (
	longA = strings.Repeat("Build Go services on Kubernetes. ", 10)
	longB = strings.Repeat("Hybrid role, three days in office. ", 12)
)

func page() string {
	return `<html><head><style>body { color: red; }</style><script>var x = "` + strings.Repeat("js ", 100) + `";</script></head>
<body>
  <nav>Home | Jobs</nav>
  <main><p>` + longA + `</p><svg><text>` + strings.Repeat("svg ", 100) + `</text></svg></main>
  <div>Short footer</div>
  <section><p>` + longB + `</p></section>
</body></html>`
}

func TestMainText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page()))
	require.NoError(t, err)

	text := MainText(doc, 0)
	assert.Contains(t, text, "Build Go services on Kubernetes.")
	assert.Contains(t, text, "Hybrid role, three days in office.")
	assert.NotContains(t, text, "var x")
	assert.NotContains(t, text, "svg svg")
	assert.NotContains(t, text, "color: red")
	assert.NotContains(t, text, "Short footer")

	// The longer section comes first.
	assert.True(t, strings.Index(text, "Hybrid role") < strings.Index(text, "Build Go"))
}

func TestMainText_Truncates(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page()))
	require.NoError(t, err)

	text := MainText(doc, 50)
	assert.Equal(t, 50, len([]rune(text)))
}

func TestMainText_KeepsThreeLongest(t *testing.T) {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i := 1; i <= 5; i++ {
		b.WriteString("<article><p>" + strings.Repeat(string(rune('a'+i))+"word ", 50*i) + "</p></article>")
	}
	b.WriteString("</body></html>")

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(b.String()))
	require.NoError(t, err)

	text := MainText(doc, 0)
	assert.Contains(t, text, "fword")
	assert.Contains(t, text, "eword")
	assert.Contains(t, text, "dword")
	assert.NotContains(t, text, "cword")
	assert.NotContains(t, text, "bword")
}

func TestSpacedText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<div><span>Go</span><span>Rust</span> <b>SQL</b></div>"))
	require.NoError(t, err)
	assert.Equal(t, "Go Rust SQL", spacedText(doc.Find("div")))
}

func TestText_FetchesAndCaches(t *testing.T) {
	var hits atomic.Int32
	var userAgent atomic.Value
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		userAgent.Store(r.UserAgent())
		w.Write([]byte(page()))
	}))
	defer srv.Close()

	c := cache.New(context.Background(), "", time.Minute, 10, discardLogger())
	f := New(srv.Client(), c, 7*time.Second, 20000, "Mozilla/5.0", discardLogger())

	first := f.Text(context.Background(), srv.URL+"/job/1")
	require.NotEmpty(t, first)
	second := f.Text(context.Background(), srv.URL+"/job/1")

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), hits.Load(), "second call should be served from cache")
	assert.Equal(t, "Mozilla/5.0", userAgent.Load())
}

func TestText_FailuresReturnEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gone":
			w.WriteHeader(http.StatusNotFound)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte(page()))
		}
	}))
	defer srv.Close()

	f := New(srv.Client(), nil, 50*time.Millisecond, 20000, "", discardLogger())
	ctx := context.Background()

	assert.Empty(t, f.Text(ctx, ""))
	assert.Empty(t, f.Text(ctx, srv.URL+"/gone"))
	assert.Empty(t, f.Text(ctx, srv.URL+"/slow"))
	assert.Empty(t, f.Text(ctx, "http://127.0.0.1:1/unreachable"))
}
