package browser

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSnapshot(t *testing.T) {
	html := `
<html>
<head><script>tracking();</script></head>
<body>
	<h1>Weekly Quiz</h1>
	<p>Q1. What is 2+2?</p>
	<a href="/files/data.csv">Download data</a>
	<form action="/submit" method="post">
		<input type="text" name="q1">
	</form>
</body>
</html>`

	page, err := Snapshot(context.Background(), "http://quiz.test", html)
	require.NoError(t, err)

	require.Equal(t, "http://quiz.test", page.URL)
	require.Equal(t, html, page.HTML)
	require.Contains(t, page.VisibleText, "Q1. What is 2+2?")
	require.NotContains(t, page.VisibleText, "tracking")

	require.Len(t, page.Links, 1)
	require.Equal(t, "Download data", page.Links[0].Name)
	require.True(t, page.Links[0].IsDownload)

	require.Len(t, page.Forms, 1)
	require.Equal(t, "/submit", page.Forms[0].Action)
	require.Equal(t, "post", page.Forms[0].Method)
	require.Len(t, page.Forms[0].Inputs, 1)

	require.False(t, page.ExtractedAt.IsZero())
}

func TestConfigDefaults(t *testing.T) {
	var config Config
	require.Equal(t, 30*time.Second, config.NavigationTimeout())
	w, h := config.viewport()
	require.Equal(t, 1920, w)
	require.Equal(t, 1080, h)
	require.NotEmpty(t, config.userAgent())

	config = Config{NavigationTimeoutMs: 5000, UserAgent: "custom"}
	require.Equal(t, 5*time.Second, config.NavigationTimeout())
	require.Equal(t, "custom", config.userAgent())
}
