package publisher

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"draftbot/internal/config"
)

func newTestFacebook(t *testing.T, handler http.HandlerFunc) *Facebook {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
	fb, err := NewFacebook(config.FacebookConfig{
		PageID:      "page123",
		AccessToken: "token",
		Timeout:     time.Second,
	}, logger)
	require.NoError(t, err)

	fb.baseURL = server.URL
	return fb
}

func TestNewFacebook_RequiresCredentials(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	_, err := NewFacebook(config.FacebookConfig{PageID: "page123"}, logger)
	assert.Error(t, err)

	_, err = NewFacebook(config.FacebookConfig{AccessToken: "token"}, logger)
	assert.Error(t, err)
}

func TestPublishText(t *testing.T) {
	var gotPath, gotMessage, gotLink string
	fb := newTestFacebook(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseForm()
		gotMessage = r.PostFormValue("message")
		gotLink = r.PostFormValue("link")
		w.Write([]byte(`{"id":"page123_456"}`))
	})

	id, err := fb.PublishText(context.Background(), "School opens\n📌 details", "https://news.test/school")

	require.NoError(t, err)
	assert.Equal(t, "page123_456", id)
	assert.Equal(t, "/page123/feed", gotPath)
	assert.Equal(t, "School opens\n📌 details", gotMessage)
	assert.Equal(t, "https://news.test/school", gotLink)
}

func TestPublishText_OmitsNonURLLink(t *testing.T) {
	var hasLink bool
	fb := newTestFacebook(t, func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		_, hasLink = r.PostForm["link"]
		w.Write([]byte(`{"id":"page123_1"}`))
	})

	_, err := fb.PublishText(context.Background(), "Market snapshot", "")

	require.NoError(t, err)
	assert.False(t, hasLink)
}

func TestPublishPhoto(t *testing.T) {
	var gotPath, gotCaption string
	var gotImage []byte
	fb := newTestFacebook(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = r.ParseMultipartForm(1 << 20)
		gotCaption = r.FormValue("caption")
		file, _, err := r.FormFile("source")
		if err == nil {
			buf := make([]byte, 16)
			n, _ := file.Read(buf)
			gotImage = buf[:n]
			file.Close()
		}
		w.Write([]byte(`{"id":"789","post_id":"page123_789"}`))
	})

	image := []byte{0x89, 'P', 'N', 'G'}
	id, err := fb.PublishPhoto(context.Background(), image, "Weekly Market Update")

	require.NoError(t, err)
	assert.Equal(t, "page123_789", id)
	assert.Equal(t, "/page123/photos", gotPath)
	assert.Equal(t, "Weekly Market Update", gotCaption)
	assert.Equal(t, image, gotImage)
}

func TestPublish_GraphError(t *testing.T) {
	fb := newTestFacebook(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"Invalid OAuth access token"}}`))
	})

	_, err := fb.PublishText(context.Background(), "x", "")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "400")
}
