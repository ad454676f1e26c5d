package service

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"homestead/internal/story/filestore"
	"homestead/pkg/apperr"
)

func newStoryService(t *testing.T, files map[string]string) *StoryService {
	t.Helper()
	root := t.TempDir()
	for rel, content := range files {
		p := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
	return NewStoryService(filestore.New(root))
}

func TestStoryOwnerSeesPrivate(t *testing.T) {
	svc := newStoryService(t, map[string]string{
		"bob@x.com/draft.json": `{"title":"Draft"}`,
	})

	rec, err := svc.Get("", "draft", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Draft", rec["title"])
	assert.Equal(t, "bob@x.com", rec["author"])
	assert.Equal(t, false, rec["isPublic"])
	assert.Equal(t, "draft", rec["slug"])
}

func TestStoryVisibility(t *testing.T) {
	svc := newStoryService(t, map[string]string{
		"bob@x.com/draft.json":     `{"title":"Draft"}`,
		"bob@x.com/published.json": `{"title":"Out","isPublic":true,"by":"Bob"}`,
	})

	_, err := svc.Get("bob@x.com", "draft", "")
	assert.True(t, apperr.Is(err, apperr.NotFound))
	assert.Equal(t, "Story not found", apperr.Message(err))

	_, err = svc.Get("bob@x.com", "draft", "eve@x.com")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	rec, err := svc.Get("bob@x.com", "published", "")
	require.NoError(t, err)
	assert.Equal(t, "Bob", rec["author"])
	assert.Equal(t, true, rec["isPublic"])
}

func TestStoryErrors(t *testing.T) {
	svc := newStoryService(t, map[string]string{
		"bob@x.com/bad.json": `{nope`,
	})

	_, err := svc.Get("", "bad", "")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = svc.Get("bob@x.com", "", "")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = svc.Get("bob@x.com", "../x", "")
	assert.True(t, apperr.Is(err, apperr.BadRequest))

	_, err = svc.Get("bob@x.com", "missing", "")
	assert.True(t, apperr.Is(err, apperr.NotFound))

	_, err = svc.Get("bob@x.com", "bad", "bob@x.com")
	assert.True(t, apperr.Is(err, apperr.CorruptRecord))
	assert.Equal(t, "Failed to read story", apperr.Message(err))
}

func TestStoryListFiltersByVisibility(t *testing.T) {
	svc := newStoryService(t, map[string]string{
		"bob@x.com/a.json": `{"isPublic":true}`,
		"bob@x.com/b.json": `{}`,
	})

	recs, err := svc.List("bob@x.com", "")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "a", recs[0]["slug"])

	recs, err = svc.List("bob@x.com", "bob@x.com")
	require.NoError(t, err)
	assert.Len(t, recs, 2)
}

func TestPublicStoryReaderIsNotAuthor(t *testing.T) {
	svc := newStoryService(t, map[string]string{
		"bob@x.com/tale.json": `{"title":"Tale","isPublic":true}`,
	})

	rec, err := svc.Get("bob@x.com", "tale", "alice@x.com")
	require.NoError(t, err)
	assert.Equal(t, "Anonymous", rec["author"])

	recs, err := svc.List("bob@x.com", "alice@x.com")
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "Anonymous", recs[0]["author"])

	rec, err = svc.Get("bob@x.com", "tale", "bob@x.com")
	require.NoError(t, err)
	assert.Equal(t, "bob@x.com", rec["author"])
}
