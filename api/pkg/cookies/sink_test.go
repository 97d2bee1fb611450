package cookies

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/helixml/cookiegen/api/pkg/types"
)

func TestSink_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backend", "cookies.json")
	sink := NewSink(path)

	records := []types.CookieRecord{
		{Name: "session-id", Value: "262-1234567-7654321", Domain: ".amazon.in", Path: "/", Expiry: 1767225600, Secure: true},
		{Name: "at-acbin", Value: "Atza|gQA=/+\"quoted\"", Domain: ".amazon.in", Path: "/", Secure: true, HTTPOnly: true},
		{Name: "csm-hit", Value: "tb:s-X|1700000000&t:1700000000", Domain: "www.amazon.in", Path: "/", SameSite: "Lax"},
		{Name: "empty", Value: "", Domain: "www.amazon.in", Path: "/alexa-privacy"},
	}
	require.NoError(t, sink.Write(records))

	read, err := sink.Read()
	require.NoError(t, err)
	require.Len(t, read, len(records))
	for i := range records {
		assert.Equal(t, records[i].Name, read[i].Name)
		assert.Equal(t, records[i].Value, read[i].Value)
		assert.Equal(t, records[i].Domain, read[i].Domain)
	}
	assert.Equal(t, records, read)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSink_EmptySetIsAnArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, NewSink(path).Write(nil))

	bts, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(bts))
}

func TestSink_WriteFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	err := NewSink(filepath.Join(blocker, "cookies.json")).Write([]types.CookieRecord{{Name: "a"}})
	require.Error(t, err)
}
