package auth

import (
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokensRoundTrip(t *testing.T) {
	tokens := NewTokens([]byte("0123456789abcdef0123456789abcdef"), time.Hour)
	tok, exp, err := tokens.Issue(&User{ID: "U1", Username: "alice"})
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	c, err := tokens.Parse(tok)
	require.NoError(t, err)
	assert.Equal(t, "U1", c.Subject)
	assert.Equal(t, "alice", c.Name)
}

func TestTokensRejectTamperedAndExpired(t *testing.T) {
	tokens := NewTokens([]byte("key-one-key-one-key-one-key-one!"), time.Hour)
	tok, _, err := tokens.Issue(&User{ID: "U1", Username: "alice"})
	require.NoError(t, err)

	other := NewTokens([]byte("key-two-key-two-key-two-key-two!"), time.Hour)
	_, err = other.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = tokens.Parse("not-a-token")
	assert.ErrorIs(t, err, ErrInvalidToken)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(tok)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestLoadKey(t *testing.T) {
	dir := t.TempDir()

	k, err := LoadKey(dir, "configured")
	require.NoError(t, err)
	assert.Equal(t, []byte("configured"), k)
	assert.NoFileExists(t, filepath.Join(dir, "session.key"))

	first, err := LoadKey(dir, "")
	require.NoError(t, err)
	assert.Len(t, first, 32)
	onDisk, err := os.ReadFile(filepath.Join(dir, "session.key"))
	require.NoError(t, err)
	assert.Equal(t, first, onDisk)

	second, err := LoadKey(dir, "")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestTokenFromRequest(t *testing.T) {
	r := httptest.NewRequest("GET", "/ws?token=abc", nil)
	assert.Equal(t, "abc", TokenFromRequest(r))

	r.Header.Set("Authorization", "Bearer xyz")
	assert.Equal(t, "xyz", TokenFromRequest(r))

	assert.Empty(t, TokenFromRequest(httptest.NewRequest("GET", "/ws", nil)))
}
