package browser

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const signinHTML = `<html><body>
<form name="signIn">
  <input type="email" id="ap_email" name="email">
  <input type="submit" id="continue">
</form>
<div class="a-alert-content">  We cannot find an account with that email address </div>
</body></html>`

func TestSnapshot_Find(t *testing.T) {
	ctx := context.Background()
	s, err := NewSnapshot("https://www.amazon.in/ap/signin", signinHTML)
	require.NoError(t, err)

	els, err := s.Find(ctx, "#ap_email")
	require.NoError(t, err)
	assert.Len(t, els, 1)

	els, err = s.Find(ctx, "input[name=\"password\"]")
	require.NoError(t, err)
	assert.Empty(t, els)

	els, err = s.Find(ctx, ".a-alert-content")
	require.NoError(t, err)
	require.Len(t, els, 1)
	text, err := els[0].Text(ctx)
	require.NoError(t, err)
	assert.Equal(t, "We cannot find an account with that email address", text)
}

func TestSnapshot_IsReadOnly(t *testing.T) {
	ctx := context.Background()
	s, err := NewSnapshot("https://www.amazon.in/ap/signin", signinHTML)
	require.NoError(t, err)

	require.ErrorIs(t, s.Navigate(ctx, "https://example.com"), ErrReadOnly)
	require.ErrorIs(t, s.PressEnter(ctx), ErrReadOnly)

	els, err := s.Find(ctx, "#ap_email")
	require.NoError(t, err)
	require.ErrorIs(t, els[0].SetValue(ctx, "x"), ErrReadOnly)
	require.ErrorIs(t, els[0].Click(ctx), ErrReadOnly)
}

func TestSnapshot_InvalidSelectorMatchesNothing(t *testing.T) {
	s, err := NewSnapshot("https://www.amazon.in/", signinHTML)
	require.NoError(t, err)

	els, err := s.Find(context.Background(), "input[[[")
	require.NoError(t, err)
	assert.Empty(t, els)
}
