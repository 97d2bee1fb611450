package browser

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// EvalOnNewDocument injects the source as is, so a bare function expression
// would be defined and never run.
func TestBlockWebAuthnScript_InvokesItself(t *testing.T) {
	script := strings.TrimSpace(blockWebAuthnScript)

	assert.True(t, strings.HasPrefix(script, "(() => {"), script[:20])
	assert.True(t, strings.HasSuffix(script, "})()"))
	assert.Contains(t, script, "PublicKeyCredential")
	assert.Contains(t, script, "navigator.credentials.get")
}
