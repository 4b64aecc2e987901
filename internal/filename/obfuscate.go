package filename

import (
	"math/rand/v2"
	"strings"
	"sync"
)

const (
	obfuscatedTokenLength   = 5
	obfuscatedTokenAlphabet = "abcdefghijklmnopqrstuvwxyz0123456789"
)

// Obfuscator maps original composite batch tokens to freshly generated
// random tokens. A token is generated once per distinct original value and
// reused for every file sharing it, so cross-file batch correlation
// survives anonymisation while the real batch label does not. The mapping
// is scoped to one run and guarded for in-run fan-out.
type Obfuscator struct {
	mu     sync.Mutex
	tokens map[string]string
}

// NewObfuscator creates an empty run-scoped obfuscation map.
func NewObfuscator() *Obfuscator {
	return &Obfuscator{tokens: make(map[string]string)}
}

// Token returns the obfuscated token for original, generating it on first
// encounter.
func (o *Obfuscator) Token(original string) string {
	o.mu.Lock()
	defer o.mu.Unlock()

	if token, ok := o.tokens[original]; ok {
		return token
	}
	token := randomToken()
	o.tokens[original] = token
	return token
}

// randomToken draws a 5-character lowercase-alphanumeric token.
func randomToken() string {
	var b strings.Builder
	for i := 0; i < obfuscatedTokenLength; i++ {
		b.WriteByte(obfuscatedTokenAlphabet[rand.IntN(len(obfuscatedTokenAlphabet))])
	}
	return b.String()
}
