package adapter

// Token represents a API token
type Token struct {
	Key    string
	Secret string
}

// NewToken creates a API token
func NewToken(key, secret string) Token {
	return Token{Key: key, Secret: secret}
}

// IsEmpty reports whether the key or the secret is missing.
func (t Token) IsEmpty() bool {
	return len(t.Key) == 0 || len(t.Secret) == 0
}

// String never prints the secret.
func (t Token) String() string {
	if len(t.Key) <= 4 {
		return "Token{key=****}"
	}

	return "Token{key=" + t.Key[:4] + "****}"
}
