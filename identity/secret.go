package identity

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"
)

const secretInfo = "listsync oauth link v1"

// Deriver computes the synthetic password that bridges an external
// identity into the backend's password accounts. The result depends only
// on the provider, the stable external subject and the configured key.
type Deriver struct {
	key []byte
}

// NewDeriver returns a Deriver keyed by key. An empty key selects the
// unkeyed "<provider>_oauth_<subject>" form, which is what accounts
// created by earlier clients were registered with.
func NewDeriver(key string) Deriver {
	return Deriver{key: []byte(key)}
}

// Secret returns the derived password for one external identity.
func (d Deriver) Secret(provider, subject string) string {
	if len(d.key) == 0 {
		return fmt.Sprintf("%s_oauth_%s", provider, subject)
	}
	r := hkdf.New(sha256.New, d.key, []byte(provider), []byte(secretInfo+"|"+subject))
	out := make([]byte, 32)
	if _, err := io.ReadFull(r, out); err != nil {
		// hkdf only fails past 255 blocks of output.
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(out)
}
