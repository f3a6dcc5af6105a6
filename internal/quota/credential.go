package quota

import "strings"

type Source string

const (
	SourceRequest Source = "request"
	SourceStored  Source = "stored"
	SourceDefault Source = "default"
)

// Credential is an AI provider key together with where it came from.
type Credential struct {
	Key    string
	Source Source
}

// IsUserSupplied reports whether the key belongs to the caller rather than
// the server. Provider rejections of such keys are the caller's problem.
func (c Credential) IsUserSupplied() bool {
	return c.Source == SourceRequest || c.Source == SourceStored
}

// ResolveCredential picks the key for one request. Precedence is the value
// sent with the request, then the key stored on the user, then the server
// default. Blank values are skipped; ok is false when none is set.
func ResolveCredential(requestValue, storedValue, defaultValue string) (Credential, bool) {
	if key := strings.TrimSpace(requestValue); key != "" {
		return Credential{Key: key, Source: SourceRequest}, true
	}
	if key := strings.TrimSpace(storedValue); key != "" {
		return Credential{Key: key, Source: SourceStored}, true
	}
	if key := strings.TrimSpace(defaultValue); key != "" {
		return Credential{Key: key, Source: SourceDefault}, true
	}
	return Credential{}, false
}
