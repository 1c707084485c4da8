package repository

import (
	"strings"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
)

// KeyScheme derives the storage keys a challenge record lives under. Every
// record is reachable through up to three addresses plus a throttle key:
//
//	primary:  prefix!{action}!{id}
//	uid:      prefix!-!-!uid!{uid}
//	secret:   prefix!{action}!{id}!secret!{secret}
//	throttle: prefix!{action}!{id}!throttle
//
// Optional components yield an empty key, never a malformed one.
type KeyScheme struct {
	prefix    string
	separator string
}

// NewKeyScheme creates a key scheme for the given namespace prefix and
// component separator.
func NewKeyScheme(prefix, separator string) KeyScheme {
	return KeyScheme{prefix: prefix, separator: separator}
}

func (k KeyScheme) join(parts ...string) string {
	return k.prefix + k.separator + strings.Join(parts, k.separator)
}

// Primary returns the action+id key of a record.
func (k KeyScheme) Primary(action, id string) string {
	return k.join(action, id)
}

// UID returns the uid key of a record, or an empty string when uid is unset.
func (k KeyScheme) UID(uid string) string {
	if uid == "" {
		return ""
	}
	return k.join("-", "-", "uid", uid)
}

// Secret returns the secret key of a record, or an empty string when the
// record has no secret.
func (k KeyScheme) Secret(action, id, secret string) string {
	if secret == "" {
		return ""
	}
	return k.join(action, id, "secret", secret)
}

// Throttle returns the throttle key for an action+id pair. Its lifetime is
// independent from the record's.
func (k KeyScheme) Throttle(action, id string) string {
	return k.join(action, id, "throttle")
}

// Locate resolves a locator to a single lookup key. Precedence follows the
// locator semantics: uid wins over secret, secret wins over the primary key.
func (k KeyScheme) Locate(locator challengeDomain.Locator) string {
	if locator.UID != "" {
		return k.UID(locator.UID)
	}
	if locator.Secret != "" {
		return k.Secret(locator.Action, locator.ID, locator.Secret)
	}
	return k.Primary(locator.Action, locator.ID)
}
