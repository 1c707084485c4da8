package domain

// Locator identifies a stored challenge by one of its three addresses. The
// precedence matches key derivation: uid wins over secret, secret wins over
// the action+id primary key.
type Locator struct {
	ID     string `json:"id,omitempty"`
	Action string `json:"action,omitempty"`
	UID    string `json:"uid,omitempty"`

	// Secret is the raw stored secret. Encrypted bearer envelopes are
	// decrypted into this field before the locator reaches storage.
	Secret string `json:"-"`
}

// Validate checks that at least one complete address is present.
func (l Locator) Validate() error {
	if l.UID != "" {
		return nil
	}
	if l.Secret != "" && l.ID != "" && l.Action != "" {
		return nil
	}
	if l.ID != "" && l.Action != "" {
		return nil
	}
	return ErrInvalidLocator
}

// BySecret reports whether the locator addresses the challenge through its
// secret key.
func (l Locator) BySecret() bool {
	return l.UID == "" && l.Secret != ""
}

// ByUID reports whether the locator addresses the challenge through its uid
// key.
func (l Locator) ByUID() bool {
	return l.UID != ""
}
