package domain

// Challenge is the unit of the token lifecycle. A challenge is stored under a
// primary key derived from its action and id and mirrored under a uid key and
// a secret key so it can be located by any of the three.
type Challenge struct {
	ID       string          `json:"id"`
	Action   string          `json:"action"`
	UID      string          `json:"uid"`
	Secret   string          `json:"-"`
	Settings *SecretSettings `json:"settings,omitempty"`
	Metadata any             `json:"metadata,omitempty"`
	TTL      int64           `json:"ttl"`
	Throttle int64           `json:"throttle"`
	Created  int64           `json:"created"`
	Verified int64           `json:"verified,omitempty"`
	Related  []string        `json:"related,omitempty"`

	// IsFirstVerification is true on the verify call that stamped the
	// verified timestamp. It is derived at read time, never stored.
	IsFirstVerification bool `json:"isFirstVerification,omitempty"`
}

// IsVerified reports whether the challenge secret was presented at least once.
func (c *Challenge) IsVerified() bool {
	return c.Verified > 0
}

// ThrottleContext identifies the challenge that caused a throttle rejection,
// so clients can compute a retry time from Created and Throttle.
type ThrottleContext struct {
	ID       string `json:"id"`
	Action   string `json:"action"`
	Throttle int64  `json:"throttle"`
	Created  int64  `json:"created"`
}

// BearerPayload is the plaintext carried inside an encrypted bearer envelope.
// Token holds the raw stored secret and must never be empty.
type BearerPayload struct {
	ID     string `json:"id"`
	Action string `json:"action"`
	UID    string `json:"uid,omitempty"`
	Token  string `json:"token"`
}
