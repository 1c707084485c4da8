package repository

import (
	"encoding/json"
	"fmt"
	"strconv"

	challengeDomain "github.com/allisson/challenge/internal/challenge/domain"
	apperrors "github.com/allisson/challenge/internal/errors"
)

// challengeFromHash rebuilds a challenge from its Redis hash fields. The
// reserved fields carry their own types; everything else round-trips through
// JSON.
func challengeFromHash(fields map[string]string) (*challengeDomain.Challenge, error) {
	if len(fields) == 0 {
		return nil, challengeDomain.ErrChallengeNotFound
	}

	challenge := &challengeDomain.Challenge{
		ID:     fields["id"],
		Action: fields["action"],
		UID:    fields["uid"],
		Secret: fields["secret"],
	}

	var err error
	if challenge.Created, err = parseIntField(fields, "created"); err != nil {
		return nil, err
	}
	if challenge.Verified, err = parseIntField(fields, "verified"); err != nil {
		return nil, err
	}
	if challenge.TTL, err = parseIntField(fields, "ttl"); err != nil {
		return nil, err
	}
	if challenge.Throttle, err = parseIntField(fields, "throttle"); err != nil {
		return nil, err
	}

	if raw, ok := fields["settings"]; ok && raw != "" && raw != "null" {
		settings := &challengeDomain.SecretSettings{}
		if err := json.Unmarshal([]byte(raw), settings); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode challenge settings")
		}
		challenge.Settings = settings
	}

	if raw, ok := fields["metadata"]; ok && raw != "" && raw != "null" {
		if err := json.Unmarshal([]byte(raw), &challenge.Metadata); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode challenge metadata")
		}
	}

	if raw, ok := fields["related"]; ok && raw != "" {
		if err := json.Unmarshal([]byte(raw), &challenge.Related); err != nil {
			return nil, apperrors.Wrap(err, "failed to decode challenge related keys")
		}
	}

	challenge.IsFirstVerification = fields["isFirstVerification"] == "true"

	return challenge, nil
}

// challengeFromReply converts a flattened field-value script reply into a
// challenge.
func challengeFromReply(reply interface{}) (*challengeDomain.Challenge, error) {
	items, ok := reply.([]interface{})
	if !ok {
		return nil, apperrors.New("unexpected script reply type")
	}

	fields := make(map[string]string, len(items)/2)
	for i := 0; i+1 < len(items); i += 2 {
		prop, ok := items[i].(string)
		if !ok {
			return nil, apperrors.New("unexpected script reply field")
		}
		value, ok := items[i+1].(string)
		if !ok {
			return nil, apperrors.New("unexpected script reply value")
		}
		fields[prop] = value
	}

	return challengeFromHash(fields)
}

func parseIntField(fields map[string]string, name string) (int64, error) {
	raw, ok := fields[name]
	if !ok || raw == "" {
		return 0, nil
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, apperrors.Wrap(err, fmt.Sprintf("failed to parse challenge field %q", name))
	}
	return value, nil
}
