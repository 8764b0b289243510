package types

import "github.com/google/uuid"

type SessionID string

func NewSessionID() SessionID {
	return SessionID(uuid.New().String())
}

// ParseSessionID validates that s is a well-formed session identifier.
func ParseSessionID(s string) (SessionID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return "", err
	}
	return SessionID(id.String()), nil
}
