package gate

import "fmt"

type (
	// Kind selects the authentication strategy
	Kind string
)

const (
	KindDisabled   = Kind("auth")
	KindBasic      = Kind("basic_auth")
	KindSession    = Kind("session_auth")
	KindSessionExp = Kind("session_exp_auth")
	KindSessionDB  = Kind("session_db_auth")
)

// ParseKind validates s, an empty string means KindDisabled
func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case "":
		return KindDisabled, nil
	case KindDisabled, KindBasic, KindSession, KindSessionExp, KindSessionDB:
		return k, nil
	}
	return "", fmt.Errorf("gate: unknown auth type %q", s)
}

// UsesSessions reports if the strategy resolves identities from sessions
func (k Kind) UsesSessions() bool {
	return k == KindSession || k == KindSessionExp || k == KindSessionDB
}

// Expires reports if the configured session duration applies
func (k Kind) Expires() bool {
	return k == KindSessionExp || k == KindSessionDB
}

// Persistent reports if sessions survive restarts
func (k Kind) Persistent() bool {
	return k == KindSessionDB
}
