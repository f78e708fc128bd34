package domain

import (
	"fmt"
	"strings"
	"time"
)

// ActorKind tags which credential namespace an actor belongs to.
// The zero value is not a valid kind.
type ActorKind uint8

const (
	KindEndUser ActorKind = iota + 1
	KindStudio
	KindMasterAdmin
)

var actorKindNames = map[ActorKind]string{
	KindEndUser:     "end_user",
	KindStudio:      "studio",
	KindMasterAdmin: "master_admin",
}

func (k ActorKind) String() string {
	if name, ok := actorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("actor_kind(%d)", uint8(k))
}

// Valid reports whether k is one of the declared kinds.
func (k ActorKind) Valid() bool {
	_, ok := actorKindNames[k]
	return ok
}

// ParseActorKind maps the wire name of a kind back to its value.
func ParseActorKind(s string) (ActorKind, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for k, name := range actorKindNames {
		if name == s {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown actor kind %q", ErrInvalidInput, s)
}

func (k ActorKind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: actor kind %d", ErrInvalidInput, uint8(k))
	}
	return []byte(k.String()), nil
}

func (k *ActorKind) UnmarshalText(b []byte) error {
	parsed, err := ParseActorKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// KindSet is the set of actor kinds a route accepts.
type KindSet uint8

// Kinds builds a KindSet from the given kinds.
func Kinds(kinds ...ActorKind) KindSet {
	var s KindSet
	for _, k := range kinds {
		if k.Valid() {
			s |= 1 << k
		}
	}
	return s
}

func (s KindSet) Has(k ActorKind) bool {
	return k.Valid() && s&(1<<k) != 0
}

func (s KindSet) String() string {
	names := make([]string, 0, len(actorKindNames))
	for _, k := range []ActorKind{KindEndUser, KindStudio, KindMasterAdmin} {
		if s.Has(k) {
			names = append(names, k.String())
		}
	}
	return strings.Join(names, "|")
}

// Actor is an authenticated party. Login is unique only within Kind.
type Actor struct {
	ID           string    `json:"id"`
	Kind         ActorKind `json:"kind"`
	Login        string    `json:"login"`
	DisplayName  string    `json:"display_name,omitempty"`
	PasswordHash string    `json:"-"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}
