package models

import (
	"fmt"
	"strings"
)

// Vibe is the mood tag attached to a playlist, stored as its short code.
type Vibe string

const (
	VibePop     Vibe = "POP"
	VibeRock    Vibe = "ROCK"
	VibeLatin   Vibe = "LATIN"
	VibeCountry Vibe = "COUNTRY"
	VibeTechno  Vibe = "TECHNO"
	VibeRnBSoul Vibe = "RNB/SOUL"
)

// DefaultVibe is assigned when a playlist is created without one.
const DefaultVibe = VibePop

var vibeLabels = map[Vibe]string{
	VibePop:     "Pop",
	VibeRock:    "Rock",
	VibeLatin:   "Latin",
	VibeCountry: "Country",
	VibeTechno:  "Techno",
	VibeRnBSoul: "R&B/Soul",
}

// Vibes lists every supported vibe in display order.
func Vibes() []Vibe {
	return []Vibe{VibePop, VibeRock, VibeLatin, VibeCountry, VibeTechno, VibeRnBSoul}
}

// ParseVibe normalises raw input into a Vibe. Blank input yields DefaultVibe.
func ParseVibe(raw string) (Vibe, error) {
	code := strings.ToUpper(strings.TrimSpace(raw))
	if code == "" {
		return DefaultVibe, nil
	}
	v := Vibe(code)
	if !v.Valid() {
		return "", fmt.Errorf("unknown vibe %q", raw)
	}
	return v, nil
}

// Valid reports whether v is one of the supported codes.
func (v Vibe) Valid() bool {
	_, ok := vibeLabels[v]
	return ok
}

// Label returns the human readable name.
func (v Vibe) Label() string {
	return vibeLabels[v]
}
