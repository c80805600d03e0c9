package models

import (
	"fmt"
	"strings"
)

type Platform string

const (
	PlatformFacebook  Platform = "facebook"
	PlatformInstagram Platform = "instagram"
	// PlatformBoth is shorthand for facebook and instagram.
	PlatformBoth Platform = "both"
)

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformFacebook, PlatformInstagram, PlatformBoth:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// PlatformSet is the set of concrete platforms a post targets.
type PlatformSet uint8

const (
	SetFacebook PlatformSet = 1 << iota
	SetInstagram
)

func NewPlatformSet(platforms ...Platform) PlatformSet {
	var s PlatformSet
	for _, p := range platforms {
		switch p {
		case PlatformFacebook:
			s |= SetFacebook
		case PlatformInstagram:
			s |= SetInstagram
		case PlatformBoth:
			s |= SetFacebook | SetInstagram
		}
	}
	return s
}

func (s PlatformSet) Has(p Platform) bool {
	switch p {
	case PlatformFacebook:
		return s&SetFacebook != 0
	case PlatformInstagram:
		return s&SetInstagram != 0
	case PlatformBoth:
		return s&(SetFacebook|SetInstagram) == SetFacebook|SetInstagram
	}
	return false
}

func (s PlatformSet) Empty() bool {
	return s == 0
}
