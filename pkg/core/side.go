package core

import (
	"fmt"
	"strings"
)

// SideType represents the direction of a labeled point (BUY or SELL)
type SideType string

// Side constants
const (
	SideTypeBuy  SideType = "BUY"
	SideTypeSell SideType = "SELL"
)

// ParseSide converts a loosely formatted side into a SideType
func ParseSide(value string) (SideType, error) {
	switch SideType(strings.ToUpper(strings.TrimSpace(value))) {
	case SideTypeBuy:
		return SideTypeBuy, nil
	case SideTypeSell:
		return SideTypeSell, nil
	}

	return "", fmt.Errorf("%w: %q", ErrUnknownSide, value)
}

// Side returns a pointer to the given side, handy for forced toggles
func Side(side SideType) *SideType {
	return &side
}

func (s SideType) String() string {
	return string(s)
}
