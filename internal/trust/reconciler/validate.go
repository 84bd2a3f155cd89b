package reconciler

import (
	"errors"
	"strings"
	"unicode"

	"github.com/ethereum/go-ethereum/common"
)

// Validator checks that a peer identifier is well-formed.
type Validator func(peer string) error

var (
	errEmptyPeer     = errors.New("empty identifier")
	errWhitespace    = errors.New("identifier contains whitespace")
	errNotHexAddress = errors.New("not a hex address")
)

// NonEmpty accepts any identifier without whitespace.
func NonEmpty(peer string) error {
	if peer == "" {
		return errEmptyPeer
	}
	if strings.IndexFunc(peer, unicode.IsSpace) >= 0 {
		return errWhitespace
	}
	return nil
}

// HexAddress accepts 20-byte hex account addresses, with or without 0x prefix.
func HexAddress(peer string) error {
	if err := NonEmpty(peer); err != nil {
		return err
	}
	if !common.IsHexAddress(peer) {
		return errNotHexAddress
	}
	return nil
}
