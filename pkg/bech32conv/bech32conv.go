// Package bech32conv re-encodes bech32 addresses under a different human-readable prefix.
package bech32conv

import (
	"errors"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcutil/bech32"
)

var (
	// ErrEmptyPrefix is returned when the target prefix is blank
	ErrEmptyPrefix = errors.New("empty target prefix")
	// ErrPrefixMismatch is wrapped in a DecodeError when an address carries an unexpected prefix
	ErrPrefixMismatch = errors.New("unexpected address prefix")
)

// DecodeError is returned for an address that is not valid bech32
type DecodeError struct {
	Address string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding address %q: %v", e.Address, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// Reencoder converts addresses between prefixes. The zero value is ready to use.
type Reencoder struct{}

// Reencode returns address with its prefix replaced by prefix. The payload is kept as is.
func (r Reencoder) Reencode(address, prefix string) (string, error) {
	return r.ReencodeFrom(address, "", prefix)
}

// ReencodeFrom is Reencode for addresses that must carry the prefix from. An empty from accepts any prefix.
func (Reencoder) ReencodeFrom(address, from, to string) (string, error) {
	to = strings.ToLower(strings.TrimSpace(to))
	if to == "" {
		return "", ErrEmptyPrefix
	}

	hrp, data, err := bech32.DecodeNoLimit(address)
	if err != nil {
		return "", &DecodeError{Address: address, Err: err}
	}
	if from = strings.ToLower(strings.TrimSpace(from)); from != "" && hrp != from {
		return "", &DecodeError{Address: address, Err: fmt.Errorf("%w: got %q, want %q", ErrPrefixMismatch, hrp, from)}
	}

	encoded, err := bech32.Encode(to, data)
	if err != nil {
		return "", fmt.Errorf("encoding with prefix %q: %w", to, err)
	}
	return encoded, nil
}

// Decode returns the prefix and the 8-bit payload of an address
func Decode(address string) (string, []byte, error) {
	hrp, data, err := bech32.DecodeNoLimit(address)
	if err != nil {
		return "", nil, &DecodeError{Address: address, Err: err}
	}

	payload, err := bech32.ConvertBits(data, 5, 8, false)
	if err != nil {
		return "", nil, &DecodeError{Address: address, Err: err}
	}
	return hrp, payload, nil
}

// Encode builds an address from a prefix and an 8-bit payload
func Encode(prefix string, payload []byte) (string, error) {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	if prefix == "" {
		return "", ErrEmptyPrefix
	}
	return bech32.EncodeFromBase256(prefix, payload)
}
