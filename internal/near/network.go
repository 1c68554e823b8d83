// Package near holds the NEAR protocol primitives shared by the session
// manager and its plugins: networks, account ids and ed25519 public keys.
package near

import (
	"strings"

	"github.com/agnivade/levenshtein"

	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// Network identifies a NEAR network.
type Network string

// Supported networks.
const (
	Mainnet Network = "mainnet"
	Testnet Network = "testnet"
)

// maxNetworkTypoDistance is the largest edit distance for a "did you mean" hint.
const maxNetworkTypoDistance = 3

// Networks returns all supported networks in display order.
func Networks() []Network {
	return []Network{Mainnet, Testnet}
}

// String returns the network name.
func (n Network) String() string {
	return string(n)
}

// Valid reports whether n is a supported network.
func (n Network) Valid() bool {
	return n == Mainnet || n == Testnet
}

// ParseNetwork parses a network name case-insensitively.
func ParseNetwork(s string) (Network, error) {
	n := Network(strings.ToLower(strings.TrimSpace(s)))
	if n.Valid() {
		return n, nil
	}

	err := connerr.WithDetails(connerr.ErrInvalidNetwork, map[string]string{"network": s})
	if suggestion := SuggestNetwork(s); suggestion != "" {
		err = connerr.WithSuggestion(err, "did you mean '"+suggestion.String()+"'?")
	}
	return "", err
}

// SuggestNetwork returns the closest supported network to input,
// or an empty Network when nothing is close enough.
func SuggestNetwork(input string) Network {
	input = strings.ToLower(strings.TrimSpace(input))
	if input == "" {
		return ""
	}

	var suggestion Network
	minDist := maxNetworkTypoDistance + 1
	for _, n := range Networks() {
		dist := levenshtein.ComputeDistance(input, n.String())
		if dist < minDist {
			minDist = dist
			suggestion = n
		}
	}

	if minDist <= maxNetworkTypoDistance {
		return suggestion
	}
	return ""
}

// InferNetwork guesses the network an account lives on from its id.
// Named accounts ending in "testnet" are testnet accounts; everything else
// is treated as mainnet.
func InferNetwork(accountID string) Network {
	if strings.HasSuffix(accountID, "testnet") {
		return Testnet
	}
	return Mainnet
}
