// Package session manages the connected wallet session: signing in through
// the plugin chain, persisting the result, restoring it at startup, and
// scoping it to the selected network.
package session

import (
	"encoding/json"
	"time"

	"github.com/mrz1836/nearconnect/internal/near"
)

// StateKey is the storage key holding the persisted session.
const StateKey = "near-connect:session"

// Session is an authenticated wallet identity bound to a network.
// Sessions are immutable once created and replaced wholesale on sign-in.
type Session struct {
	AccountID string          `json:"accountId"`
	PublicKey string          `json:"publicKey"`
	Network   near.Network    `json:"network"`
	Proof     json.RawMessage `json:"proof"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Account returns the account view of the session.
func (s *Session) Account() near.Account {
	return near.Account{AccountID: s.AccountID, PublicKey: s.PublicKey}
}

// State is the connection lifecycle state.
type State int

// Connection states.
const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

// String returns the lowercase state name.
func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "disconnected"
	}
}
