package near

import (
	"regexp"

	connerr "github.com/mrz1836/nearconnect/pkg/errors"
)

// Account length limits from the NEAR account id rules.
const (
	MinAccountIDLength = 2
	MaxAccountIDLength = 64
)

var (
	// namedAccountRegex matches dot-separated parts of lowercase alphanumerics
	// joined by single '-' or '_' separators.
	namedAccountRegex = regexp.MustCompile(`^(([a-z\d]+[\-_])*[a-z\d]+\.)*([a-z\d]+[\-_])*[a-z\d]+$`)

	// implicitAccountRegex matches 64 lowercase hex characters (ed25519 implicit accounts).
	implicitAccountRegex = regexp.MustCompile(`^[0-9a-f]{64}$`)
)

// Account is a wallet account as reported by a plugin.
type Account struct {
	AccountID string `json:"accountId"`
	PublicKey string `json:"publicKey"`
}

// Equal reports whether both accounts carry the same id and key.
func (a Account) Equal(other Account) bool {
	return a.AccountID == other.AccountID && a.PublicKey == other.PublicKey
}

// Validate checks the account id and, when present, the public key.
func (a Account) Validate() error {
	if err := ValidateAccountID(a.AccountID); err != nil {
		return err
	}
	if a.PublicKey == "" {
		return nil
	}
	_, err := ParsePublicKey(a.PublicKey)
	return err
}

// ValidateAccountID checks id against the NEAR account id rules.
func ValidateAccountID(id string) error {
	if len(id) < MinAccountIDLength || len(id) > MaxAccountIDLength {
		return connerr.WithDetails(connerr.ErrInvalidAccount, map[string]string{
			"account": id,
			"reason":  "length must be between 2 and 64",
		})
	}

	if implicitAccountRegex.MatchString(id) || namedAccountRegex.MatchString(id) {
		return nil
	}

	return connerr.WithDetails(connerr.ErrInvalidAccount, map[string]string{
		"account": id,
		"reason":  "must be lowercase alphanumeric parts separated by '.', '-' or '_'",
	})
}
