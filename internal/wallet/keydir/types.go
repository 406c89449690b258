package keydir

import (
	"strings"

	"github/chapool/go-remote-wallet/internal/wallet/walleterr"
)

// Curve identifies the elliptic curve of a remote key.
type Curve string

const (
	CurveSecp256k1 Curve = "secp256k1"
)

// ParseCurve parses a curve id case-insensitively.
func ParseCurve(s string) (Curve, error) {
	switch Curve(strings.ToLower(strings.TrimSpace(s))) {
	case CurveSecp256k1:
		return CurveSecp256k1, nil
	default:
		return "", walleterr.Newf(walleterr.KindConfig, "keydir.ParseCurve", "unsupported curve %q", s)
	}
}

// KeyHandle names a key held by the remote signer. It never contains key material.
type KeyHandle struct {
	Name  string `json:"name"`
	Curve Curve  `json:"curve"`
}

// Validate checks that the handle can be sent to the remote signer.
func (h KeyHandle) Validate() error {
	if strings.TrimSpace(h.Name) == "" {
		return walleterr.New(walleterr.KindConfig, "keydir.Validate", "key name is required")
	}
	if _, err := ParseCurve(string(h.Curve)); err != nil {
		return err
	}
	return nil
}

func (h KeyHandle) String() string {
	return h.Name + "/" + string(h.Curve)
}
