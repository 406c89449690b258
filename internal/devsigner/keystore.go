package devsigner

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"os"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/crypto/scrypt"
)

const (
	keystoreVersion = 3
	keystoreCipher  = "aes-128-ctr"
	keystoreKDF     = "scrypt"

	saltLength = 32
	ivLength   = 16

	scryptDKLen = 32
	scryptN     = 262144
	scryptR     = 8
	scryptP     = 1
)

var ErrInvalidPassword = errors.New("invalid password: MAC mismatch")

// KeystoreJSON is an Ethereum keystore v3 document holding an encrypted mnemonic.
//
//nolint:revive // KeystoreJSON is the standard name for Ethereum keystore JSON structure
type KeystoreJSON struct {
	Version int    `json:"version"`
	ID      string `json:"id"`
	Crypto  struct {
		Ciphertext   string `json:"ciphertext"`
		CipherParams struct {
			IV string `json:"iv"`
		} `json:"cipherparams"`
		Cipher    string `json:"cipher"`
		KDF       string `json:"kdf"`
		KDFParams struct {
			DKLen int    `json:"dklen"`
			Salt  string `json:"salt"`
			N     int    `json:"n"`
			R     int    `json:"r"`
			P     int    `json:"p"`
		} `json:"kdfparams"`
		MAC string `json:"mac"`
	} `json:"crypto"`
}

// ScryptParams are the KDF parameters used when encrypting.
type ScryptParams struct {
	N int
	R int
	P int
}

func DefaultScryptParams() ScryptParams {
	return ScryptParams{N: scryptN, R: scryptR, P: scryptP}
}

// EncryptMnemonic encrypts mnemonic with AES-128-CTR under a scrypt-derived key.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func EncryptMnemonic(mnemonic string, password string, params ScryptParams) (*KeystoreJSON, error) {
	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return nil, errors.Wrap(err, "failed to generate salt")
	}

	iv := make([]byte, ivLength)
	if _, err := rand.Read(iv); err != nil {
		return nil, errors.Wrap(err, "failed to generate IV")
	}

	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, scryptDKLen)
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive key")
	}

	ciphertext, err := aes128CTR(derivedKey[:16], iv, []byte(mnemonic))
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt mnemonic")
	}

	ks := &KeystoreJSON{
		Version: keystoreVersion,
		ID:      uuid.New().String(),
	}
	ks.Crypto.Ciphertext = hex.EncodeToString(ciphertext)
	ks.Crypto.CipherParams.IV = hex.EncodeToString(iv)
	ks.Crypto.Cipher = keystoreCipher
	ks.Crypto.KDF = keystoreKDF
	ks.Crypto.KDFParams.DKLen = scryptDKLen
	ks.Crypto.KDFParams.Salt = hex.EncodeToString(salt)
	ks.Crypto.KDFParams.N = params.N
	ks.Crypto.KDFParams.R = params.R
	ks.Crypto.KDFParams.P = params.P
	ks.Crypto.MAC = hex.EncodeToString(keystoreMAC(derivedKey[16:32], ciphertext))

	return ks, nil
}

// DecryptMnemonic reverses EncryptMnemonic. A wrong password yields ErrInvalidPassword.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func DecryptMnemonic(ks *KeystoreJSON, password string) (string, error) {
	if ks.Version != keystoreVersion || ks.Crypto.Cipher != keystoreCipher || ks.Crypto.KDF != keystoreKDF {
		return "", errors.Errorf("unsupported keystore: version %d, cipher %q, kdf %q", ks.Version, ks.Crypto.Cipher, ks.Crypto.KDF)
	}

	salt, err := hex.DecodeString(ks.Crypto.KDFParams.Salt)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode salt")
	}
	iv, err := hex.DecodeString(ks.Crypto.CipherParams.IV)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode IV")
	}
	ciphertext, err := hex.DecodeString(ks.Crypto.Ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode ciphertext")
	}
	expectedMAC, err := hex.DecodeString(ks.Crypto.MAC)
	if err != nil {
		return "", errors.Wrap(err, "failed to decode MAC")
	}

	params := ks.Crypto.KDFParams
	derivedKey, err := scrypt.Key([]byte(password), salt, params.N, params.R, params.P, params.DKLen)
	if err != nil {
		return "", errors.Wrap(err, "failed to derive key")
	}
	if len(derivedKey) < 32 {
		return "", errors.Errorf("derived key too short: %d bytes", len(derivedKey))
	}

	if subtle.ConstantTimeCompare(keystoreMAC(derivedKey[16:32], ciphertext), expectedMAC) != 1 {
		return "", ErrInvalidPassword
	}

	plaintext, err := aes128CTR(derivedKey[:16], iv, ciphertext)
	if err != nil {
		return "", errors.Wrap(err, "failed to decrypt mnemonic")
	}

	return string(plaintext), nil
}

// WriteKeystoreFile stores ks at path, readable by the owner only.
func WriteKeystoreFile(path string, ks *KeystoreJSON) error {
	b, err := json.MarshalIndent(ks, "", "  ")
	if err != nil {
		return errors.Wrap(err, "failed to encode keystore")
	}

	if err := os.WriteFile(path, b, 0o600); err != nil {
		return errors.Wrapf(err, "failed to write keystore to %s", path)
	}

	return nil
}

func ReadKeystoreFile(path string) (*KeystoreJSON, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to read keystore from %s", path)
	}

	var ks KeystoreJSON
	if err := json.Unmarshal(b, &ks); err != nil {
		return nil, errors.Wrap(err, "failed to decode keystore")
	}

	return &ks, nil
}

// aes128CTR encrypts and decrypts, CTR mode being symmetric.
//
//nolint:varnamelen // iv is a common abbreviation for initialization vector
func aes128CTR(key []byte, iv []byte, in []byte) ([]byte, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create cipher")
	}

	out := make([]byte, len(in))
	cipher.NewCTR(block, iv).XORKeyStream(out, in)

	return out, nil
}

// keystoreMAC is Keccak-256(derivedKey[16:32] || ciphertext) as in keystore v3.
func keystoreMAC(key []byte, ciphertext []byte) []byte {
	return crypto.Keccak256(key, ciphertext)
}
