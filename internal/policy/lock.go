package policy

import (
	"crypto/ed25519"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"golang.org/x/crypto/blake2b"
)

// Lock is the Policy Lock document: the policy fingerprint and version
// pinned at the last maintenance-mode `policy lock-init`.
type Lock struct {
	LockedHash    string `json:"locked_policy_sha256"`
	LockedVersion int    `json:"locked_version"`
	// Signature is an optional hex-encoded ed25519 signature over the lock's
	// digest, set by SignLock. Verify never requires it; only VerifySignature
	// does, which runs when policy.verify_sig_public_key is configured.
	Signature string `json:"signature,omitempty"`
}

// lockDigest hashes the lock's fingerprint and version with blake2b-256 so
// the signature covers both fields without signing raw JSON formatting.
func lockDigest(hash string, version int) [32]byte {
	return blake2b.Sum256([]byte(fmt.Sprintf("%s:%d", hash, version)))
}

// Initialize computes the current policy's fingerprint and writes it as the
// new lock. Callers must only invoke this in maintenance mode; Initialize
// itself does not enforce that, since the mode gate is a CLI-level concern.
func Initialize(policyPath, lockPath string) error {
	p, err := Load(policyPath)
	if err != nil {
		return err
	}
	hash, err := SHA256(policyPath)
	if err != nil {
		return err
	}

	lock := Lock{LockedHash: hash, LockedVersion: p.Version}
	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling policy lock: %w", err)
	}

	dir := filepath.Dir(lockPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating lock directory %s: %w", dir, err)
	}
	if err := os.WriteFile(lockPath, data, 0o600); err != nil {
		return fmt.Errorf("writing policy lock %s: %w", lockPath, err)
	}

	slog.Info("policy lock initialized", "path", lockPath, "version", lock.LockedVersion, "hash", lock.LockedHash)
	return nil
}

// LoadLock reads and parses the lock file, failing with *LockError if it is
// missing or malformed.
func LoadLock(lockPath string) (*Lock, error) {
	data, err := os.ReadFile(lockPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, &LockError{Reason: "policy lock not initialized"}
		}
		return nil, fmt.Errorf("reading policy lock %s: %w", lockPath, err)
	}

	var lock Lock
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, &LockError{Reason: fmt.Sprintf("policy lock malformed: %v", err)}
	}
	return &lock, nil
}

// Verify fails with *LockError if (a) the lock file is missing, (b) the
// current policy's fingerprint no longer matches the locked fingerprint, or
// (c) the current policy's version no longer matches the locked version.
// The runtime calls Verify at every startup except when explicitly in
// maintenance mode.
func Verify(policyPath, lockPath string) error {
	lock, err := LoadLock(lockPath)
	if err != nil {
		return err
	}

	currentHash, err := SHA256(policyPath)
	if err != nil {
		return err
	}
	currentPolicy, err := Load(policyPath)
	if err != nil {
		return err
	}

	if currentHash != lock.LockedHash {
		return &LockError{Reason: "policy file altered outside maintenance mode"}
	}
	if currentPolicy.Version != lock.LockedVersion {
		return &LockError{Reason: "policy version mismatch with locked version"}
	}
	return nil
}

// SignLock signs the lock's digest with a hex-encoded ed25519 private key
// and rewrites the lock file with the signature attached. Operators run
// this after `policy lock-init` to let a later VerifySignature check
// detect a lock file swapped in by something other than this key.
func SignLock(lockPath, privateKeyHex string) error {
	lock, err := LoadLock(lockPath)
	if err != nil {
		return err
	}

	keyBytes, err := hex.DecodeString(privateKeyHex)
	if err != nil {
		return fmt.Errorf("decoding signing key: %w", err)
	}
	if len(keyBytes) != ed25519.PrivateKeySize {
		return fmt.Errorf("signing key must be %d bytes, got %d", ed25519.PrivateKeySize, len(keyBytes))
	}

	digest := lockDigest(lock.LockedHash, lock.LockedVersion)
	lock.Signature = hex.EncodeToString(ed25519.Sign(ed25519.PrivateKey(keyBytes), digest[:]))

	data, err := json.MarshalIndent(lock, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling policy lock: %w", err)
	}
	if err := os.WriteFile(lockPath, data, 0o600); err != nil {
		return fmt.Errorf("writing policy lock %s: %w", lockPath, err)
	}

	slog.Info("policy lock signed", "path", lockPath)
	return nil
}

// VerifySignature checks the lock's detached signature against a hex-encoded
// ed25519 public key. Unlike Verify, this is opt-in: a lock with no
// signature at all only fails this check, not the unsigned-by-default
// startup Verify.
func VerifySignature(lockPath, publicKeyHex string) error {
	lock, err := LoadLock(lockPath)
	if err != nil {
		return err
	}
	if lock.Signature == "" {
		return &LockError{Reason: "policy lock has no signature"}
	}

	pubBytes, err := hex.DecodeString(publicKeyHex)
	if err != nil {
		return fmt.Errorf("decoding verification key: %w", err)
	}
	if len(pubBytes) != ed25519.PublicKeySize {
		return fmt.Errorf("verification key must be %d bytes, got %d", ed25519.PublicKeySize, len(pubBytes))
	}

	sig, err := hex.DecodeString(lock.Signature)
	if err != nil {
		return fmt.Errorf("decoding lock signature: %w", err)
	}

	digest := lockDigest(lock.LockedHash, lock.LockedVersion)
	if !ed25519.Verify(ed25519.PublicKey(pubBytes), digest[:], sig) {
		return &LockError{Reason: "policy lock signature verification failed"}
	}
	return nil
}
