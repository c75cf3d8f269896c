package keys

import (
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"xdao.co/rdfc/proof"
)

// ErrNoSigner is returned by LoadSeed when no seed source was given.
var ErrNoSigner = errors.New("keys: no signer provided")

// KeyStore keeps seeds under Directory:
//
//	<name>/root.key
//	<name>/purposes/<purpose>.key
type KeyStore struct {
	Directory string
}

type KeyEntry struct {
	Name     string
	Purposes []string
}

// DefaultDirectory returns ~/.xdao/rdfc/keys.
func DefaultDirectory() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".xdao", "rdfc", "keys"), nil
}

// Open returns a store rooted at directory, or at DefaultDirectory when
// directory is empty. Nothing is created until a key is written.
func Open(directory string) (*KeyStore, error) {
	if directory == "" {
		var err error
		directory, err = DefaultDirectory()
		if err != nil {
			return nil, err
		}
	}
	return &KeyStore{Directory: directory}, nil
}

func (ks *KeyStore) rootPath(name string) string {
	return filepath.Join(ks.Directory, name, "root.key")
}

func (ks *KeyStore) purposePath(name, purpose string) string {
	return filepath.Join(ks.Directory, name, "purposes", purpose+".key")
}

// CheckName accepts [A-Za-z0-9_-]+. Names and purposes become path
// components.
func CheckName(name string) error {
	if name == "" {
		return errors.New("name cannot be empty")
	}
	for _, c := range name {
		if (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9') || c == '-' || c == '_' {
			continue
		}
		return fmt.Errorf("invalid character %q in name", c)
	}
	return nil
}

func ParseSeedHex(seedHex string) ([]byte, error) {
	seedHex = strings.TrimSpace(seedHex)
	seedHex = strings.TrimPrefix(seedHex, "0x")
	data, err := hex.DecodeString(seedHex)
	if err != nil {
		return nil, err
	}
	if len(data) != ed25519.SeedSize {
		return nil, fmt.Errorf("expected seed length of %d bytes, got %d", ed25519.SeedSize, len(data))
	}
	return data, nil
}

func writeSeed(path string, seed []byte, overwrite bool) error {
	if len(seed) != ed25519.SeedSize {
		return fmt.Errorf("expected seed length of %d bytes", ed25519.SeedSize)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	flags := os.O_WRONLY | os.O_CREATE
	if overwrite {
		flags |= os.O_TRUNC
	} else {
		flags |= os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	if _, err := f.WriteString(hex.EncodeToString(seed) + "\n"); err != nil {
		return err
	}
	return f.Close()
}

func readSeed(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeedHex(string(data))
}

// Init writes a root seed for name and returns the file path.
func (ks *KeyStore) Init(name string, seed []byte, overwrite bool) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	path := ks.rootPath(name)
	if err := writeSeed(path, seed, overwrite); err != nil {
		return "", err
	}
	return path, nil
}

// Derive writes the purpose seed derived from name's root seed.
func (ks *KeyStore) Derive(name, purpose string, overwrite bool) (string, error) {
	if err := CheckName(name); err != nil {
		return "", err
	}
	if err := CheckName(purpose); err != nil {
		return "", err
	}
	root, err := readSeed(ks.rootPath(name))
	if err != nil {
		return "", err
	}
	seed, err := proof.DeriveSeed(root, purpose)
	if err != nil {
		return "", err
	}
	path := ks.purposePath(name, purpose)
	if err := writeSeed(path, seed, overwrite); err != nil {
		return "", err
	}
	return path, nil
}

// Seed returns the stored seed for name, or for one of its purposes when
// purpose is non-empty.
func (ks *KeyStore) Seed(name, purpose string) ([]byte, error) {
	if err := CheckName(name); err != nil {
		return nil, err
	}
	if purpose == "" {
		return readSeed(ks.rootPath(name))
	}
	if err := CheckName(purpose); err != nil {
		return nil, err
	}
	return readSeed(ks.purposePath(name, purpose))
}

// LoadSeed resolves a seed from the first source given: a hex seed, a key
// file, or a stored name (and optional purpose).
func (ks *KeyStore) LoadSeed(seedHex, keyFile, name, purpose string) ([]byte, error) {
	switch {
	case seedHex != "":
		return ParseSeedHex(seedHex)
	case keyFile != "":
		return readSeed(keyFile)
	case name != "":
		return ks.Seed(name, purpose)
	default:
		return nil, ErrNoSigner
	}
}

// Signer loads a stored seed and builds a proof signer for alg.
func (ks *KeyStore) Signer(name, purpose, alg string) (proof.Signer, error) {
	seed, err := ks.Seed(name, purpose)
	if err != nil {
		return nil, err
	}
	return proof.SignerFromSeed(alg, seed)
}

// IssuerKey returns the public Issuer-Key string for a stored seed.
func (ks *KeyStore) IssuerKey(name, purpose, alg string) (string, error) {
	s, err := ks.Signer(name, purpose, alg)
	if err != nil {
		return "", err
	}
	return s.IssuerKey()
}

// List returns every stored name with its derived purposes, sorted.
func (ks *KeyStore) List() ([]KeyEntry, error) {
	entries, err := os.ReadDir(ks.Directory)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	var out []KeyEntry
	for _, name := range names {
		var purposes []string
		if pe, err := os.ReadDir(filepath.Join(ks.Directory, name, "purposes")); err == nil {
			for _, e := range pe {
				if !e.IsDir() && strings.HasSuffix(e.Name(), ".key") {
					purposes = append(purposes, strings.TrimSuffix(e.Name(), ".key"))
				}
			}
			sort.Strings(purposes)
		}
		out = append(out, KeyEntry{Name: name, Purposes: purposes})
	}
	return out, nil
}
