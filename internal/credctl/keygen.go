package credctl

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

const (
	PrivateKeyFile = "private.pem"
	PublicKeyFile  = "public.pem"
	MinKeyBits     = 2048
)

var randReader io.Reader = rand.Reader

func keygen(args []string, stdout, stderr io.Writer) error {
	fs := flag.NewFlagSet("keygen", flag.ContinueOnError)
	fs.SetOutput(stderr)
	out := fs.String("out", ".", "output directory")
	bits := fs.Int("bits", MinKeyBits, "RSA key size")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	if *bits < MinKeyBits {
		return fmt.Errorf("key size %d is below %d bits", *bits, MinKeyBits)
	}

	priv, pub, err := GenerateKeyPair(*bits)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(*out, 0o700); err != nil {
		return fmt.Errorf("output dir: %w", err)
	}

	privPath := filepath.Join(*out, PrivateKeyFile)
	pubPath := filepath.Join(*out, PublicKeyFile)

	if err := writeNew(privPath, priv, 0o600); err != nil {
		return err
	}
	if err := writeNew(pubPath, pub, 0o644); err != nil {
		return err
	}

	fmt.Fprintf(stdout, "wrote %s\nwrote %s\n", privPath, pubPath)
	return nil
}

// GenerateKeyPair returns a PKCS#1 private key and its PKIX public key,
// both PEM encoded.
func GenerateKeyPair(bits int) (privatePEM, publicPEM []byte, err error) {
	key, err := rsa.GenerateKey(randReader, bits)
	if err != nil {
		return nil, nil, fmt.Errorf("generate key: %w", err)
	}

	pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
	if err != nil {
		return nil, nil, fmt.Errorf("marshal public key: %w", err)
	}

	privatePEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
	publicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})
	return privatePEM, publicPEM, nil
}

// writeNew refuses to overwrite existing key files.
func writeNew(path string, data []byte, perm os.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists", path)
		}
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
