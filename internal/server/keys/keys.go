// Package keys loads the RSA key pair used to sign and verify tokens.
//
// A key source is one of:
//
//	env:NAME          value of environment variable NAME ("\n" escapes are expanded)
//	file:/path/to.pem contents of a local file
//	s3://bucket/key   object fetched from S3-compatible storage
//	-----BEGIN ...    inline PEM
package keys

import (
	"context"
	"crypto/rsa"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrEmptySource    = errors.New("key source is empty")
	ErrUnknownSource  = errors.New("unrecognised key source")
	ErrKeyMismatch    = errors.New("public key does not match private key")
	ErrMissingEnvVar  = errors.New("environment variable not set")
	ErrMalformedS3URI = errors.New("malformed s3 uri")
)

var (
	lookupEnv = os.LookupEnv
	readFile  = os.ReadFile

	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	getObject = func(c *s3.Client, ctx context.Context, in *s3.GetObjectInput) (*s3.GetObjectOutput, error) {
		return c.GetObject(ctx, in)
	}
)

// S3Options configures access to object storage for s3:// sources.
// Empty credentials fall back to the default AWS credential chain.
type S3Options struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
}

// Material is the token key pair. Private may be nil for verify-only use.
type Material struct {
	Private *rsa.PrivateKey
	Public  *rsa.PublicKey
}

// Load reads the private key from privateSource and the public key from
// publicSource. When publicSource is empty the public half of the private
// key is used.
func Load(ctx context.Context, privateSource, publicSource string, opts S3Options) (*Material, error) {
	privPEM, err := Read(ctx, privateSource, opts)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}
	priv, err := jwt.ParseRSAPrivateKeyFromPEM(privPEM)
	if err != nil {
		return nil, fmt.Errorf("private key: %w", err)
	}

	m := &Material{Private: priv, Public: &priv.PublicKey}
	if publicSource == "" {
		return m, nil
	}

	pubPEM, err := Read(ctx, publicSource, opts)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	pub, err := jwt.ParseRSAPublicKeyFromPEM(pubPEM)
	if err != nil {
		return nil, fmt.Errorf("public key: %w", err)
	}
	if !priv.PublicKey.Equal(pub) {
		return nil, ErrKeyMismatch
	}
	m.Public = pub

	return m, nil
}

// Read resolves source to raw bytes.
func Read(ctx context.Context, source string, opts S3Options) ([]byte, error) {
	source = strings.TrimSpace(source)
	switch {
	case source == "":
		return nil, ErrEmptySource
	case strings.HasPrefix(source, "-----BEGIN"):
		return []byte(unescape(source)), nil
	case strings.HasPrefix(source, "env:"):
		name := strings.TrimPrefix(source, "env:")
		v, ok := lookupEnv(name)
		if !ok || v == "" {
			return nil, fmt.Errorf("%w: %s", ErrMissingEnvVar, name)
		}
		return []byte(unescape(v)), nil
	case strings.HasPrefix(source, "file:"):
		return readFile(strings.TrimPrefix(source, "file:"))
	case strings.HasPrefix(source, "s3://"):
		return readS3(ctx, strings.TrimPrefix(source, "s3://"), opts)
	default:
		return nil, ErrUnknownSource
	}
}

// unescape turns literal "\n" sequences into newlines, the way keys are
// usually pasted into single-line environment variables.
func unescape(s string) string {
	return strings.ReplaceAll(s, `\n`, "\n")
}

func readS3(ctx context.Context, path string, opts S3Options) ([]byte, error) {
	bucket, key, ok := strings.Cut(path, "/")
	if !ok || bucket == "" || key == "" {
		return nil, fmt.Errorf("%w: s3://%s", ErrMalformedS3URI, path)
	}

	var loadOpts []func(*config.LoadOptions) error
	if opts.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, "")))
	}

	cfg, err := loadDefaultAWSConfig(ctx, loadOpts...)
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(opts.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := getObject(client, ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get %s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	return io.ReadAll(out.Body)
}
