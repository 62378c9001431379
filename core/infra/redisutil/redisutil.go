// Package redisutil builds Redis clients shared by the attachment and record
// stores.
package redisutil

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	DefaultURL  = "redis://localhost:6379"
	pingTimeout = 2 * time.Second

	envTLSCA         = "REDIS_TLS_CA"
	envTLSCert       = "REDIS_TLS_CERT"
	envTLSKey        = "REDIS_TLS_KEY"
	envTLSInsecure   = "REDIS_TLS_INSECURE"
	envTLSServerName = "REDIS_TLS_SERVER_NAME"
)

var errKeyPair = errors.New("redis tls cert and key must be set together")

// Connect parses url, creates a client and verifies it answers a ping.
// An empty url falls back to DefaultURL.
func Connect(url string) (redis.UniversalClient, error) {
	client, err := NewClient(url)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return client, nil
}

// NewClient creates a client without contacting the server.
func NewClient(url string) (redis.UniversalClient, error) {
	opts, err := ParseOptions(url)
	if err != nil {
		return nil, err
	}
	return redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:     []string{opts.Addr},
		Username:  opts.Username,
		Password:  opts.Password,
		DB:        opts.DB,
		TLSConfig: opts.TLSConfig,
	}), nil
}

// ParseOptions parses a Redis URL and layers TLS settings from the environment
// on top of whatever the scheme implies.
func ParseOptions(url string) (*redis.Options, error) {
	if strings.TrimSpace(url) == "" {
		url = DefaultURL
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	settings := tlsSettingsFromEnv()
	if settings.empty() {
		return opts, nil
	}
	cfg, err := settings.apply(opts.TLSConfig)
	if err != nil {
		return nil, err
	}
	opts.TLSConfig = cfg
	return opts, nil
}

type tlsSettings struct {
	caPath     string
	certPath   string
	keyPath    string
	serverName string
	insecure   bool
}

func tlsSettingsFromEnv() tlsSettings {
	return tlsSettings{
		caPath:     strings.TrimSpace(os.Getenv(envTLSCA)),
		certPath:   strings.TrimSpace(os.Getenv(envTLSCert)),
		keyPath:    strings.TrimSpace(os.Getenv(envTLSKey)),
		serverName: strings.TrimSpace(os.Getenv(envTLSServerName)),
		insecure:   envBool(envTLSInsecure),
	}
}

func (s tlsSettings) empty() bool {
	return s.caPath == "" && s.certPath == "" && s.keyPath == "" && s.serverName == "" && !s.insecure
}

func (s tlsSettings) apply(existing *tls.Config) (*tls.Config, error) {
	cfg := &tls.Config{MinVersion: tls.VersionTLS12}
	if existing != nil {
		cfg = existing.Clone()
	}
	if s.serverName != "" {
		cfg.ServerName = s.serverName
	}
	if s.insecure {
		cfg.InsecureSkipVerify = true // #nosec G402 -- opt-in via REDIS_TLS_INSECURE.
	}
	if s.caPath != "" {
		// #nosec G304 -- path comes from operator env.
		pem, err := os.ReadFile(s.caPath)
		if err != nil {
			return nil, fmt.Errorf("redis tls ca read: %w", err)
		}
		pool := cfg.RootCAs
		if pool == nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("redis tls ca parse: %s", s.caPath)
		}
		cfg.RootCAs = pool
	}
	if s.certPath != "" || s.keyPath != "" {
		if s.certPath == "" || s.keyPath == "" {
			return nil, errKeyPair
		}
		cert, err := tls.LoadX509KeyPair(s.certPath, s.keyPath)
		if err != nil {
			return nil, fmt.Errorf("redis tls keypair: %w", err)
		}
		cfg.Certificates = []tls.Certificate{cert}
	}
	return cfg, nil
}

func envBool(key string) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	default:
		return false
	}
}
