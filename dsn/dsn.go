// Package dsn parses the connection-string shape consumed by the core
// client (§6): "jdbc:clickhouse://host[:port][/database][?k=v&...]".
// It is grounded on vaquita-mysql's url.go, which parses its own DSN the
// same way — net/url.Parse, then pull recognised keys off the query
// string with typed defaults — generalised here to this protocol's
// recognised keys and its jdbc:-prefixed scheme.
package dsn

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/chxdb/chxdb/errs"
)

const (
	defaultHost           = "127.0.0.1"
	defaultPort           = 9000
	defaultConnectTimeout = 10 * time.Second
	defaultQueryTimeout   = 30 * time.Second
)

// Config is the parsed, defaulted connection configuration (§6).
type Config struct {
	Host           string
	Port           int
	Database       string
	User           string
	Password       string
	ConnectTimeout time.Duration
	QueryTimeout   time.Duration
	Compress       bool
	Settings       map[string]string
}

// Parse parses a "jdbc:clickhouse://..." connection string into a
// defaulted Config.
func Parse(dsnStr string) (*Config, error) {
	const prefix = "jdbc:"
	trimmed := strings.TrimPrefix(dsnStr, prefix)

	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, errs.Wrap(errs.ProtocolViolation, "parse connection string", err)
	}
	if u.Scheme != "clickhouse" {
		return nil, errs.New(errs.ProtocolViolation, "unrecognised connection string scheme: "+u.Scheme)
	}

	cfg := &Config{
		Host:           defaultHost,
		Port:           defaultPort,
		ConnectTimeout: defaultConnectTimeout,
		QueryTimeout:   defaultQueryTimeout,
		Settings:       make(map[string]string),
	}

	if u.User != nil {
		cfg.User = u.User.Username()
		cfg.Password, _ = u.User.Password()
	}

	host := u.Hostname()
	if host != "" {
		cfg.Host = host
	}
	if p := u.Port(); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil {
			return nil, errs.Wrap(errs.ProtocolViolation, "parse port", err)
		}
		cfg.Port = n
	}

	cfg.Database = strings.TrimPrefix(u.Path, "/")

	q := u.Query()
	for key, vals := range q {
		if len(vals) == 0 {
			continue
		}
		val := vals[0]
		switch key {
		case "user":
			cfg.User = val
		case "password":
			cfg.Password = val
		case "database":
			cfg.Database = val
		case "query_timeout":
			ms, err := strconv.Atoi(val)
			if err != nil {
				return nil, errs.Wrap(errs.ProtocolViolation, "parse query_timeout", err)
			}
			cfg.QueryTimeout = time.Duration(ms) * time.Millisecond
		case "connect_timeout":
			ms, err := strconv.Atoi(val)
			if err != nil {
				return nil, errs.Wrap(errs.ProtocolViolation, "parse connect_timeout", err)
			}
			cfg.ConnectTimeout = time.Duration(ms) * time.Millisecond
		case "compress":
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, errs.Wrap(errs.ProtocolViolation, "parse compress", err)
			}
			cfg.Compress = b
		default:
			cfg.Settings[key] = val
		}
	}

	return cfg, nil
}
