// Package chxdb is a native-protocol client library for a columnar
// analytic database: it speaks the server's binary TCP protocol
// directly (handshake, query, insert) instead of going over HTTP,
// trading the caller-facing statement/result-set API for direct control
// over columnar block transfer. See conn, block, types, proto, and wire
// for the layered implementation; this top-level package is the public
// facade tying them together (§1, §6).
package chxdb

import (
	"time"

	"github.com/chxdb/chxdb/conn"
	"github.com/chxdb/chxdb/dsn"
	"github.com/chxdb/chxdb/logx"
)

// Config is the immutable configuration a Client is opened with (§2's
// "Config surface", §6). Build one directly or via ParseDSN.
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

	ClientName     string
	VersionMajor   uint64
	VersionMinor   uint64
	ClientRevision uint64

	Log *logx.Logger
}

const (
	// DefaultClientName identifies this library to the server during
	// the Hello handshake.
	DefaultClientName = "chxdb"

	defaultVersionMajor   = 1
	defaultVersionMinor   = 0
	defaultClientRevision = 54452
)

// ParseDSN parses a "jdbc:clickhouse://..." connection string (§6) into
// a Config with this library's defaults filled in.
func ParseDSN(dsnStr string) (Config, error) {
	pc, err := dsn.Parse(dsnStr)
	if err != nil {
		return Config{}, err
	}
	return Config{
		Host:           pc.Host,
		Port:           pc.Port,
		Database:       pc.Database,
		User:           pc.User,
		Password:       pc.Password,
		ConnectTimeout: pc.ConnectTimeout,
		QueryTimeout:   pc.QueryTimeout,
		Compress:       pc.Compress,
		Settings:       pc.Settings,
		ClientName:     DefaultClientName,
		VersionMajor:   defaultVersionMajor,
		VersionMinor:   defaultVersionMinor,
		ClientRevision: defaultClientRevision,
	}, nil
}

func (c Config) toConnConfig() conn.Config {
	name := c.ClientName
	if name == "" {
		name = DefaultClientName
	}
	major, minor, rev := c.VersionMajor, c.VersionMinor, c.ClientRevision
	if rev == 0 {
		major, minor, rev = defaultVersionMajor, defaultVersionMinor, defaultClientRevision
	}
	return conn.Config{
		Host:           c.Host,
		Port:           c.Port,
		Database:       c.Database,
		User:           c.User,
		Password:       c.Password,
		ConnectTimeout: c.ConnectTimeout,
		QueryTimeout:   c.QueryTimeout,
		Compress:       c.Compress,
		Settings:       c.Settings,
		ClientName:     name,
		VersionMajor:   major,
		VersionMinor:   minor,
		ClientRevision: rev,
		Log:            c.Log,
	}
}
