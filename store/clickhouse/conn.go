// Package clickhouse is an example downstream store: it implements
// pipeline.Publisher by batching positions into ClickHouse, mirroring the
// shape of the out-of-scope persistence consumer described for the core.
package clickhouse

import (
	"context"
	"net"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
)

//go:generate mockgen -source=$GOFILE -destination=../../mocks/mock_clickhouse/conn.go -package=mock_clickhouse
type Conn interface {
	GetConn() driver.Conn
	Close() error
}

var _ Conn = &Store{}

// Store owns the ClickHouse connection; Sink batches positions through it.
type Store struct {
	conn driver.Conn
}

func (s *Store) GetConn() driver.Conn { return s.conn }

func (s *Store) Close() error { return s.conn.Close() }

// Connect opens and pings a ClickHouse connection at databaseURL, tuned the
// same way as every other long-lived batch writer in this service: bounded
// pool, LZ4 compression, ordered dial.
func Connect(databaseURL string) (*Store, error) {
	opts, err := clickhouse.ParseDSN(databaseURL)
	if err != nil {
		return nil, err
	}
	opts.DialContext = func(ctx context.Context, addr string) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}
	opts.Compression = &clickhouse.Compression{Method: clickhouse.CompressionLZ4}
	opts.DialTimeout = 30 * time.Second
	opts.MaxOpenConns = 5
	opts.MaxIdleConns = 5
	opts.ConnMaxLifetime = 10 * time.Minute
	opts.ConnOpenStrategy = clickhouse.ConnOpenInOrder

	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(context.Background()); err != nil {
		return nil, err
	}
	return &Store{conn: conn}, nil
}
