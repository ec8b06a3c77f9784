// Command chxcli is a minimal example client, in the spirit of the
// library's own simplest-ingest example
// (_teachercopy/simple_example_test.go): open a connection, run one
// query, print the rows, close.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/chxdb/chxdb"
	"github.com/chxdb/chxdb/logx"
)

func main() {
	dsnFlag := flag.String("dsn", "jdbc:clickhouse://127.0.0.1:9000/default", "connection string")
	query := flag.String("query", "SELECT 1", "query to run")
	flag.Parse()

	log := logx.New(os.Stderr, logx.INFO)

	cfg, err := chxdb.ParseDSN(*dsnFlag)
	if err != nil {
		log.Errorf("parse dsn: %v", err)
		os.Exit(1)
	}
	cfg.Log = log

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := chxdb.Open(ctx, cfg)
	if err != nil {
		log.Errorf("open: %v", err)
		os.Exit(1)
	}
	defer client.Close()

	resp, err := client.SendQuery(ctx, *query)
	if err != nil {
		log.Errorf("query: %v", err)
		os.Exit(1)
	}

	for _, b := range resp.Blocks {
		for row := 0; row < b.NumRows(); row++ {
			for _, c := range b.Columns {
				fmt.Printf("%s=%v ", c.Name, c.Values[row])
			}
			fmt.Println()
		}
	}
}
