package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/blocto/solana-go-sdk/client"
	"github.com/zeromicro/go-zero/core/logx"

	"dex-cpi-indexer-sol/internal/logic/dispatcher"
	"dex-cpi-indexer-sol/internal/logic/eventparser"
	"dex-cpi-indexer-sol/internal/logic/txadapter"
	"dex-cpi-indexer-sol/internal/pkg/logger"
)

var (
	rpcEndpoint = flag.String("rpc", "https://api.mainnet-beta.solana.com", "JSON-RPC endpoint")
	signature   = flag.String("sig", "", "transaction signature (base58)")
	programs    = flag.String("programs", "", "comma separated decoder names, empty for all")
	filter      = flag.String("filter", strings.Join(eventparser.DefaultFilterAggregatorCPI, ","), "decoders filtered under aggregator CPI")
	verbose     = flag.Bool("v", false, "log every swap leg")
	timeout     = flag.Duration("timeout", 30*time.Second, "rpc timeout")
)

func splitNames(s string) []string {
	names := []string{}
	for _, n := range strings.Split(s, ",") {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, n)
		}
	}
	return names
}

func main() {
	flag.Parse()
	if *signature == "" {
		fmt.Fprintln(os.Stderr, "usage: replay -sig <signature> [-rpc url] [-programs a,b] [-v]")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "info"
	}
	logx.Must(logger.Init(logger.LogOption{Format: "console", Level: level}))
	defer logger.Sync()

	registry, err := eventparser.Default(eventparser.Options{
		Programs:            splitNames(*programs),
		FilterAggregatorCPI: splitNames(*filter),
	})
	logx.Must(err)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	tx, err := client.NewClient(*rpcEndpoint).GetTransaction(ctx, *signature)
	if err != nil {
		logx.Must(fmt.Errorf("getTransaction %s: %w", *signature, err))
	}
	if tx == nil {
		logx.Must(fmt.Errorf("transaction %s not found", *signature))
	}

	rec, err := txadapter.AdaptRPCTx(tx)
	logx.Must(err)

	var sinks []dispatcher.Sink
	if *verbose {
		sinks = append(sinks, dispatcher.LogSink{})
	}
	report := dispatcher.New(registry, sinks...).DispatchRecord(ctx, rec)

	out, err := report.YAML()
	logx.Must(err)
	_, _ = os.Stdout.Write(out)
}
