package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"time"

	"xdao.co/rdfc/service"
)

func cmdRemote(args []string, out io.Writer, errOut io.Writer) int {
	if len(args) == 0 || (args[0] != "canonize" && args[0] != "digest") {
		fmt.Fprintln(errOut, "usage: rdfc remote canonize|digest --target <host:port> <file|->")
		return 2
	}
	method := args[0]

	fs := flag.NewFlagSet("remote "+method, flag.ContinueOnError)
	fs.SetOutput(errOut)
	var target string
	var timeout time.Duration
	var maxMsgBytes int
	var verbose bool
	fs.StringVar(&target, "target", "127.0.0.1:7777", "Canonicalizer service host:port")
	fs.DurationVar(&timeout, "timeout", 30*time.Second, "Per-RPC timeout")
	fs.IntVar(&maxMsgBytes, "max-msg-bytes", 0, "Max gRPC message size in bytes (send+recv); 0 uses grpc defaults")
	fs.BoolVar(&verbose, "v", false, "Verbose (debug) logging")
	if err := fs.Parse(args[1:]); err != nil {
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(errOut, "usage: rdfc remote %s --target <host:port> <file|->\n", method)
		return 2
	}
	doc, err := readInput(fs.Arg(0))
	if err != nil {
		fmt.Fprintf(errOut, "read %s: %v\n", displayName(fs.Arg(0)), err)
		return 1
	}

	client, err := service.Dial(target, service.DialOptions{MaxMsgBytes: maxMsgBytes})
	if err != nil {
		fmt.Fprintln(errOut, err)
		return 1
	}
	defer client.Close()
	client.Timeout = timeout

	log := newLogger(errOut, verbose)
	log.Debug("calling service", "target", target, "method", method, "bytes", len(doc))

	ctx := context.Background()
	switch method {
	case "canonize":
		canonical, err := client.Canonize(ctx, doc)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		_, _ = out.Write(canonical)
	default:
		id, err := client.Digest(ctx, doc)
		if err != nil {
			fmt.Fprintln(errOut, err)
			return 1
		}
		_, _ = fmt.Fprintln(out, id.String())
	}
	return 0
}
