package service

import (
	"context"
	"time"

	"github.com/ipfs/go-cid"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"xdao.co/rdfc/internal/rpcutil"
)

// Client calls a remote Canonicalizer service.
type Client struct {
	cc     *grpc.ClientConn
	client CanonicalizerClient

	// Timeout applies per RPC when non-zero.
	Timeout time.Duration
}

type DialOptions = rpcutil.DialOptions

func Dial(target string, opts DialOptions) (*Client, error) {
	cc, err := rpcutil.NewClient(target, opts)
	if err != nil {
		return nil, err
	}
	return &Client{cc: cc, client: NewCanonicalizerClient(cc)}, nil
}

func (c *Client) Close() error {
	if c == nil || c.cc == nil {
		return nil
	}
	return c.cc.Close()
}

// Canonize returns the canonical N-Quads document for doc.
func (c *Client) Canonize(ctx context.Context, doc []byte) ([]byte, error) {
	ctx, cancel := c.rpcContext(ctx)
	defer cancel()

	reply, err := c.client.Canonize(ctx, wrapperspb.Bytes(doc))
	if err != nil {
		return nil, mapRPC(err)
	}
	return reply.GetValue(), nil
}

// Digest returns the CID of the canonical form of doc.
func (c *Client) Digest(ctx context.Context, doc []byte) (cid.Cid, error) {
	ctx, cancel := c.rpcContext(ctx)
	defer cancel()

	reply, err := c.client.Digest(ctx, wrapperspb.Bytes(doc))
	if err != nil {
		return cid.Undef, mapRPC(err)
	}
	return cid.Decode(reply.GetValue())
}

func (c *Client) rpcContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.Timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, c.Timeout)
}
