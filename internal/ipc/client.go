package ipc

import (
	"net"
	"net/rpc"
	"net/rpc/jsonrpc"
	"time"
)

// Client provides RPC access to the daemon.
type Client struct {
	conn   net.Conn
	client *rpc.Client
}

// Dial connects to the IPC server at the given socket path.
func Dial(path string) (*Client, error) {
	conn, err := net.DialTimeout("unix", path, 2*time.Second)
	if err != nil {
		return nil, err
	}
	rpcClient := rpc.NewClientWithCodec(jsonrpc.NewClientCodec(conn))
	return &Client{conn: conn, client: rpcClient}, nil
}

// Close closes the underlying connection.
func (c *Client) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	if c.conn != nil {
		return c.conn.Close()
	}
	return nil
}

// GeneratePDFReport renders a report on the daemon host.
func (c *Client) GeneratePDFReport(req ReportRequest) (*ReportResponse, error) {
	var resp ReportResponse
	if err := c.call("GeneratePDFReport", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ReadTailChunk reads the bytes appended after req.Offset.
func (c *Client) ReadTailChunk(req TailRequest) (*TailResponse, error) {
	var resp TailResponse
	if err := c.call("ReadTailChunk", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// TailLines returns the last lines of a file and the resume offset.
func (c *Client) TailLines(req TailLinesRequest) (*TailLinesResponse, error) {
	var resp TailLinesResponse
	if err := c.call("TailLines", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Status retrieves the daemon status.
func (c *Client) Status() (*StatusResponse, error) {
	var resp StatusResponse
	if err := c.call("Status", StatusRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stop asks the daemon process to shut down.
func (c *Client) Stop() (*StopResponse, error) {
	var resp StopResponse
	if err := c.call("Stop", StopRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) call(method string, req, resp any) error {
	return decodeError(c.client.Call(ServiceName+"."+method, req, resp))
}
