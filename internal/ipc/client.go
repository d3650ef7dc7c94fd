package ipc

import (
	"encoding/json"
	"fmt"
	"net"
)

// Client drives the control plane from the host process.
type Client struct {
	conn net.Conn
	enc  *json.Encoder
	dec  *json.Decoder
}

// NewClient wraps an established control-plane connection.
func NewClient(conn net.Conn) *Client {
	return &Client{
		conn: conn,
		enc:  json.NewEncoder(conn),
		dec:  json.NewDecoder(conn),
	}
}

// Close drops the connection.
func (c *Client) Close() error {
	return c.conn.Close()
}

func (c *Client) call(req Request) (Response, error) {
	if err := c.enc.Encode(req); err != nil {
		return Response{}, fmt.Errorf("ipc: write request: %w", err)
	}
	var resp Response
	if err := c.dec.Decode(&resp); err != nil {
		return Response{}, fmt.Errorf("ipc: read response: %w", err)
	}
	return resp, nil
}

// StartTtlInjector asks the engine to start for the given endpoint.
func (c *Client) StartTtlInjector(serverIP string, serverPort uint16) (bool, error) {
	args, err := json.Marshal(StartArgs{ServerIP: serverIP, ServerPort: float64(serverPort)})
	if err != nil {
		return false, err
	}
	resp, err := c.call(Request{Method: "startTtlInjector", Args: args})
	if err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, fmt.Errorf("ipc: %s: %s", resp.Error, resp.Message)
	}
	return resp.OK != nil && *resp.OK, nil
}

// StopTtlInjector asks the engine to stop. Always succeeds server-side.
func (c *Client) StopTtlInjector() error {
	resp, err := c.call(Request{Method: "stopTtlInjector"})
	if err != nil {
		return err
	}
	if resp.Error != "" {
		return fmt.Errorf("ipc: %s: %s", resp.Error, resp.Message)
	}
	return nil
}
