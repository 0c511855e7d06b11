package ipc

import (
	"encoding/json"
	"fmt"
	"net"
	"time"
)

// Client sends one command per connection to the daemon socket.
type Client struct {
	SocketPath string
	Timeout    time.Duration
}

func NewClient(socketPath string) *Client {
	if socketPath == "" {
		socketPath = DefaultSocketPath
	}
	return &Client{SocketPath: socketPath, Timeout: 5 * time.Second}
}

// Send delivers cmd and decodes the reply. A reply with Success=false is
// not an error here; callers decide how to surface it.
func (c *Client) Send(cmd Command) (Response, error) {
	var resp Response
	conn, err := net.DialTimeout("unix", c.SocketPath, 2*time.Second)
	if err != nil {
		return resp, fmt.Errorf("connect to daemon socket %s: %w", c.SocketPath, err)
	}
	defer conn.Close()

	conn.SetDeadline(time.Now().Add(c.Timeout))

	if err := json.NewEncoder(conn).Encode(cmd); err != nil {
		return resp, fmt.Errorf("send command %s: %w", cmd.Name, err)
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return resp, fmt.Errorf("receive response to %s: %w", cmd.Name, err)
	}
	return resp, nil
}

// Status fetches and decodes the daemon's status payload.
func (c *Client) Status() (StatusData, error) {
	var data StatusData
	resp, err := c.Send(Command{Name: CmdStatus})
	if err != nil {
		return data, err
	}
	if !resp.Success {
		return data, fmt.Errorf("status: %s", resp.Message)
	}
	if err := DecodeData(resp.Data, &data); err != nil {
		return data, err
	}
	return data, nil
}

// DecodeData converts a generically decoded payload into a typed struct.
func DecodeData(input interface{}, output interface{}) error {
	if input == nil {
		return nil
	}
	jsonBytes, err := json.Marshal(input)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	if err := json.Unmarshal(jsonBytes, output); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	return nil
}
