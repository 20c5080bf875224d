package hypr

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
)

// workspacesRequest is the literal command-socket request for the full
// workspace list; the response is a JSON array of workspace descriptors.
const workspacesRequest = "j/workspaces"

// workspaceDescriptor is one element of the j/workspaces response. Hyprland
// sends more fields; only identity and display name are kept.
type workspaceDescriptor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// queryWorkspaces dials the command socket, writes the literal request, and
// reads the JSON response to EOF. The socket is opened per query.
func (d *Driver) queryWorkspaces() (map[int64]string, error) {
	conn, err := net.Dial("unix", d.commandPath)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to command socket %s: %w", d.commandPath, err)
	}
	defer conn.Close()

	if _, err := conn.Write([]byte(workspacesRequest)); err != nil {
		return nil, fmt.Errorf("failed to write command: %w", err)
	}
	if uc, ok := conn.(*net.UnixConn); ok {
		if err := uc.CloseWrite(); err != nil {
			d.logger.Debug("failed to half-close command socket", "error", err)
		}
	}

	data, err := io.ReadAll(conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read command response: %w", err)
	}

	var descriptors []workspaceDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("failed to decode workspace list: %w", err)
	}

	workspaces := make(map[int64]string, len(descriptors))
	for _, ws := range descriptors {
		workspaces[ws.ID] = ws.Name
	}
	return workspaces, nil
}
