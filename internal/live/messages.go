package live

import "encoding/json"

// Frame is the discriminator view of every inbound push frame. Payload
// fields live at the top level next to "type", so handlers re-decode the
// raw bytes into their own request shape.
type Frame struct {
	Type  string `json:"type"`
	Error string `json:"error,omitempty"`
}

func decodeFrame(data []byte) (Frame, json.RawMessage, error) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		return Frame{}, nil, err
	}
	return f, json.RawMessage(data), nil
}
