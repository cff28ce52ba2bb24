package events

import "encoding/json"

// Frame is the envelope written to and read from a socket.
type Frame struct {
	Event Kind            `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Encode wraps ev in a Frame and marshals it.
func Encode(ev Event) ([]byte, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Frame{Event: ev.Kind(), Data: data})
}

// Decode parses an inbound frame.
func Decode(raw []byte) (Frame, error) {
	var f Frame
	err := json.Unmarshal(raw, &f)
	return f, err
}
