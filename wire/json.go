package wire

import (
	"encoding/base64"
	"encoding/json"
)

// MarshalJSON renders a decoded value for diagnostics. Raw bytes are emitted
// as standard base64 so the output stays valid JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindUint:
		return json.Marshal(v.Uint)
	case KindFloat:
		return json.Marshal(v.Float)
	case KindText:
		return json.Marshal(v.Text)
	case KindMessage:
		return json.Marshal(v.Msg)
	case KindRaw:
		return json.Marshal(base64.StdEncoding.EncodeToString(v.Raw))
	default:
		return json.Marshal(v.List)
	}
}

// String renders the message as compact JSON for logging.
func (m Message) String() string {
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
