package cctp

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zendoolabs/zend/common"
)

// cctpObject is the shared byte-buffer base of every wrapper around the
// proving-system backend: field elements, proofs and verification keys.
// The buffer holds the serialized form; an empty buffer is the null
// sentinel used to signal absence or invalidity.
type cctpObject struct {
	byteVector []byte
}

func (o *cctpObject) SetNull() { o.byteVector = nil }

func (o *cctpObject) IsNull() bool { return len(o.byteVector) == 0 }

// Serialize returns a defensive copy of the serialized bytes, nil for the
// null sentinel.
func (o *cctpObject) Serialize() []byte {
	if o.IsNull() {
		return nil
	}
	out := make([]byte, len(o.byteVector))
	copy(out, o.byteVector)
	return out
}

func (o *cctpObject) DataSize() int { return len(o.byteVector) }

func (o *cctpObject) GetHexRepr() string {
	return hex.EncodeToString(o.byteVector)
}

func (o *cctpObject) marshalHex() ([]byte, error) {
	return json.Marshal(common.Bytes2Hex(o.byteVector))
}

func unmarshalHex(data []byte) ([]byte, error) {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return nil, err
	}
	if hexStr == "" || hexStr == "0x" {
		return nil, nil
	}
	return common.FromHex(hexStr), nil
}
