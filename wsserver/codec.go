package wsserver

import (
	"fmt"

	"github.com/ggoodman/katulong-mcp-host/internal/jsonrpc"
	"golang.org/x/net/websocket"
)

// frame is one inbound data frame together with its opcode.
type frame struct {
	kind byte
	data []byte
}

// frameCodec reads raw frames while remembering whether they were text or
// binary, and writes outbound messages as text frames. Ping, pong and close
// frames never reach it: the websocket package answers pings itself and
// reports a close frame as io.EOF.
var frameCodec = websocket.Codec{Marshal: marshalFrame, Unmarshal: unmarshalFrame}

func marshalFrame(v any) ([]byte, byte, error) {
	switch msg := v.(type) {
	case jsonrpc.Message:
		return msg, websocket.TextFrame, nil
	case []byte:
		return msg, websocket.TextFrame, nil
	case string:
		return []byte(msg), websocket.TextFrame, nil
	}
	return nil, 0, fmt.Errorf("wsserver: cannot send %T", v)
}

func unmarshalFrame(data []byte, payloadType byte, v any) error {
	f, ok := v.(*frame)
	if !ok {
		return fmt.Errorf("wsserver: cannot receive into %T", v)
	}
	f.kind = payloadType
	f.data = data
	return nil
}
