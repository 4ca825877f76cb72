package stompws

import (
	"bytes"
	"io"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"
)

// messageReader presents consecutive websocket messages as one byte stream.
// STOMP frames may be split across messages or share one, so the frame
// reader must not assume message boundaries.
type messageReader struct {
	ws  *websocket.Conn
	cur io.Reader
}

func (r *messageReader) Read(p []byte) (int, error) {
	for {
		if r.cur == nil {
			_, next, err := r.ws.NextReader()
			if err != nil {
				return 0, err
			}
			r.cur = next
		}
		n, err := r.cur.Read(p)
		if err == io.EOF {
			r.cur = nil
			if n > 0 {
				return n, nil
			}
			continue
		}
		return n, err
	}
}

// encodeFrame renders f so it can be written as a single websocket message.
func encodeFrame(f *frame.Frame) ([]byte, error) {
	var buf bytes.Buffer
	if err := frame.NewWriter(&buf).Write(f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
