package binance

import (
	"log"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

var logger = log.New(os.Stdout, "[binance] ", log.LstdFlags)

const handshakeTimeout = 5 * time.Second

// Stream is one inbound frame channel. The production implementation is
// StreamConn; tests substitute in-memory fakes through ConnManager.dial.
type Stream interface {
	URL() string
	ReadLoop(onFrame func([]byte), onError func(error), onClose func())
	Close()
}

// StreamConn is a websocket connection to a single raw stream endpoint
// (one per (pair, stream-type)).
type StreamConn struct {
	url    string
	conn   *websocket.Conn
	closed atomic.Bool
	once   sync.Once
}

func DialStream(url string) (*StreamConn, error) {
	dialer := websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: handshakeTimeout,
	}

	conn, _, err := dialer.Dial(url, nil)
	if err != nil {
		return nil, err
	}

	return &StreamConn{url: url, conn: conn}, nil
}

func (s *StreamConn) URL() string {
	return s.url
}

// ReadLoop delivers inbound frames until the connection drops. onError
// fires only for unexpected transport failures, onClose fires exactly
// once in every case.
func (s *StreamConn) ReadLoop(onFrame func([]byte), onError func(error), onClose func()) {
	defer onClose()

	for {
		_, msg, err := s.conn.ReadMessage()
		if err != nil {
			if !s.closed.Load() {
				onError(err)
			}
			return
		}
		onFrame(msg)
	}
}

// Close marks the teardown as intentional and closes the socket.
func (s *StreamConn) Close() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.conn.Close()
	})
}
