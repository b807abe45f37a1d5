// Package wsock implements a link driver carrying frames over a WebSocket
// connection, for bridging the stack to a browser or other WebSocket-speaking
// peer across a single point-to-point link.
package wsock

import (
	"fmt"
	"net"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/websocket"

	"github.com/dogukanarat/danp/defn"
	"github.com/dogukanarat/danp/log"
	"github.com/dogukanarat/danp/wire"
)

// Receiver is the ingress entry point a Link feeds.
type Receiver interface {
	Receive(rxIface *defn.Interface, data []byte)
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  defn.MTU + defn.HeaderSize,
	WriteBufferSize: defn.MTU + defn.HeaderSize,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// Link wraps one established WebSocket connection as a registerable
// defn.Interface; each accepted connection gets its own Link.
type Link struct {
	Iface *defn.Interface

	conn    *websocket.Conn
	running atomic.Bool
}

// Accept upgrades an incoming HTTP request to a WebSocket connection and
// returns a Link delivering frames into rx. The caller registers
// l.Iface with package route once Accept returns.
func Accept(w http.ResponseWriter, r *http.Request, name string, address uint16, rx Receiver) (*Link, error) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, err
	}
	return newLink(name, address, conn, rx), nil
}

// Dial opens a WebSocket connection to url and returns a Link delivering
// frames into rx.
func Dial(url, name string, address uint16, rx Receiver) (*Link, error) {
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		return nil, fmt.Errorf("danp: websocket dial %s: %w", url, err)
	}
	return newLink(name, address, conn, rx), nil
}

func newLink(name string, address uint16, conn *websocket.Conn, rx Receiver) *Link {
	l := &Link{conn: conn}
	l.running.Store(true)
	l.Iface = &defn.Interface{
		Name:    name,
		Address: address,
		MTU:     defn.MTU + defn.HeaderSize,
		Transmit: func(_ *defn.Interface, pkt *defn.Packet) error {
			return l.sendFrame(pkt)
		},
	}
	go l.runReceive(rx)
	return l
}

func (l *Link) sendFrame(pkt *defn.Packet) error {
	if !l.running.Load() {
		return net.ErrClosed
	}
	frame := make([]byte, defn.HeaderSize+pkt.Length)
	enc := wire.Encode(pkt.HeaderRaw)
	copy(frame, enc[:])
	copy(frame[defn.HeaderSize:], pkt.Bytes())
	if err := l.conn.WriteMessage(websocket.BinaryMessage, frame); err != nil {
		log.Warn("websocket write failed, closing link", "iface", l.Iface.Name, "err", err)
		l.Close()
		return err
	}
	return nil
}

func (l *Link) runReceive(rx Receiver) {
	defer l.Close()
	for {
		mt, data, err := l.conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Warn("websocket read failed", "iface", l.Iface.Name, "err", err)
			}
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}
		rx.Receive(l.Iface, data)
	}
}

// Close shuts down the connection. Safe to call more than once.
func (l *Link) Close() {
	if l.running.Swap(false) {
		l.conn.Close()
	}
}
