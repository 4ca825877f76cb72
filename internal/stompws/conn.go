package stompws

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-stomp/stomp/v3/frame"
	"github.com/gorilla/websocket"

	"chatwire/internal/logging"
)

const writeTimeout = 10 * time.Second

// Conn is one authenticated STOMP session. Handlers run on the read
// goroutine in the order frames arrive.
type Conn struct {
	id      string
	version string
	server  string

	ws     *websocket.Conn
	reader *frame.Reader
	logger *logging.Logger

	readTimeout time.Duration
	sendEvery   time.Duration

	writeMu sync.Mutex

	mu       sync.Mutex
	subs     map[string]*subscription
	nextSub  int
	closing  bool
	receipts map[string]chan struct{}
	err      error

	done           chan struct{}
	closeOnce      sync.Once
	deactivateOnce sync.Once
	deactivateErr  error
}

func (c *Conn) ID() string      { return c.id }
func (c *Conn) Version() string { return c.version }
func (c *Conn) Server() string  { return c.server }

// Done is closed once the connection is no longer usable.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err reports why the connection ended. It is nil while the connection is
// open and after a deliberate Deactivate.
func (c *Conn) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

func (c *Conn) start() {
	go c.readLoop()
	if c.sendEvery > 0 {
		go c.heartbeatLoop()
	}
}

// Subscribe registers handler for MESSAGE frames on destination. The returned
// cancel func is idempotent and safe to call after the connection closed.
func (c *Conn) Subscribe(destination string, handler Handler) (func(), error) {
	if strings.TrimSpace(destination) == "" {
		return nil, errors.New("stomp subscribe: destination is required")
	}
	if handler == nil {
		return nil, errors.New("stomp subscribe: handler is required")
	}

	c.mu.Lock()
	if c.closing || c.isDone() {
		c.mu.Unlock()
		return nil, ErrConnectionClosed
	}
	c.nextSub++
	sub := &subscription{
		id:          "sub-" + strconv.Itoa(c.nextSub),
		destination: destination,
		handler:     handler,
	}
	c.subs[sub.id] = sub
	c.mu.Unlock()

	err := c.writeFrame(frame.New(frame.SUBSCRIBE,
		frame.Id, sub.id,
		frame.Destination, destination,
		frame.Ack, "auto",
	))
	if err != nil {
		c.mu.Lock()
		delete(c.subs, sub.id)
		c.mu.Unlock()
		return nil, fmt.Errorf("stomp subscribe %s: %w", destination, err)
	}
	c.logger.Debug("stomp subscribed", logging.Field("destination", destination), logging.Field("subscription", sub.id))

	var once sync.Once
	cancel := func() {
		once.Do(func() { c.unsubscribe(sub) })
	}
	return cancel, nil
}

func (c *Conn) unsubscribe(sub *subscription) {
	c.mu.Lock()
	_, active := c.subs[sub.id]
	delete(c.subs, sub.id)
	skip := !active || c.closing || c.isDone()
	c.mu.Unlock()
	if skip {
		return
	}
	// Fire and forget: the local handler is already detached.
	if err := c.writeFrame(frame.New(frame.UNSUBSCRIBE, frame.Id, sub.id)); err != nil {
		c.logger.Debug("stomp unsubscribe not sent", logging.Field("subscription", sub.id), logging.Field("error", err))
		return
	}
	c.logger.Debug("stomp unsubscribed", logging.Field("destination", sub.destination), logging.Field("subscription", sub.id))
}

// Send publishes body to destination.
func (c *Conn) Send(destination, contentType string, body []byte) error {
	if strings.TrimSpace(destination) == "" {
		return errors.New("stomp send: destination is required")
	}
	c.mu.Lock()
	closing := c.closing
	c.mu.Unlock()
	if closing {
		return ErrConnectionClosed
	}
	f := frame.New(frame.SEND, frame.Destination, destination)
	if contentType != "" {
		f.Header.Add(frame.ContentType, contentType)
	}
	f.Header.Add(frame.ContentLength, strconv.Itoa(len(body)))
	f.Body = body
	if err := c.writeFrame(f); err != nil {
		return fmt.Errorf("stomp send %s: %w", destination, err)
	}
	return nil
}

// Deactivate sends DISCONNECT and waits up to timeout for the broker's
// receipt before closing the socket. Later calls return the first result.
func (c *Conn) Deactivate(timeout time.Duration) error {
	c.deactivateOnce.Do(func() {
		c.deactivateErr = c.deactivate(timeout)
	})
	return c.deactivateErr
}

func (c *Conn) deactivate(timeout time.Duration) error {
	receiptID := "disconnect-" + c.id
	waiter := make(chan struct{})

	c.mu.Lock()
	c.closing = true
	clear(c.subs)
	c.receipts[receiptID] = waiter
	c.mu.Unlock()

	if c.isDone() {
		return nil
	}

	var sendErr error
	if err := c.writeFrame(frame.New(frame.DISCONNECT, frame.Receipt, receiptID)); err != nil {
		sendErr = fmt.Errorf("stomp disconnect: %w", err)
	} else {
		timer := time.NewTimer(timeout)
		select {
		case <-waiter:
		case <-c.done:
		case <-timer.C:
			c.logger.Debug("stomp disconnect receipt timed out", logging.Field("timeout", timeout.String()))
		}
		timer.Stop()
	}

	c.terminate(nil)
	c.logger.Debug("stomp connection deactivated")
	return sendErr
}

func (c *Conn) readLoop() {
	for {
		if c.readTimeout > 0 {
			_ = c.ws.SetReadDeadline(time.Now().Add(c.readTimeout))
		}
		f, err := c.reader.Read()
		if err != nil {
			c.terminate(fmt.Errorf("stomp read: %w", err))
			return
		}
		if f == nil {
			continue
		}
		switch f.Command {
		case frame.MESSAGE:
			if c.logger.DebugEnabled() {
				c.logger.Debug("stomp message",
					logging.Field("destination", f.Header.Get(frame.Destination)),
					logging.Field("body", logging.FormatPayload(f.Body)),
				)
			}
			c.dispatch(f)
		case frame.RECEIPT:
			c.resolveReceipt(f.Header.Get(frame.ReceiptId))
		case frame.ERROR:
			brokerErr := &BrokerError{
				Message: f.Header.Get(frame.Message),
				Body:    strings.TrimSpace(string(f.Body)),
			}
			c.logger.Warn("stomp broker error",
				logging.Field("message", brokerErr.Message),
				logging.Field("body", logging.FormatPayload(f.Body)),
			)
			c.terminate(brokerErr)
			return
		default:
			c.logger.Debug("ignoring stomp frame", logging.Field("command", f.Command))
		}
	}
}

func (c *Conn) dispatch(f *frame.Frame) {
	subID := f.Header.Get(frame.Subscription)
	c.mu.Lock()
	sub := c.subs[subID]
	c.mu.Unlock()
	if sub == nil {
		c.logger.Debug("dropping message for unknown subscription",
			logging.Field("subscription", subID),
			logging.Field("destination", f.Header.Get(frame.Destination)),
		)
		return
	}

	header := make(map[string]string, f.Header.Len())
	for i := range f.Header.Len() {
		key, value := f.Header.GetAt(i)
		if _, seen := header[key]; !seen {
			header[key] = value
		}
	}
	destination := f.Header.Get(frame.Destination)
	if destination == "" {
		destination = sub.destination
	}
	sub.handler(Message{
		Destination: destination,
		ContentType: f.Header.Get(frame.ContentType),
		MessageID:   f.Header.Get(frame.MessageId),
		Body:        f.Body,
		Header:      header,
	})
}

func (c *Conn) resolveReceipt(id string) {
	c.mu.Lock()
	waiter, ok := c.receipts[id]
	delete(c.receipts, id)
	c.mu.Unlock()
	if ok {
		close(waiter)
	}
}

func (c *Conn) heartbeatLoop() {
	ticker := time.NewTicker(c.sendEvery)
	defer ticker.Stop()
	for {
		select {
		case <-c.done:
			return
		case <-ticker.C:
			if err := c.writeRaw([]byte("\n")); err != nil {
				c.logger.Debug("stomp heartbeat failed", logging.Field("error", err))
				return
			}
		}
	}
}

// terminate closes the socket and marks the connection done. cause is kept
// only for failures that were not requested through Deactivate.
func (c *Conn) terminate(cause error) {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		if cause != nil && !c.closing {
			c.err = cause
		}
		c.closing = true
		clear(c.subs)
		c.mu.Unlock()

		c.writeMu.Lock()
		_ = c.ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		c.writeMu.Unlock()
		_ = c.ws.Close()
		close(c.done)
	})
}

func (c *Conn) isDone() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

func (c *Conn) writeFrame(f *frame.Frame) error {
	data, err := encodeFrame(f)
	if err != nil {
		return err
	}
	return c.writeRaw(data)
}

func (c *Conn) writeRaw(data []byte) error {
	if c.isDone() {
		return ErrConnectionClosed
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := c.ws.WriteMessage(websocket.TextMessage, data); err != nil {
		return err
	}
	return nil
}
