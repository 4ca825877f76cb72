package stompws

// Message is a MESSAGE frame delivered to a subscription handler. The body
// is passed through untouched.
type Message struct {
	Destination string
	ContentType string
	MessageID   string
	Body        []byte
	Header      map[string]string
}

type Handler func(Message)

type subscription struct {
	id          string
	destination string
	handler     Handler
}
