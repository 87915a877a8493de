package listeners

// BatchConsumer starts and runs a record source for a fds.Decoder-backed
// driver. Init provisions the underlying transport; Consume starts
// consumption, which may run asynchronously and keep going after Consume
// returns.
type BatchConsumer interface {
	Init()
	Consume()
}
