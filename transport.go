package antconsensus

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/net/ipv4"
)

// InboundBufferSize is the size of the buffer used to receive a single UDP
// datagram (one maximum-size datagram, per spec.md §5).
const InboundBufferSize = 65507

// OutboundQueueCapacity bounds the outbound send queue. Broadcast blocks
// once it is full, providing backpressure rather than unbounded growth.
const OutboundQueueCapacity = 1000

// receiveBackoff is how long the receive loop pauses after a transient
// socket error before retrying, per spec.md §7's propagation policy.
const receiveBackoff = 100 * time.Millisecond

// Transport is the contract the core consumes: best-effort, lossy,
// unordered, possibly-duplicating datagram multicast. No ACKs, retries, or
// sequence numbers — the algorithm's convergence depends on periodic
// re-emission and trail reinforcement, not transport reliability.
type Transport interface {
	// Broadcast enqueues message for delivery to all reachable peers. It
	// blocks if the outbound queue is full, and returns ctx.Err() if ctx is
	// cancelled first.
	Broadcast(ctx context.Context, m Message) error
	// OnMessage registers the handler invoked for every successfully
	// decoded inbound message. Must be called before Run.
	OnMessage(handler func(Message))
	// Run starts the send and receive loops and blocks until ctx is
	// cancelled, then releases the underlying socket.
	Run(ctx context.Context) error
}

// UDPMulticastTransport implements Transport over a joined IPv4 multicast
// group. golang.org/x/net/ipv4 supplies multicast group membership that
// the net package alone does not expose conveniently.
type UDPMulticastTransport struct {
	multicastAddr *net.UDPAddr
	localPort     uint16
	logger        zerolog.Logger

	outbound chan Message
	handler  func(Message)
}

// NewUDPMulticastTransport prepares (but does not yet bind) a transport
// for the given multicast group address and local receive port.
func NewUDPMulticastTransport(multicastAddr string, localPort uint16, logger zerolog.Logger) (*UDPMulticastTransport, error) {
	addr, err := net.ResolveUDPAddr("udp4", multicastAddr)
	if err != nil {
		return nil, newErr(KindNetwork, "resolve multicast address", err)
	}
	return &UDPMulticastTransport{
		multicastAddr: addr,
		localPort:     localPort,
		logger:        logger,
		outbound:      make(chan Message, OutboundQueueCapacity),
	}, nil
}

// OnMessage registers the inbound message handler.
func (t *UDPMulticastTransport) OnMessage(handler func(Message)) {
	t.handler = handler
}

// Broadcast enqueues m for the send loop. It blocks while the outbound
// queue is full.
func (t *UDPMulticastTransport) Broadcast(ctx context.Context, m Message) error {
	select {
	case t.outbound <- m:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Run binds the local port, joins the multicast group, and runs the send
// and receive loops until ctx is cancelled.
func (t *UDPMulticastTransport) Run(ctx context.Context) error {
	conn, err := net.ListenPacket("udp4", fmt.Sprintf(":%d", t.localPort))
	if err != nil {
		return newErr(KindNetwork, "bind local port", err)
	}
	defer conn.Close()

	pconn := ipv4.NewPacketConn(conn)
	if err := pconn.JoinGroup(nil, &net.UDPAddr{IP: t.multicastAddr.IP}); err != nil {
		return newErr(KindNetwork, "join multicast group", err)
	}
	defer pconn.LeaveGroup(nil, &net.UDPAddr{IP: t.multicastAddr.IP})

	// Closing the socket on cancellation unblocks a pending ReadFrom.
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	done := make(chan struct{})
	go func() {
		defer close(done)
		t.receiveLoop(ctx, pconn)
	}()

	t.sendLoop(ctx, pconn)
	<-done
	return nil
}

func (t *UDPMulticastTransport) receiveLoop(ctx context.Context, pconn *ipv4.PacketConn) {
	buf := make([]byte, InboundBufferSize)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, _, _, err := pconn.ReadFrom(buf)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			t.logger.Error().Err(err).Msg("transport receive error")
			time.Sleep(receiveBackoff)
			continue
		}

		msg, err := MessageFromBytes(buf[:n])
		if err != nil {
			t.logger.Debug().Err(err).Msg("dropping malformed datagram")
			continue
		}
		if t.handler != nil {
			t.handler(msg)
		}
	}
}

func (t *UDPMulticastTransport) sendLoop(ctx context.Context, pconn *ipv4.PacketConn) {
	for {
		select {
		case <-ctx.Done():
			return
		case m := <-t.outbound:
			b, err := m.ToBytes()
			if err != nil {
				t.logger.Error().Err(err).Msg("failed to serialize outbound message")
				continue
			}
			if _, err := pconn.WriteTo(b, nil, t.multicastAddr); err != nil {
				t.logger.Error().Err(err).Msg("failed to send datagram")
			}
		}
	}
}
