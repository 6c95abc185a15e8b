package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"poolcore/log"
	"poolcore/metrics"
	"poolcore/pgwire"
	"poolcore/transport"
)

// BuildParams supplies everything a single Build call needs: which node to
// connect to, how to reach it, who is authenticating, and whether the
// connect itself should retry.
type BuildParams struct {
	NodeID      int32
	Endpoint    transport.Endpoint
	Credentials Credentials
	Retry       bool
}

// Builder orchestrates session construction per the ordering in the
// package doc: transport open, TLS negotiation, startup transmission,
// authentication, slot assembly. Every exit path after a successful
// connect either commits the connection into the returned slot or closes
// it — there is no path that leaks an open descriptor.
type Builder struct {
	TLS         TLSNegotiator
	Auth        Authenticator
	ConnectOpts transport.Options
}

// NewBuilder constructs a Builder. A nil tlsNeg defaults to NoTLS{}; a nil
// auth defaults to DefaultAuthenticator{}.
func NewBuilder(tlsNeg TLSNegotiator, auth Authenticator, opts transport.Options) *Builder {
	if tlsNeg == nil {
		tlsNeg = NoTLS{}
	}
	if auth == nil {
		auth = DefaultAuthenticator{}
	}
	return &Builder{TLS: tlsNeg, Auth: auth, ConnectOpts: opts}
}

// Build establishes a fully-authenticated session, or fails with
// *SessionError having released every resource acquired along the way.
func (b *Builder) Build(ctx context.Context, params BuildParams) (*SessionSlot, error) {
	opts := b.ConnectOpts
	opts.Retry = params.Retry

	conn, err := transport.Connect(ctx, params.Endpoint, opts)
	if err != nil {
		metrics.SessionBuildsTotal.WithLabelValues(ErrConnect.String()).Inc()
		return nil, &SessionError{Kind: ErrConnect, Detail: err.Error(), Cause: err}
	}

	// From here on, any return must go through this guard: it closes conn
	// unless committed is set just before a successful return, enforcing
	// the all-or-nothing cleanup invariant across every failure path.
	committed := false
	defer func() {
		if !committed {
			conn.Close()
		}
	}()

	tlsConn, err := b.TLS.Negotiate(conn)
	if err != nil {
		metrics.SessionBuildsTotal.WithLabelValues(ErrTLSNegotiation.String()).Inc()
		return nil, &SessionError{Kind: ErrTLSNegotiation, Detail: err.Error(), Cause: err}
	}
	conn = tlsConn

	startup, err := pgwire.BuildStartup(params.Credentials.User, params.Credentials.Database, params.Credentials.ApplicationName)
	if err != nil {
		kind := overflowKind(err)
		metrics.SessionBuildsTotal.WithLabelValues(kind.String()).Inc()
		return nil, &SessionError{Kind: kind, Detail: err.Error(), Cause: err}
	}

	if _, err := conn.Write(startup.Raw); err != nil {
		metrics.SessionBuildsTotal.WithLabelValues(ErrConnect.String()).Inc()
		return nil, &SessionError{Kind: ErrConnect, Detail: "send startup packet", Cause: err}
	}

	reader := pgwire.NewReader(conn)
	writer := pgwire.NewWriter(conn)

	if err := b.Auth.Authenticate(reader, writer, params.Credentials); err != nil {
		metrics.SessionBuildsTotal.WithLabelValues(ErrAuthenticationRejected.String()).Inc()
		return nil, &SessionError{Kind: ErrAuthenticationRejected, Detail: err.Error(), Cause: err}
	}

	slot := &SessionSlot{
		Conn:    conn,
		Startup: startup,
		NodeID:  params.NodeID,
		SlotID:  uuid.New(),
		reader:  reader,
		writer:  writer,
	}
	committed = true
	metrics.SessionBuildsTotal.WithLabelValues("ok").Inc()
	log.WithComponent("session").Debug().Str("slot_id", slot.SlotID.String()).Int32("node_id", slot.NodeID).Msg("session built")
	return slot, nil
}

// BuildNoError is the opportunistic variant: it swallows the error,
// logging it, and returns nil instead. Build already guarantees every
// partially-acquired resource is released before returning, so there is
// nothing left for this variant to rewind.
func (b *Builder) BuildNoError(ctx context.Context, params BuildParams) *SessionSlot {
	slot, err := b.Build(ctx, params)
	if err != nil {
		log.WithComponent("session").Warn().Err(err).Int32("node_id", params.NodeID).Msg("opportunistic session build failed")
		return nil
	}
	return slot
}

func overflowKind(err error) ErrorKind {
	var fe *pgwire.FrameError
	if !errors.As(err, &fe) {
		return ErrUserTooLong
	}
	switch fe.Field {
	case pgwire.FieldUser:
		return ErrUserTooLong
	case pgwire.FieldDatabase:
		return ErrDatabaseTooLong
	default:
		return ErrApplicationNameTooLong
	}
}
