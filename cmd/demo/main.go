// Command demo exercises the full connection-and-load-balancing core
// end-to-end against a pair of in-process fake backend listeners standing
// in for a two-node streaming-replication cluster: it selects a node,
// builds an authenticated session to it, probes its version, and tears
// the session back down. It is not a proxy — the query router, the
// pooled-connection reuse cache, and the CLI surface are all out of this
// core's scope.
package main

import (
	"context"
	"encoding/binary"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"poolcore/balancer"
	"poolcore/config"
	"poolcore/log"
	"poolcore/pgversion"
	"poolcore/session"
	"poolcore/transport"
	"poolcore/version"
)

func main() {
	cfg := config.Parse()
	log.Init(log.Config{Level: log.Level(cfg.LogLevel), JSONOutput: cfg.JSONLogs})
	fmt.Println(version.String())

	if cfg.MetricsBindAddr != "" {
		go serveMetrics(cfg.MetricsBindAddr)
	}

	primary := startFakeNode("PostgreSQL 16.2 on x86_64-pc-linux-gnu")
	standby := startFakeNode("PostgreSQL 16.2 on x86_64-pc-linux-gnu")
	defer primary.listener.Close()
	defer standby.listener.Close()

	cluster := &balancer.ClusterView{
		Nodes: []balancer.BackendNodeView{
			{Endpoint: primary.endpoint, Weight: 1.0, ValidRaw: true, Valid: true},
			{Endpoint: standby.endpoint, Weight: 3.0, ValidRaw: true, Valid: true},
		},
		PrimaryNodeID:            0,
		MasterNodeID:             0,
		StreamingReplicationMode: true,
	}

	nodeID := balancer.SelectNode(cluster, balancer.SessionContext{Database: "app"}, balancer.Config{
		RedirectDBNames:  cfg.RedirectDBNames,
		RedirectAppNames: cfg.RedirectAppNames,
	})
	fmt.Printf("load balancer selected node %d\n", nodeID)

	builder := session.NewBuilder(nil, nil, transport.Options{
		ConnectTimeout: cfg.ConnectTimeout,
		MaxElapsed:     cfg.RetryMaxElapsed,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	slot, err := builder.Build(ctx, session.BuildParams{
		NodeID:      nodeID,
		Endpoint:    cluster.Nodes[nodeID].Endpoint,
		Credentials: session.Credentials{User: "alice", Database: "app"},
		Retry:       cfg.Retry,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "session build failed: %v\n", err)
		os.Exit(1)
	}
	defer session.Discard(slot)

	fmt.Printf("session established: slot_id=%s node_id=%d\n", slot.SlotID, slot.NodeID)

	version, err := pgversion.Probe(slot, cfg.RelcacheSize)
	if err != nil {
		fmt.Fprintf(os.Stderr, "version probe failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("backend version: major=%d minor=%d (%s)\n", version.Major(), version.Minor(), version)
}

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.WithComponent("demo").Info().Str("addr", addr).Msg("serving /metrics")
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.WithComponent("demo").Warn().Err(err).Msg("metrics server stopped")
	}
}

type fakeNode struct {
	listener net.Listener
	endpoint transport.Endpoint
}

// startFakeNode stands up a loopback listener that speaks just enough of
// the backend protocol to satisfy a session build and one version query:
// it accepts the startup packet unconditionally (no real auth), then
// answers AuthenticationOk, ReadyForQuery, and a single-row "SELECT
// version()" result.
func startFakeNode(versionString string) fakeNode {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		panic(err)
	}
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			go handleFakeNode(conn, versionString)
		}
	}()

	host, portStr, _ := net.SplitHostPort(ln.Addr().String())
	port, _ := strconv.Atoi(portStr)
	return fakeNode{listener: ln, endpoint: transport.NewEndpoint(host, port)}
}

func handleFakeNode(conn net.Conn, versionString string) {
	defer conn.Close()

	if err := skipStartupPacket(conn); err != nil {
		return
	}
	writeAuthOkAndReady(conn)

	for {
		msgType := make([]byte, 5)
		if _, err := io.ReadFull(conn, msgType); err != nil {
			return
		}
		length := binary.BigEndian.Uint32(msgType[1:5])
		body := make([]byte, length-4)
		if length > 4 {
			if _, err := io.ReadFull(conn, body); err != nil {
				return
			}
		}
		switch msgType[0] {
		case 'Q':
			writeVersionRow(conn, versionString)
		case 'X':
			return
		}
	}
}

func skipStartupPacket(conn net.Conn) error {
	lenBuf := make([]byte, 4)
	if _, err := io.ReadFull(conn, lenBuf); err != nil {
		return err
	}
	length := binary.BigEndian.Uint32(lenBuf)
	if length < 4 {
		return nil
	}
	_, err := io.CopyN(io.Discard, conn, int64(length-4))
	return err
}

func writeAuthOkAndReady(conn net.Conn) {
	buf := []byte{'R'}
	buf = binary.BigEndian.AppendUint32(buf, 8)
	buf = binary.BigEndian.AppendUint32(buf, 0)
	buf = append(buf, 'Z')
	buf = binary.BigEndian.AppendUint32(buf, 5)
	buf = append(buf, 'I')
	conn.Write(buf)
}

func writeVersionRow(conn net.Conn, text string) {
	row := []byte{}
	row = binary.BigEndian.AppendUint16(row, 1)
	row = binary.BigEndian.AppendUint32(row, uint32(len(text)))
	row = append(row, text...)

	msg := []byte{'D'}
	msg = binary.BigEndian.AppendUint32(msg, uint32(4+len(row)))
	msg = append(msg, row...)
	conn.Write(msg)

	ready := []byte{'Z'}
	ready = binary.BigEndian.AppendUint32(ready, 5)
	ready = append(ready, 'I')
	conn.Write(ready)
}
