package session

import (
	"time"

	"poolcore/log"
	"poolcore/pgwire"
	"poolcore/transport"
)

// Discard tears a session slot down: write the termination message,
// temporarily flip the socket non-blocking to flush any residual bytes
// without risking a blocking call that could be confused with the backend
// dying mid-COPY, then close and release. Safe to call with a nil slot.
func Discard(slot *SessionSlot) {
	if slot == nil {
		return
	}

	if err := pgwire.WriteTerminate(slot.Conn); err != nil {
		log.WithComponent("session").Debug().Err(err).Int32("node_id", slot.NodeID).Msg("terminate write failed, continuing teardown")
	}

	// Non-blocking flush is best-effort: residual bytes are dropped rather
	// than escalated, and the blocking mode is always restored before close
	// even when the toggle or flush itself fails.
	if err := transport.SetNonblocking(slot.Conn, true); err != nil {
		log.WithComponent("session").Debug().Err(err).Msg("set nonblocking failed, skipping residual flush")
	} else {
		if slot.writer != nil {
			if err := slot.writer.Flush(); err != nil {
				log.WithComponent("session").Debug().Err(err).Msg("residual flush dropped")
			}
		}
		if err := transport.SetNonblocking(slot.Conn, false); err != nil {
			log.WithComponent("session").Debug().Err(err).Msg("restore blocking mode failed")
		}
	}

	slot.CloseTime = time.Now()
	slot.Conn.Close()
}
