package session

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"

	"poolcore/pgwire"
)

// Authenticator executes the backend's authentication sub-protocol for a
// freshly-connected session, feeding the configured password on challenge,
// and consuming messages through ReadyForQuery.
type Authenticator interface {
	Authenticate(r *pgwire.Reader, w *pgwire.Writer, creds Credentials) error
}

// DefaultAuthenticator answers cleartext and MD5 password challenges, the
// two mechanisms a Credentials value can satisfy unattended. Kerberos and
// other interactive mechanisms are rejected.
type DefaultAuthenticator struct{}

// Authenticate implements Authenticator.
func (DefaultAuthenticator) Authenticate(r *pgwire.Reader, w *pgwire.Writer, creds Credentials) error {
	for {
		msgType, payload, err := r.ReadMessage()
		if err != nil {
			return fmt.Errorf("session: auth: read message: %w", err)
		}

		switch msgType {
		case pgwire.MsgAuthentication:
			req, err := pgwire.ParseAuthRequest(payload)
			if err != nil {
				return fmt.Errorf("session: auth: %w", err)
			}
			if err := respondToChallenge(w, req, creds); err != nil {
				return err
			}

		case pgwire.MsgErrorResponse:
			return pgwire.ParseBackendError(payload)

		case pgwire.MsgReadyForQuery:
			return nil

		case pgwire.MsgParameterStatus, pgwire.MsgBackendKeyData, pgwire.MsgNoticeResponse:
			// Benign chatter between authentication and ReadyForQuery.

		default:
			// Unrecognized message between auth and ready; ignore.
		}
	}
}

func respondToChallenge(w *pgwire.Writer, req *pgwire.AuthRequest, creds Credentials) error {
	switch req.Kind {
	case pgwire.AuthOk:
		return nil

	case pgwire.AuthCleartextPassword:
		if err := w.WritePasswordMessage(creds.Password); err != nil {
			return fmt.Errorf("session: auth: send cleartext password: %w", err)
		}
		return flushWriter(w)

	case pgwire.AuthMD5Password:
		hashed := hashMD5Password(creds.User, creds.Password, req.Salt)
		if err := w.WritePasswordMessage(hashed); err != nil {
			return fmt.Errorf("session: auth: send md5 password: %w", err)
		}
		return flushWriter(w)

	default:
		return fmt.Errorf("session: auth: unsupported authentication method %d", req.Kind)
	}
}

func flushWriter(w *pgwire.Writer) error {
	if err := w.Flush(); err != nil {
		return fmt.Errorf("session: auth: flush: %w", err)
	}
	return nil
}

// hashMD5Password computes the "md5"-prefixed challenge response:
// md5(md5(password + user) + salt), hex-encoded, per the wire protocol's
// MD5 authentication convention.
func hashMD5Password(user, password string, salt [4]byte) string {
	inner := md5.Sum([]byte(password + user))
	innerHex := hex.EncodeToString(inner[:])
	outer := md5.Sum(append([]byte(innerHex), salt[:]...))
	return "md5" + hex.EncodeToString(outer[:])
}
