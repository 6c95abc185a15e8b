package session

import "poolcore/pgwire"

// ExecuteScalarQuery runs a simple-query request and returns the first
// column of the first row of the result, satisfying relcache.Executor so
// a built SessionSlot can feed pgversion's probe directly.
func (s *SessionSlot) ExecuteScalarQuery(query string) (string, error) {
	if err := s.writer.WriteQuery(query); err != nil {
		return "", &SessionError{Kind: ErrConnect, Detail: "write query", Cause: err}
	}
	if err := s.writer.Flush(); err != nil {
		return "", &SessionError{Kind: ErrConnect, Detail: "flush query", Cause: err}
	}

	var result string
	haveResult := false

	for {
		msgType, payload, err := s.reader.ReadMessage()
		if err != nil {
			return "", &SessionError{Kind: ErrConnect, Detail: "read query response", Cause: err}
		}

		switch msgType {
		case pgwire.MsgDataRow:
			if !haveResult {
				fields, err := pgwire.DataRowText(payload)
				if err != nil {
					return "", err
				}
				if len(fields) > 0 {
					result = fields[0]
				}
				haveResult = true
			}

		case pgwire.MsgErrorResponse:
			return "", pgwire.ParseBackendError(payload)

		case pgwire.MsgReadyForQuery:
			return result, nil

		default:
			// RowDescription, CommandComplete, NoticeResponse: ignore.
		}
	}
}
