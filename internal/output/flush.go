package output

import (
	"encoding/json"
	"io"

	"repopolicy/internal/rules"
)

type flusher interface {
	Flush() error
}

func flushIfPossible(w io.Writer) error {
	f, ok := w.(flusher)
	if !ok {
		return nil
	}
	return f.Flush()
}

// encodeEvent writes v as one NDJSON line when it is a lifecycle value.
func encodeEvent(enc *json.Encoder, v any) error {
	switch t := v.(type) {
	case Event:
		return enc.Encode(t)
	case rules.Result:
		return enc.Encode(eventFromResult(t))
	default:
		return nil
	}
}
