// internal/writers/jsonl.go
package writers

import (
	"encoding/json"
	"io"

	"microsim/internal/jsonlutil"
	"microsim/pkg/api"
)

// StartJSONLWriter streams each record as one JSON line (v1).
func StartJSONLWriter(out io.Writer, _ Options, bufSize int) (chan<- api.RecordV1, <-chan error) {
	return jsonlutil.Start[api.RecordV1](out, bufSize,
		func(enc *json.Encoder, r api.RecordV1) error {
			return enc.Encode(r)
		},
		IsBrokenPipe,
	)
}
