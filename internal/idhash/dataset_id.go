package idhash

import (
	"crypto/sha256"
	"fmt"
	"io"
	"time"

	"github.com/mr-tron/base58"
)

const (
	fieldSep  = "\x1f"
	recordSep = "\x1e"
)

// ComputeDatasetID computes a deterministic content fingerprint of a raw table.
// Formula: SHA256(header cells | each row's typed cells), base58 encoded.
// Two tables get the same ID iff they have the same header and the same cells
// in the same order; the source they came from does not matter.
func ComputeDatasetID(columns []string, rows [][]any) string {
	h := sha256.New()

	for _, c := range columns {
		io.WriteString(h, c)
		io.WriteString(h, fieldSep)
	}
	io.WriteString(h, recordSep)

	for _, row := range rows {
		for _, cell := range row {
			writeCell(h, cell)
			io.WriteString(h, fieldSep)
		}
		io.WriteString(h, recordSep)
	}

	return base58.Encode(h.Sum(nil))
}

// writeCell writes a type-tagged cell so "1" and 1 hash differently.
func writeCell(w io.Writer, cell any) {
	switch v := cell.(type) {
	case nil:
		io.WriteString(w, "nil")
	case string:
		fmt.Fprintf(w, "s:%s", v)
	case []byte:
		fmt.Fprintf(w, "b:%s", v)
	case time.Time:
		fmt.Fprintf(w, "t:%s", v.Format(time.RFC3339Nano))
	default:
		fmt.Fprintf(w, "%T:%v", v, v)
	}
}
