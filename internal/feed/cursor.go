package feed

import (
	"encoding/base64"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Mode selects which supply phase a pagination session is in.
type Mode string

// Pagination phases. An empty mode means the session has not yet
// crossed into the seen phase (or is a plain recency feed, which has
// no phases).
const (
	ModeUnseen Mode = "unseen"
	ModeSeen   Mode = "seen"
)

// cursorVersion is bumped when the wire shape changes. Tokens with a
// different version decode to the zero cursor, restarting pagination.
const cursorVersion = 1

// Cursor is the decoded pagination state round-tripped through the
// client as an opaque token. It carries no server-side state.
type Cursor struct {
	// Mode is the supply phase to resume.
	Mode Mode

	// LastCreatedAt and LastID form the composite keyset position of
	// the last delivered item. CreatedAt alone is insufficient since
	// multiple posts can share a timestamp at second resolution.
	LastCreatedAt time.Time
	LastID        string

	// Watermark is the freshness upper bound fixed on the first page
	// of the session. Posts created after it never enter the session.
	Watermark time.Time
}

// IsZero reports whether the cursor carries no state.
func (c Cursor) IsZero() bool {
	return c.Mode == "" && c.LastCreatedAt.IsZero() && c.LastID == "" && c.Watermark.IsZero()
}

// cursorWire is the fixed-shape CBOR encoding of a cursor. Times ride
// as nanosecond unix timestamps so the keyset position round-trips
// exactly; zero means unset.
type cursorWire struct {
	V int    `cbor:"v"`
	M string `cbor:"m"`
	T int64  `cbor:"t"`
	I string `cbor:"i"`
	W int64  `cbor:"w"`
}

// EncodeCursor serializes a cursor to an opaque URL-safe token.
func EncodeCursor(c Cursor) string {
	w := cursorWire{
		V: cursorVersion,
		M: string(c.Mode),
		I: c.LastID,
	}
	if !c.LastCreatedAt.IsZero() {
		w.T = c.LastCreatedAt.UnixNano()
	}
	if !c.Watermark.IsZero() {
		w.W = c.Watermark.UnixNano()
	}

	data, err := cbor.Marshal(w)
	if err != nil {
		// cursorWire contains only integers and strings; Marshal
		// cannot fail on it.
		return ""
	}
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeCursor deserializes an opaque token. Cursors are
// client-supplied, so decoding never fails outward: malformed,
// foreign, or stale-version tokens yield the zero cursor, which
// restarts pagination from a fresh watermark.
func DecodeCursor(token string) Cursor {
	if token == "" {
		return Cursor{}
	}

	data, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return Cursor{}
	}

	var w cursorWire
	if err := cbor.Unmarshal(data, &w); err != nil {
		return Cursor{}
	}
	if w.V != cursorVersion {
		return Cursor{}
	}

	switch Mode(w.M) {
	case ModeUnseen, ModeSeen, "":
	default:
		return Cursor{}
	}

	c := Cursor{
		Mode:   Mode(w.M),
		LastID: w.I,
	}
	if w.T != 0 {
		c.LastCreatedAt = time.Unix(0, w.T).UTC()
	}
	if w.W != 0 {
		c.Watermark = time.Unix(0, w.W).UTC()
	}
	return c
}
