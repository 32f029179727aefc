package export

import (
	"io"
	"strconv"

	"github.com/danmuck/lsofctl/internal/lsof"
	"github.com/valyala/fastjson"
)

// AppendJSON appends rec as a JSON object with keys in sorted order.
func AppendJSON(dst []byte, rec lsof.Record) []byte {
	var a fastjson.Arena
	return appendRecord(&a, dst, rec)
}

func appendRecord(a *fastjson.Arena, dst []byte, rec lsof.Record) []byte {
	obj := a.NewObject()
	for _, name := range rec.Names() {
		v := rec[name]
		if n, ok := v.Int(); ok {
			obj.Set(name, a.NewNumberString(strconv.FormatInt(n, 10)))
			continue
		}
		obj.Set(name, a.NewString(v.String()))
	}
	return obj.MarshalTo(dst)
}

// JSONLinesWriter writes one JSON object per record, newline terminated.
type JSONLinesWriter struct {
	w     io.Writer
	arena fastjson.Arena
	buf   []byte
	n     int
}

func NewJSONLinesWriter(w io.Writer) *JSONLinesWriter {
	return &JSONLinesWriter{w: w}
}

func (jw *JSONLinesWriter) Write(rec lsof.Record) error {
	jw.arena.Reset()
	jw.buf = appendRecord(&jw.arena, jw.buf[:0], rec)
	jw.buf = append(jw.buf, '\n')
	if _, err := jw.w.Write(jw.buf); err != nil {
		return err
	}
	jw.n++
	return nil
}

// Count returns the number of records written.
func (jw *JSONLinesWriter) Count() int {
	return jw.n
}
