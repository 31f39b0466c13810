package common

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CustomEvent is a server-sent event renderer that writes pre-formatted
// "data: ..." lines without re-encoding them, which the default gin SSE
// renderer would do.
type CustomEvent struct {
	Event string
	Id    string
	Retry uint
	Data  interface{}
}

type stringWriter interface {
	io.Writer
	WriteString(string) (int, error)
}

type stringWrapper struct {
	io.Writer
}

func (w stringWrapper) WriteString(str string) (int, error) {
	return w.Writer.Write([]byte(str))
}

func checkWriter(writer io.Writer) stringWriter {
	if w, ok := writer.(stringWriter); ok {
		return w
	}
	return stringWrapper{writer}
}

var contentType = []string{"text/event-stream"}
var noCache = []string{"no-cache"}

var dataReplacer = strings.NewReplacer(
	"\n", "\ndata:",
	"\r", "\\r")

func encode(writer io.Writer, event CustomEvent) error {
	w := checkWriter(writer)
	return writeData(w, event.Data)
}

func writeData(w stringWriter, data interface{}) error {
	if _, err := dataReplacer.WriteString(w, fmt.Sprint(data)); err != nil {
		return err
	}
	if strData, ok := data.(string); ok && strings.HasPrefix(strData, "data") {
		if _, err := w.WriteString("\n\n"); err != nil {
			return err
		}
	}
	return nil
}

func (r CustomEvent) Render(w http.ResponseWriter) error {
	r.WriteContentType(w)
	return encode(w, r)
}

func (r CustomEvent) WriteContentType(w http.ResponseWriter) {
	header := w.Header()
	header["Content-Type"] = contentType

	if _, exist := header["Cache-Control"]; !exist {
		header["Cache-Control"] = noCache
	}
}

// SetEventStreamHeaders prepares the response for SSE streaming.
func SetEventStreamHeaders(c *gin.Context) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("Transfer-Encoding", "chunked")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
}
