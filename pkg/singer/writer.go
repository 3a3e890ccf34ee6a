package singer

import (
	"encoding/json"
	"io"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
)

// timeExtractedLayout matches the microsecond-precision UTC timestamps other
// Singer implementations emit.
const timeExtractedLayout = "2006-01-02T15:04:05.000000Z"

// Writer emits newline-delimited Singer messages. Writes are serialized, so
// one Writer can be shared across streams. The output stream is normally
// stdout, which is reserved for messages; anything else belongs on stderr.
type Writer struct {
	mu  sync.Mutex
	enc *json.Encoder
	now func() time.Time
}

// NewWriter returns a Writer emitting to w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{
		enc: json.NewEncoder(w),
		now: time.Now,
	}
}

// WriteSchema emits a SCHEMA message for the stream.
func (w *Writer) WriteSchema(stream string, schema Schema, keyProperties, bookmarkProperties []string) error {
	return w.write(&SchemaMessage{
		Type:               MessageTypeSchema,
		Stream:             stream,
		Schema:             schema,
		KeyProperties:      keyProperties,
		BookmarkProperties: bookmarkProperties,
	})
}

// WriteRecord emits a RECORD message stamped with the extraction time.
func (w *Writer) WriteRecord(stream string, record map[string]any) error {
	return w.write(&RecordMessage{
		Type:          MessageTypeRecord,
		Stream:        stream,
		Record:        record,
		TimeExtracted: w.now().UTC().Format(timeExtractedLayout),
	})
}

// WriteState emits a STATE message with the given value.
func (w *Writer) WriteState(value any) error {
	return w.write(&StateMessage{
		Type:  MessageTypeState,
		Value: value,
	})
}

func (w *Writer) write(msg any) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.enc.Encode(msg); err != nil {
		return goerr.Wrap(err, "failed to write singer message")
	}
	return nil
}
