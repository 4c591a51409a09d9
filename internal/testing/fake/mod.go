// Package fake provides fake implementations for interfaces commonly used in
// the repository.
//
// The implementations offer configuration to return errors when it is needed
// by the unit test.
package fake

import (
	"encoding/json"

	"go.dedis.ch/heirloom/serde"
	"golang.org/x/xerrors"
)

var fakeErr = xerrors.New("fake error")

// GetError returns the fake error.
func GetError() error {
	return fakeErr
}

// Err returns the message of the fake error wrapped by the prefix, the way
// the code base formats its errors.
func Err(msg string) string {
	return xerrors.Errorf("%s: %v", msg, fakeErr).Error()
}

const (
	// GoodFormat is the format of the fake context that succeeds.
	GoodFormat = serde.Format("FakeGood")

	// BadFormat is the format of the fake context that fails.
	BadFormat = serde.Format("FakeBad")
)

// Message is a fake implementation of a serde message.
//
// - implements serde.Message
type Message struct {
	Digest []byte
}

// Serialize implements serde.Message. It returns the fake format value.
func (m Message) Serialize(serde.Context) ([]byte, error) {
	return GetFakeFormatValue(), nil
}

// GetFakeFormatValue returns the value the fake format returns on encoding.
func GetFakeFormatValue() []byte {
	return []byte("fake format")
}

// Format is a fake format engine.
//
// - implements serde.FormatEngine
type Format struct {
	Msg serde.Message
	err error
}

// NewBadFormat returns a format engine that always returns an error.
func NewBadFormat() Format {
	return Format{err: fakeErr}
}

// Encode implements serde.FormatEngine.
func (f Format) Encode(serde.Context, serde.Message) ([]byte, error) {
	if f.err != nil {
		return nil, f.err
	}

	return GetFakeFormatValue(), nil
}

// Decode implements serde.FormatEngine.
func (f Format) Decode(serde.Context, []byte) (serde.Message, error) {
	return f.Msg, f.err
}

// contextEngine is a JSON context engine that can be configured to fail after
// a number of calls.
//
// - implements serde.ContextEngine
type contextEngine struct {
	format serde.Format
	count  *int
	err    error
}

// NewContext returns a context with the good format that uses JSON to marshal.
func NewContext() serde.Context {
	return serde.NewContext(contextEngine{format: GoodFormat})
}

// NewContextWithFormat returns a context with the given format that uses JSON
// to marshal.
func NewContextWithFormat(f serde.Format) serde.Context {
	return serde.NewContext(contextEngine{format: f})
}

// NewBadContext returns a context with the bad format that fails to marshal and
// unmarshal.
func NewBadContext() serde.Context {
	return serde.NewContext(contextEngine{format: BadFormat, err: fakeErr})
}

// NewBadContextWithDelay returns a context that fails to marshal and unmarshal
// after the given number of successful calls.
func NewBadContextWithDelay(delay int) serde.Context {
	return serde.NewContext(contextEngine{
		format: GoodFormat,
		count:  &delay,
		err:    fakeErr,
	})
}

// GetFormat implements serde.ContextEngine.
func (ctx contextEngine) GetFormat() serde.Format {
	return ctx.format
}

// Marshal implements serde.ContextEngine.
func (ctx contextEngine) Marshal(m interface{}) ([]byte, error) {
	if ctx.fails() {
		return nil, ctx.err
	}

	return json.Marshal(m)
}

// Unmarshal implements serde.ContextEngine.
func (ctx contextEngine) Unmarshal(data []byte, m interface{}) error {
	if ctx.fails() {
		return ctx.err
	}

	return json.Unmarshal(data, m)
}

func (ctx contextEngine) fails() bool {
	if ctx.err == nil {
		return false
	}

	if ctx.count == nil {
		return true
	}

	if *ctx.count > 0 {
		*ctx.count--
		return false
	}

	return true
}
