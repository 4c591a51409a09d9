// Package serde defines the primitives to serialize and deserialize (serde)
// the messages of the ledger, which includes the persisted contract records.
//
// A message does not know how it is encoded. It asks a format engine found in
// a registry for the format of the context, so that the same data model can be
// stored with different encodings.
package serde

import "io"

// Format is the identifier of an encoding.
type Format string

const (
	// FormatJSON is the identifier of the JSON encoding.
	FormatJSON Format = "JSON"
)

// Message is the interface a data model should implement to be serialized.
type Message interface {
	// Serialize returns the bytes of the message according to the format of
	// the context.
	Serialize(ctx Context) ([]byte, error)
}

// Fingerprinter is the interface of a message that can write a deterministic
// binary representation of itself, typically to compute a digest.
type Fingerprinter interface {
	Fingerprint(writer io.Writer) error
}

// Factory is the interface to implement to instantiate a message from its
// serialized form.
type Factory interface {
	Deserialize(ctx Context, data []byte) (Message, error)
}

// FormatEngine is the interface to implement to support a message in a given
// format.
type FormatEngine interface {
	// Encode returns the bytes of the message.
	Encode(ctx Context, message Message) ([]byte, error)

	// Decode returns the message populated from the data.
	Decode(ctx Context, data []byte) (Message, error)
}
