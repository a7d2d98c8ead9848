// Package json wraps goccy/go-json with pooled buffers and the decoding
// options the tap relies on: numbers decode as Number so integer and
// decimal values survive a state or catalog round trip unchanged.
package json

import (
	"bytes"
	"io"
	"os"
	"sync"

	gojson "github.com/goccy/go-json"
)

// Number is a JSON number literal kept in its textual form.
type Number = gojson.Number

// RawMessage is an encoded JSON value whose decoding is deferred.
type RawMessage = gojson.RawMessage

// Delim is an object or array delimiter returned by Decoder.Token.
type Delim = gojson.Delim

var bufferPool = sync.Pool{
	New: func() interface{} {
		return bytes.NewBuffer(make([]byte, 0, 4096))
	},
}

// GetBuffer gets a pooled bytes.Buffer
func GetBuffer() *bytes.Buffer {
	buf := bufferPool.Get().(*bytes.Buffer)
	buf.Reset()
	return buf
}

// PutBuffer returns a buffer to the pool
func PutBuffer(buf *bytes.Buffer) {
	if buf.Cap() > 1024*1024 {
		return
	}
	bufferPool.Put(buf)
}

// GetEncoder returns an encoder writing to w with HTML escaping disabled.
func GetEncoder(w io.Writer) *gojson.Encoder {
	enc := gojson.NewEncoder(w)
	enc.SetEscapeHTML(false)
	return enc
}

// GetDecoder returns a decoder reading from r that decodes numbers as Number.
func GetDecoder(r io.Reader) *gojson.Decoder {
	dec := gojson.NewDecoder(r)
	dec.UseNumber()
	return dec
}

// Marshal is a drop-in replacement for json.Marshal
func Marshal(v interface{}) ([]byte, error) {
	return gojson.Marshal(v)
}

// MarshalIndent is a drop-in replacement for json.MarshalIndent
func MarshalIndent(v interface{}, prefix, indent string) ([]byte, error) {
	return gojson.MarshalIndent(v, prefix, indent)
}

// Unmarshal decodes data into v, keeping numbers as Number.
func Unmarshal(data []byte, v interface{}) error {
	return GetDecoder(bytes.NewReader(data)).Decode(v)
}

// MarshalLine encodes v followed by a newline into a pooled buffer.
// The caller must return the buffer with PutBuffer.
func MarshalLine(v interface{}) (*bytes.Buffer, error) {
	buf := GetBuffer()
	if err := GetEncoder(buf).Encode(v); err != nil {
		PutBuffer(buf)
		return nil, err
	}
	return buf, nil
}

// ReadFile decodes the JSON document at path into v.
func ReadFile(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return GetDecoder(f).Decode(v)
}
