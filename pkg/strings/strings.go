// Package strings provides pooled string building for log messages and SQL text.
package strings

import (
	"fmt"
	"strconv"
	stdstrings "strings"
	"sync"
)

// Builder is a reusable byte buffer with string output.
type Builder struct {
	buf []byte
}

// NewBuilder creates a new string builder
func NewBuilder(capacity int) *Builder {
	return &Builder{buf: make([]byte, 0, capacity)}
}

// WriteString appends a string to the builder
func (b *Builder) WriteString(s string) {
	b.buf = append(b.buf, s...)
}

// WriteByte appends a single byte
func (b *Builder) WriteByte(c byte) error {
	b.buf = append(b.buf, c)
	return nil
}

// Write implements io.Writer interface
func (b *Builder) Write(p []byte) (n int, err error) {
	b.buf = append(b.buf, p...)
	return len(p), nil
}

// String returns a copy of the built string. The builder can be reused afterwards.
func (b *Builder) String() string {
	return string(b.buf)
}

// Len returns the length of the built string
func (b *Builder) Len() int {
	return len(b.buf)
}

// Reset resets the builder for reuse
func (b *Builder) Reset() {
	b.buf = b.buf[:0]
}

// BuilderSize represents different builder sizes
type BuilderSize int

const (
	Small  BuilderSize = iota // < 1KB
	Medium                    // 1KB - 16KB
)

var (
	smallBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(1024)
		},
	}

	mediumBuilderPool = &sync.Pool{
		New: func() interface{} {
			return NewBuilder(16 * 1024)
		},
	}
)

func poolFor(size BuilderSize) *sync.Pool {
	if size == Medium {
		return mediumBuilderPool
	}
	return smallBuilderPool
}

func sizeFor(estimated int) BuilderSize {
	if estimated > 1024 {
		return Medium
	}
	return Small
}

// GetBuilder retrieves a pooled builder of the specified size
func GetBuilder(size BuilderSize) *Builder {
	builder := poolFor(size).Get().(*Builder)
	builder.Reset()
	return builder
}

// PutBuilder returns a builder to the appropriate pool
func PutBuilder(builder *Builder, size BuilderSize) {
	if builder == nil {
		return
	}
	builder.Reset()
	poolFor(size).Put(builder)
}

// Sprintf provides a pooled alternative to fmt.Sprintf
func Sprintf(format string, args ...interface{}) string {
	if len(args) == 0 {
		return format
	}

	size := sizeFor(len(format) + len(args)*16)
	builder := GetBuilder(size)
	defer PutBuilder(builder, size)

	fmt.Fprintf(builder, format, args...)
	return builder.String()
}

// SQLBuilder builds SQL text. Values never go through it: callers bind them
// as positional parameters written with WritePlaceholder.
type SQLBuilder struct {
	builder *Builder
	size    BuilderSize
}

// NewSQLBuilder creates a new SQL builder
func NewSQLBuilder(estimatedLength int) *SQLBuilder {
	size := sizeFor(estimatedLength)
	return &SQLBuilder{
		builder: GetBuilder(size),
		size:    size,
	}
}

// WriteQuery writes a SQL query part
func (sb *SQLBuilder) WriteQuery(query string) *SQLBuilder {
	sb.builder.WriteString(query)
	return sb
}

// WriteIdentifier writes a double-quoted identifier, doubling embedded quotes.
func (sb *SQLBuilder) WriteIdentifier(name string) *SQLBuilder {
	_ = sb.builder.WriteByte('"')
	sb.builder.WriteString(stdstrings.ReplaceAll(name, `"`, `""`))
	_ = sb.builder.WriteByte('"')
	return sb
}

// WriteQualifiedIdentifier writes schema.table as "schema"."table".
func (sb *SQLBuilder) WriteQualifiedIdentifier(parts ...string) *SQLBuilder {
	for i, part := range parts {
		if i > 0 {
			_ = sb.builder.WriteByte('.')
		}
		sb.WriteIdentifier(part)
	}
	return sb
}

// WriteIdentifierList writes a comma separated list of quoted identifiers.
func (sb *SQLBuilder) WriteIdentifierList(names []string) *SQLBuilder {
	for i, name := range names {
		if i > 0 {
			_ = sb.builder.WriteByte(',')
		}
		sb.WriteIdentifier(name)
	}
	return sb
}

// WritePlaceholder writes a positional parameter ($n).
func (sb *SQLBuilder) WritePlaceholder(n int) *SQLBuilder {
	_ = sb.builder.WriteByte('$')
	sb.builder.WriteString(strconv.Itoa(n))
	return sb
}

// String returns the built SQL query
func (sb *SQLBuilder) String() string {
	return sb.builder.String()
}

// Close releases the builder back to the pool
func (sb *SQLBuilder) Close() {
	if sb.builder != nil {
		PutBuilder(sb.builder, sb.size)
		sb.builder = nil
	}
}
