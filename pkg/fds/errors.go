package fds

import "fmt"

// NotRecordError is returned by Initialize when the schema root is not a
// record.
type NotRecordError struct {
	Kind       string
	SchemaText string
}

func (e *NotRecordError) Error() string {
	return fmt.Sprintf("fds: schema root is %s, not record: %s", e.Kind, e.SchemaText)
}

// FeatureNotFoundError is returned when a declared feature name has no
// matching field in the schema.
type FeatureNotFoundError struct {
	Name       string
	SchemaText string
}

func (e *FeatureNotFoundError) Error() string {
	return fmt.Sprintf("fds: declared feature %q not found in schema", e.Name)
}

// InvalidUnionTypeError is returned when a feature's schema node is a
// union with an unsupported branch arrangement (neither a single branch
// nor exactly one null + one non-null branch).
type InvalidUnionTypeError struct {
	Name     string
	NodeJSON string
}

func (e *InvalidUnionTypeError) Error() string {
	return fmt.Sprintf("fds: feature %q has an unsupported union shape: %s", e.Name, e.NodeJSON)
}

// SchemaMismatchError is returned when a feature's carrier type is
// inconsistent with its declared metadata.
type SchemaMismatchError struct {
	Name     string
	Expected string
	Actual   string
}

func (e *SchemaMismatchError) Error() string {
	return fmt.Sprintf("fds: feature %q schema mismatch: expected %s, got %s", e.Name, e.Expected, e.Actual)
}

// NullValueError is returned when a nullable column reads the null
// branch of its union.
type NullValueError struct {
	Name string
}

func (e *NullValueError) Error() string {
	return fmt.Sprintf("fds: feature %q read a null value", e.Name)
}

// FeatureDecodeError wraps any failure raised by a per-column decoder,
// annotated with the column name. Unwrap reaches the underlying error so
// callers can errors.As through to a more specific kind.
type FeatureDecodeError struct {
	Name string
	Err  error
}

func (e *FeatureDecodeError) Error() string {
	return fmt.Sprintf("fds: failed to decode feature %q: %v", e.Name, e.Err)
}

func (e *FeatureDecodeError) Unwrap() error { return e.Err }

// UnderlyingDecodeError wraps a failure from the byte-stream decoder
// itself (short read, corrupt varint, and the like).
type UnderlyingDecodeError struct {
	Err error
}

func (e *UnderlyingDecodeError) Error() string {
	return fmt.Sprintf("fds: underlying decode error: %v", e.Err)
}

func (e *UnderlyingDecodeError) Unwrap() error { return e.Err }
