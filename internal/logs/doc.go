// Package logs implements the incremental tail-read protocol over growing log
// files.
//
// A caller keeps a byte offset and repeatedly asks for whatever was appended
// since. ReadFrom returns the new text together with the file length observed
// for this call, which becomes the caller's next offset. An offset at or past
// the end (including after truncation or rotation) yields empty text and the
// current length, so the caller resynchronizes without special handling.
//
// The reader is stateless: every call opens its own handle. TailLines and
// Follow are conveniences for the CLI built on the same primitive.
package logs
