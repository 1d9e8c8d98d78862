// Package normalisers turns structured file formats into plain text for
// indexing. Each subpackage handles one MIME type; Registry dispatches on
// the detected type.
package normalisers
