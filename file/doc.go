// Package file implements open-file objects: reference-counted values
// exposing the credential of the opener and a concurrently-mutable
// flags word.
//
// A File is obtained either directly from New (the open path) or
// through a descriptor lookup on an fdtable.Table, which returns an
// owning handle with the count already incremented.
package file
