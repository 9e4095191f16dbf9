// Package archive rewrites EPUB zip containers entry by entry.
//
// Rewriter streams the source archive in order, re-encoding supported images
// under OEBPS/Images/ through imagery.Reducer and copying every other entry
// raw (compressed bytes and header preserved). Entries that cannot be reduced
// are reported and still written, so the output always holds the same entries
// in the same order as the input. The destination is built in a temp file and
// renamed into place only when every entry has been written.
//
// ImageSet is the read-only scan used by calibration to enumerate and load
// candidate images without writing anything.
package archive
