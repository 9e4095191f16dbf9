// Package imagery classifies archive entry names and shrinks the images they
// hold.
//
// Classification is a pure function of the entry name: entries under
// OEBPS/Images/ (any casing) with a single jpg, jpeg, or png extension are
// encodable, other image-directory entries are unsupported or malformed, and
// everything else passes through. The Reducer applies a uniform downscale
// (never enlarging, box-filtered) and re-encodes with the requested JPEG
// quality or PNG compression level.
package imagery
