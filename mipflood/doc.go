// Package mipflood implements mip-flooding for textures with a coverage
// mask: a coverage-weighted mip chain, bottom-up hole compositing, and a
// final flood of the diffused colors back into the uncovered region of the
// original image. Covered pixels are never altered, so downsampling the
// flooded result mixes only meaningful samples.
//
// Callers supply raw channel-interleaved buffers; the package performs no
// file or format I/O.
package mipflood
