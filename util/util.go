// Package util is a set of utility variables or methods
package util

import mapset "github.com/deckarep/golang-set/v2"

// SupportedImageExt are the file extensions carried through to storage
// object names. Unknown extensions get dropped from the generated name.
var SupportedImageExt = mapset.NewSet(
	".jpeg", ".jpg",
	".png",
	".gif",
	".webp",
)
