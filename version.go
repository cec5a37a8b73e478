package palaver

import _ "embed"

// Version is the release version of palaver.
//
//go:embed VERSION
var Version string
