package luaproc

import _ "embed"

// philosophersSource is the built-in dining-philosophers demo, embedded
// so cmd/supervisor can run it with no -scripts directory at all.
//
//go:embed scripts/philosophers.lua
var philosophersSource []byte

// Philosophers returns the bundled dining-philosophers demo script.
func Philosophers() *Script {
	return FromSource("philosophers.lua", philosophersSource)
}
