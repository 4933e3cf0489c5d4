// ABOUTME: Embeds the Python worker program shipped inside the binary
// ABOUTME: The script is passed to the interpreter with -c at launch
package worker

import _ "embed"

// Script is the persistent embedding worker program.
//
//go:embed python/worker.py
var Script string
