// Package defaults provides an embedded copy of the example
// configuration file for the stickmon init subcommand.
package defaults

import _ "embed"

//go:embed config.example.yaml
var ConfigYAML []byte
