// Package appfs embeds the SQL migrations and HTML templates shipped with the binary.
package appfs

import "embed"

//go:embed migrations templates
var FS embed.FS
