package web

import "embed"

// Static embeds the browser client shell served at "/".
//
//go:embed static
var Static embed.FS
