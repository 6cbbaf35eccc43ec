package quizduel

import "embed"

// Content bundles the default question pool
//
//go:embed questions
var Content embed.FS
