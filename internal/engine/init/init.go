// Package engineinit exists solely to trigger engine registration via
// import side-effects. Import this package once in the cmd layer:
//
//	import _ "github.com/whatthepatch/wtp/internal/engine/init"
//
// This registers all seven built-in engines with the global registry.
package engineinit

import (
	_ "github.com/whatthepatch/wtp/internal/engine/claude"
	_ "github.com/whatthepatch/wtp/internal/engine/cliengine"
	_ "github.com/whatthepatch/wtp/internal/engine/gemini"
	_ "github.com/whatthepatch/wtp/internal/engine/ollama"
	_ "github.com/whatthepatch/wtp/internal/engine/openai"
)
