package server

import (
	"mime"
	"path"
	"strings"
)

// JavaScriptType is forced for script files so browsers accept them as modules.
const JavaScriptType = "application/javascript"

// scriptExts are matched case-sensitively against the end of the request path.
var scriptExts = []string{".js", ".mjs"}

// builtinTypes are registered on top of the platform table at startup.
var builtinTypes = map[string]string{
	".wasm": "application/wasm",
}

// typeOverride returns the forced content type for p, if any.
func typeOverride(p string) (string, bool) {
	for _, ext := range scriptExts {
		if strings.HasSuffix(p, ext) {
			return JavaScriptType, true
		}
	}
	return "", false
}

// ContentType returns the content type for a file name: the script override
// first, then the extension table. An empty result means the table has no
// entry and the caller should sniff the content.
func ContentType(name string) string {
	if ctype, ok := typeOverride(name); ok {
		return ctype
	}
	return mime.TypeByExtension(path.Ext(name))
}

// RegisterTypes adds the built-in extras and extra to the process-wide MIME
// table. It must run before the server starts accepting requests.
func RegisterTypes(extra map[string]string) error {
	for ext, ctype := range builtinTypes {
		if err := mime.AddExtensionType(ext, ctype); err != nil {
			return err
		}
	}
	for ext, ctype := range extra {
		if err := mime.AddExtensionType(ext, ctype); err != nil {
			return err
		}
	}
	return nil
}
