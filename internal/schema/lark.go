package schema

// Lark-syntax constants, ported from original_source/src/render/lark.rs.
const (
	LarkText       = `/[^{](.|\n)*/`
	LarkNumber     = `[0-9]`
	LarkJSONChar   = `/[^"\\\x7f\x00-\x1f]|\\(["\\\/bfnrt]|u[0-9a-fA-F]{4})/`
	LarkJSONString = `"\"" JSON_CHAR* "\""`
)

// StringLiteral formats s as a Lark `"..."` literal with quotes and
// backslashes escaped.
func StringLiteral(s string) string {
	out := make([]byte, 0, len(s)+2)
	out = append(out, '"')

	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '"':
			out = append(out, '\\', '"')
		case '\\':
			out = append(out, '\\', '\\')
		default:
			out = append(out, s[i])
		}
	}

	out = append(out, '"')

	return string(out)
}

// RegexLiteral formats pattern as a Lark `/.../ ` regex literal.
func RegexLiteral(pattern string) string {
	return "/" + pattern + "/"
}

// JSONSchemaDirective formats a raw JSON-schema document as Lark's `%json`
// directive (spec.md §4.3).
func JSONSchemaDirective(rawSchema string) string {
	return "%json " + rawSchema
}
