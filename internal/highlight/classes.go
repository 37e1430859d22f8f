package highlight

import "github.com/alecthomas/chroma/v2"

// tokenClasses maps chroma token types to highlight.js class names, so the
// produced markup styles with existing hljs themes. Lookup tries the exact
// type, then its sub-category, then its category.
var tokenClasses = map[chroma.TokenType]string{
	chroma.Keyword:            "keyword",
	chroma.KeywordConstant:    "literal",
	chroma.KeywordType:        "type",
	chroma.KeywordDeclaration: "keyword",
	chroma.KeywordNamespace:   "keyword",

	chroma.NameAttribute:     "attr",
	chroma.NameBuiltin:       "built_in",
	chroma.NameBuiltinPseudo: "built_in",
	chroma.NameClass:         "title",
	chroma.NameConstant:      "literal",
	chroma.NameDecorator:     "meta",
	chroma.NameFunction:      "title",
	chroma.NameTag:           "name",
	chroma.NameVariable:      "variable",

	chroma.Literal:             "literal",
	chroma.LiteralString:       "string",
	chroma.LiteralStringRegex:  "regexp",
	chroma.LiteralStringEscape: "subst",
	chroma.LiteralNumber:       "number",

	chroma.OperatorWord: "keyword",

	chroma.Comment:        "comment",
	chroma.CommentPreproc: "meta",

	chroma.GenericDeleted:    "deletion",
	chroma.GenericInserted:   "addition",
	chroma.GenericHeading:    "section",
	chroma.GenericSubheading: "section",
	chroma.GenericEmph:       "emphasis",
	chroma.GenericStrong:     "strong",
}

// ClassFor returns the highlight.js class (without prefix) for a token
// type, or "" when the token should be emitted as plain text.
func ClassFor(t chroma.TokenType) string {
	if class, ok := tokenClasses[t]; ok {
		return class
	}
	// Plain names, operators and punctuation are unstyled in hljs themes.
	switch t.Category() {
	case chroma.Name, chroma.Operator, chroma.Punctuation, chroma.Text, chroma.Error:
		return ""
	}
	if class, ok := tokenClasses[t.SubCategory()]; ok {
		return class
	}
	return tokenClasses[t.Category()]
}
