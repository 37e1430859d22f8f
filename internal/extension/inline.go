package extension

import (
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// Node kinds introduced by the built-in inline extensions.
var (
	KindMark        = ast.NewNodeKind("Mark")
	KindInserted    = ast.NewNodeKind("Inserted")
	KindSuperscript = ast.NewNodeKind("Superscript")
	KindSubscript   = ast.NewNodeKind("Subscript")
)

// Mark is highlighted text, written ==text==.
type Mark struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *Mark) Kind() ast.NodeKind { return KindMark }

// Dump implements ast.Node.
func (n *Mark) Dump(source []byte, level int) { ast.DumpHelper(n, source, level, nil, nil) }

// Inserted is inserted text, written ++text++.
type Inserted struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *Inserted) Kind() ast.NodeKind { return KindInserted }

// Dump implements ast.Node.
func (n *Inserted) Dump(source []byte, level int) { ast.DumpHelper(n, source, level, nil, nil) }

// Superscript is written ^text^.
type Superscript struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *Superscript) Kind() ast.NodeKind { return KindSuperscript }

// Dump implements ast.Node.
func (n *Superscript) Dump(source []byte, level int) { ast.DumpHelper(n, source, level, nil, nil) }

// Subscript is written ~text~.
type Subscript struct {
	ast.BaseInline
}

// Kind implements ast.Node.
func (n *Subscript) Kind() ast.NodeKind { return KindSubscript }

// Dump implements ast.Node.
func (n *Subscript) Dump(source []byte, level int) { ast.DumpHelper(n, source, level, nil, nil) }

// pairDelimiter handles doubled delimiters such as "==" whose content is
// parsed as regular inline Markdown.
type pairDelimiter struct {
	char    byte
	newNode func() ast.Node
}

func (p *pairDelimiter) IsDelimiter(b byte) bool {
	return b == p.char
}

func (p *pairDelimiter) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *pairDelimiter) OnMatch(consumes int) ast.Node {
	return p.newNode()
}

func (p *pairDelimiter) Trigger() []byte {
	return []byte{p.char}
}

// Parse pushes a delimiter for a run of exactly two marker characters.
// Longer or shorter runs stay literal.
func (p *pairDelimiter) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, 2, p)
	if node == nil || node.OriginalLength != 2 || before == rune(p.char) {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

// NewMarkParser returns the inline parser for ==mark==.
func NewMarkParser() parser.InlineParser {
	return &pairDelimiter{char: '=', newNode: func() ast.Node { return &Mark{} }}
}

// NewInsertedParser returns the inline parser for ++inserted++.
func NewInsertedParser() parser.InlineParser {
	return &pairDelimiter{char: '+', newNode: func() ast.Node { return &Inserted{} }}
}

// spanScanner handles single-character spans such as ^sup^. The content
// is literal text: it may not be empty and may not contain unescaped
// whitespace.
type spanScanner struct {
	char    byte
	newNode func() ast.Node
}

func (s *spanScanner) Trigger() []byte {
	return []byte{s.char}
}

func (s *spanScanner) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	line, _ := block.PeekLine()
	if len(line) < 3 || line[0] != s.char {
		return nil
	}

	end := -1
	for i := 1; i < len(line); i++ {
		c := line[i]
		if c == '\\' && i+1 < len(line) {
			i++
			continue
		}
		if c == s.char {
			end = i
			break
		}
		if util.IsSpace(c) {
			return nil
		}
	}
	if end <= 1 {
		return nil
	}

	content := unescapeSpan(line[1:end])
	block.Advance(end + 1)

	node := s.newNode()
	node.AppendChild(node, ast.NewString(content))
	return node
}

// unescapeSpan drops the backslash in front of escaped punctuation and
// spaces.
func unescapeSpan(b []byte) []byte {
	out := make([]byte, 0, len(b))
	for i := 0; i < len(b); i++ {
		if b[i] == '\\' && i+1 < len(b) && (util.IsPunct(b[i+1]) || b[i+1] == ' ') {
			i++
		}
		out = append(out, b[i])
	}
	return out
}

// NewSuperscriptParser returns the inline parser for ^sup^.
func NewSuperscriptParser() parser.InlineParser {
	return &spanScanner{char: '^', newNode: func() ast.Node { return &Superscript{} }}
}

// NewSubscriptParser returns the inline parser for ~sub~.
func NewSubscriptParser() parser.InlineParser {
	return &spanScanner{char: '~', newNode: func() ast.Node { return &Subscript{} }}
}

// strikethroughParser wraps goldmark's strikethrough parser. By default
// only "~~" delimits; with singleTilde a lone "~" does too.
type strikethroughParser struct {
	inner       parser.InlineParser
	singleTilde bool
}

func (s *strikethroughParser) Trigger() []byte {
	return []byte{'~'}
}

func (s *strikethroughParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	if !s.singleTilde {
		line, _ := block.PeekLine()
		run := 0
		for run < len(line) && line[run] == '~' {
			run++
		}
		if run != 2 {
			return nil
		}
	}
	return s.inner.Parse(parent, block, pc)
}
