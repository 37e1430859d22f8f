package instr

// Builder accumulates a program. It tracks the open element stack so
// emitters can close what they opened without repeating tag names.
//
// Builder does not validate as it goes; call Validate on the result when
// the emitter is untrusted.
type Builder struct {
	ops   []Op
	stack []string
}

// NewBuilder creates an empty builder.
func NewBuilder() *Builder {
	return &Builder{ops: make([]Op, 0, 64)}
}

// Open opens an element. attrs are key/value pairs; a trailing odd key is
// ignored.
func (b *Builder) Open(tag string, attrs ...string) *Builder {
	b.ops = append(b.ops, Op{Kind: OpOpen, Name: tag})
	b.stack = append(b.stack, tag)
	for i := 0; i+1 < len(attrs); i += 2 {
		b.Attr(attrs[i], attrs[i+1])
	}
	return b
}

// Attr sets an attribute on the element just opened.
func (b *Builder) Attr(key, value string) *Builder {
	b.ops = append(b.ops, Op{Kind: OpAttr, Name: key, Value: value})
	return b
}

// Key assigns a diffing key to the element just opened.
func (b *Builder) Key(key string) *Builder {
	b.ops = append(b.ops, Op{Kind: OpKey, Value: key})
	return b
}

// Skip marks the children of the current element as externally managed.
func (b *Builder) Skip() *Builder {
	b.ops = append(b.ops, Op{Kind: OpSkip})
	return b
}

// Text appends unescaped text. Adjacent text ops are merged.
func (b *Builder) Text(s string) *Builder {
	if s == "" {
		return b
	}
	if n := len(b.ops); n > 0 && b.ops[n-1].Kind == OpText {
		b.ops[n-1].Value += s
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpText, Value: s})
	return b
}

// Raw appends pre-escaped markup. Adjacent raw ops are merged.
func (b *Builder) Raw(s string) *Builder {
	if s == "" {
		return b
	}
	if n := len(b.ops); n > 0 && b.ops[n-1].Kind == OpRaw {
		b.ops[n-1].Value += s
		return b
	}
	b.ops = append(b.ops, Op{Kind: OpRaw, Value: s})
	return b
}

// Close closes the innermost open element. Closing with nothing open is a
// no-op.
func (b *Builder) Close() *Builder {
	n := len(b.stack)
	if n == 0 {
		return b
	}
	tag := b.stack[n-1]
	b.stack = b.stack[:n-1]
	b.ops = append(b.ops, Op{Kind: OpClose, Name: tag})
	return b
}

// Void opens and immediately closes an element, e.g. br or img.
func (b *Builder) Void(tag string, attrs ...string) *Builder {
	return b.Open(tag, attrs...).Close()
}

// Depth returns the number of currently open elements.
func (b *Builder) Depth() int {
	return len(b.stack)
}

// Current returns the tag of the innermost open element, or "".
func (b *Builder) Current() string {
	if len(b.stack) == 0 {
		return ""
	}
	return b.stack[len(b.stack)-1]
}

// Len returns the number of ops emitted so far.
func (b *Builder) Len() int {
	return len(b.ops)
}

// Program closes any elements left open and returns the program.
// The builder must not be used afterwards.
func (b *Builder) Program() Program {
	for len(b.stack) > 0 {
		b.Close()
	}
	return Program(b.ops)
}
