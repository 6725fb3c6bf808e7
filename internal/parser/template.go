package parser

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/studiowebux/jobbench/internal/types"
)

var (
	// Placeholder token: <name:Kind>
	tokenPattern = regexp.MustCompile(`<([A-Za-z_][A-Za-z0-9_]*):([A-Za-z][A-Za-z0-9]*)>`)

	identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// Kind is a placeholder generator
type Kind string

const (
	KindSeqNum Kind = "SeqNum"
	KindUUID   Kind = "UUID"
)

// Token is one parsed placeholder
type Token struct {
	Name string
	Kind Kind
}

func (t Token) String() string {
	return "<" + t.Name + ":" + string(t.Kind) + ">"
}

// part is either literal text or a token
type part struct {
	literal string
	token   *Token
}

// text is a compiled string field
type text []part

func (tx text) isLiteral() bool {
	return len(tx) == 0 || (len(tx) == 1 && tx[0].token == nil)
}

// node is a compiled body tree element
type node interface{}

type (
	stringNode  struct{ text text }
	literalNode struct{ value any }
	listNode    []node
	mapEntry    struct {
		key   text
		value node
	}
	mapNode []mapEntry
)

// Template is a Job compiled for repeated materialization. It is read-only
// after Compile and safe for concurrent use.
type Template struct {
	job       *types.Job
	url       text
	headers   []headerEntry
	body      node
	tokens    []Token
	namespace uuid.UUID
}

type headerEntry struct {
	name  string
	value text
	err   error
}

// Compile scans every string of the job for placeholder tokens and validates
// them. Unknown kinds are rejected here rather than left unexpanded.
func Compile(job *types.Job) (*Template, error) {
	c := &compiler{seen: make(map[Token]bool)}

	t := &Template{
		job:       job,
		namespace: uuid.NewSHA1(uuid.NameSpaceURL, []byte(job.URL)),
	}

	var err error
	if t.url, err = c.compileText(job.URL); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("url: %w", err)}
	}

	names := make([]string, 0, len(job.Headers))
	for name := range job.Headers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		entry := headerEntry{name: name}
		switch v := job.Headers[name].(type) {
		case string:
			if entry.value, err = c.compileText(v); err != nil {
				return nil, &ConfigError{Err: fmt.Errorf("header %s: %w", name, err)}
			}
		default:
			// Reported per request by Materialize
			entry.err = fmt.Errorf("%w: header %s has non-string value %v (%T)", ErrMaterialize, name, v, v)
		}
		t.headers = append(t.headers, entry)
	}

	if t.body, err = c.compileNode(job.Body); err != nil {
		return nil, &ConfigError{Err: fmt.Errorf("body: %w", err)}
	}

	for tok := range c.seen {
		t.tokens = append(t.tokens, tok)
	}
	sort.Slice(t.tokens, func(i, j int) bool {
		return t.tokens[i].String() < t.tokens[j].String()
	})
	return t, nil
}

// Tokens returns the distinct placeholders found in the job
func (t *Template) Tokens() []Token {
	return t.tokens
}

type compiler struct {
	seen map[Token]bool
}

func (c *compiler) compileText(s string) (text, error) {
	matches := tokenPattern.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return text{{literal: s}}, nil
	}

	var out text
	last := 0
	for _, m := range matches {
		if m[0] > last {
			out = append(out, part{literal: s[last:m[0]]})
		}
		tok := Token{Name: s[m[2]:m[3]], Kind: Kind(s[m[4]:m[5]])}
		switch tok.Kind {
		case KindSeqNum, KindUUID:
		default:
			return nil, fmt.Errorf("unknown placeholder kind %q in %s", tok.Kind, tok)
		}
		c.seen[tok] = true
		out = append(out, part{token: &tok})
		last = m[1]
	}
	if last < len(s) {
		out = append(out, part{literal: s[last:]})
	}
	return out, nil
}

func (c *compiler) compileNode(v any) (node, error) {
	switch val := v.(type) {
	case string:
		tx, err := c.compileText(val)
		if err != nil {
			return nil, err
		}
		return stringNode{text: tx}, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		out := make(mapNode, 0, len(keys))
		for _, k := range keys {
			kt, err := c.compileText(k)
			if err != nil {
				return nil, err
			}
			child, err := c.compileNode(val[k])
			if err != nil {
				return nil, fmt.Errorf("%s: %w", k, err)
			}
			out = append(out, mapEntry{key: kt, value: child})
		}
		return out, nil
	case []map[string]any:
		// TOML arrays of tables
		out := make(listNode, 0, len(val))
		for i, item := range val {
			child, err := c.compileNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, child)
		}
		return out, nil
	case []any:
		out := make(listNode, 0, len(val))
		for i, item := range val {
			child, err := c.compileNode(item)
			if err != nil {
				return nil, fmt.Errorf("[%d]: %w", i, err)
			}
			out = append(out, child)
		}
		return out, nil
	case nil, bool, int, int64, uint64, float64, json.Number:
		return literalNode{value: val}, nil
	default:
		// Anything else must at least survive JSON encoding
		if _, err := json.Marshal(val); err != nil {
			return nil, fmt.Errorf("unsupported body value %T: %w", val, err)
		}
		return literalNode{value: val}, nil
	}
}

// Materialize builds the request for index. It is a pure function of the
// template and index: it performs no I/O and never mutates the job.
func (t *Template) Materialize(index uint64) (*types.Request, error) {
	req := &types.Request{
		Index:   index,
		Method:  t.job.Method.OrDefault(),
		URL:     t.render(t.url, index),
		Headers: make(map[string]string, len(t.headers)),
	}

	for _, h := range t.headers {
		if h.err != nil {
			return nil, fmt.Errorf("index %d: %w", index, h.err)
		}
		req.Headers[h.name] = t.render(h.value, index)
	}

	body, err := t.build(t.body, index)
	if err != nil {
		return nil, fmt.Errorf("index %d: %w", index, err)
	}
	req.Body = body
	return req, nil
}

// Materialize compiles job and builds the request for index
func Materialize(job *types.Job, index uint64) (*types.Request, error) {
	t, err := Compile(job)
	if err != nil {
		return nil, err
	}
	return t.Materialize(index)
}

func (t *Template) build(n node, index uint64) (any, error) {
	switch nd := n.(type) {
	case nil:
		return nil, nil
	case stringNode:
		return t.render(nd.text, index), nil
	case literalNode:
		return nd.value, nil
	case listNode:
		out := make([]any, len(nd))
		for i, child := range nd {
			v, err := t.build(child, index)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	case mapNode:
		out := make(map[string]any, len(nd))
		for _, e := range nd {
			key := t.render(e.key, index)
			if _, dup := out[key]; dup {
				return nil, fmt.Errorf("%w: body key %q produced twice", ErrMaterialize, key)
			}
			v, err := t.build(e.value, index)
			if err != nil {
				return nil, err
			}
			out[key] = v
		}
		return out, nil
	}
	return nil, nil
}

func (t *Template) render(tx text, index uint64) string {
	if tx.isLiteral() {
		if len(tx) == 0 {
			return ""
		}
		return tx[0].literal
	}

	var sb strings.Builder
	for _, p := range tx {
		if p.token == nil {
			sb.WriteString(p.literal)
			continue
		}
		sb.WriteString(t.expand(*p.token, index))
	}
	return sb.String()
}

// expand returns the value of tok at index. Every occurrence of the same
// token within one request receives the same value.
func (t *Template) expand(tok Token, index uint64) string {
	switch tok.Kind {
	case KindSeqNum:
		return strconv.FormatUint(t.SeqNum(tok.Name, index), 10)
	case KindUUID:
		return uuid.NewSHA1(t.namespace, []byte(tok.Name+"/"+strconv.FormatUint(index, 10))).String()
	}
	return tok.String()
}

// SeqNum computes base + step*index for the named parameter
func (t *Template) SeqNum(name string, index uint64) uint64 {
	base, step := t.job.InitSeqNum, uint64(1)
	if p, ok := t.job.Params[name]; ok {
		if p.InitSeqNum != nil {
			base = *p.InitSeqNum
		}
		if p.Step != nil {
			step = *p.Step
		}
	}
	return base + step*index
}
