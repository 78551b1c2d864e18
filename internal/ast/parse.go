// Copyright 2025 The Databind Authors
// This file is part of the databind library.
//
// The databind library is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// The databind library is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with the databind library. If not, see <http://www.gnu.org/licenses/>.

package ast

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// blockKeywords start a nested block that must be closed by a
// matching end.
var blockKeywords = []string{"func", "if", "while", "def"}

// Parser performs parsing of the token stream.
type Parser struct {
	in     <-chan token
	buffer []token
	file   string
	lines  []string
	nodes  []Node
	errors []*ParseError
}

// NewParser creates a parser for the given source text.
func NewParser(file string, content []byte, lexDebug bool) *Parser {
	return &Parser{
		in:    runLexer(content, lexDebug),
		file:  file,
		lines: strings.Split(string(content), "\n"),
	}
}

// next reads the next token from the lexer.
func (p *Parser) next() token {
	if len(p.buffer) > 0 {
		t := p.buffer[len(p.buffer)-1]
		p.buffer = p.buffer[:len(p.buffer)-1]
		return t
	}
	return <-p.in
}

// unread puts a token back into the queue for reading.
func (p *Parser) unread(t token) {
	p.buffer = append(p.buffer, t)
}

// drainLexer runs the lexer to completion.
func (p *Parser) drainLexer() {
	for p.next().typ != eof {
	}
}

// srcLine returns the source text of a line, for error reporting.
func (p *Parser) srcLine(lineno int) string {
	if lineno < 1 || lineno > len(p.lines) {
		return ""
	}
	return p.lines[lineno-1]
}

// throwError adds a new error to the error list. The parser is
// returned to the toplevel and will continue at the next line.
func (p *Parser) throwError(tok token, format string, args ...any) {
	p.throwErr(&ParseError{
		tok:     tok,
		file:    p.file,
		srcLine: p.srcLine(tok.line),
		err:     fmt.Errorf(format, args...),
	})
}

// throwMissingEnd reports an unterminated block, pointing at the
// token that opened it.
func (p *Parser) throwMissingEnd(open token) {
	p.throwErr(&ParseError{
		tok:        open,
		file:       p.file,
		srcLine:    p.srcLine(open.line),
		err:        fmt.Errorf("unterminated %q block", open.text),
		missingEnd: true,
	})
}

func (p *Parser) throwErr(err *ParseError) {
	p.errors = append(p.errors, err)
	// resync to start of next line
	for {
		switch tok := p.next(); tok.typ {
		case lineEnd, eof:
			panic(err)
		}
	}
}

// unexpected signals that an unexpected token occurred in the input.
func (p *Parser) unexpected(tok token) {
	p.throwError(tok, "unexpected %v %q", tok.typ, tok.text)
}

// Parse runs the parser, outputting the node list.
func (p *Parser) Parse() ([]Node, []*ParseError) {
	defer p.drainLexer()
	for {
		if p.parseOne() {
			return p.nodes, p.errors
		}
	}
}

func (p *Parser) parseOne() (done bool) {
	defer func() {
		err := recover()
		if _, ok := err.(*ParseError); !ok && err != nil {
			panic(err)
		}
	}()
	return p.parseToplevel()
}

func (p *Parser) parseToplevel() bool {
	for {
		tok := p.next()
		switch tok.typ {
		case eof:
			return true
		case lineStart, lineEnd:
			continue
		case word:
			if tok.text == "end" || tok.text == "else" {
				p.throwError(tok, "unexpected %q outside of a block", tok.text)
			}
		}
		p.unread(tok)
		p.nodes = append(p.nodes, p.parseStatement())
		return false
	}
}

// ------------- start parser functions -------------

// parseStatement reads a single statement, including any block body.
func (p *Parser) parseStatement() Node {
	tok := p.next()
	switch tok.typ {
	case rawLine:
		return &Passthrough{Text: tok.text}

	case macroIdent:
		return p.parseMacroCall(tok)

	case invalidToken:
		p.throwError(tok, "unterminated macro call")

	case word:
		switch tok.text {
		case "func":
			return p.parseFunc(tok)
		case "call":
			name := p.parseName(tok)
			p.endOfLine()
			return &CallFunction{Name: name}
		case "tag":
			name := p.parseName(tok)
			p.endOfLine()
			return &Tag{Name: name}
		case "var":
			return p.parseVar(tok)
		case "delvar", "delobj":
			name := p.parseName(tok)
			p.endOfLine()
			return &DeleteVar{Name: name}
		case "tvar":
			return p.parseTvar(tok)
		case "gvar":
			name := p.parseName(tok)
			p.endOfLine()
			return &GetVar{Name: name}
		case "obj":
			return p.parseObj(tok)
		case "sobj":
			return p.parseSobj(tok)
		case "if":
			return p.parseIf(tok)
		case "while":
			return p.parseWhile(tok)
		case "sbop":
			return p.parseSbop()
		case "def":
			return p.parseDef(tok)
		case "trustme":
			return p.parseTrustme(tok)
		}
		return p.parsePlainLine(tok)

	case assign, number:
		return p.parsePlainLine(tok)
	}

	p.unexpected(tok)
	return nil
}

// parseStatements parses a block body until the closing end. When
// inIf is set, an else at statement position also terminates the
// block and is reported through sawElse.
func (p *Parser) parseStatements(open token, inIf bool) (nodes []Node, sawElse bool) {
	for {
		tok := p.next()
		switch tok.typ {
		case eof:
			p.throwMissingEnd(open)
		case lineStart, lineEnd:
			continue
		case word:
			switch tok.text {
			case "end":
				p.endOfLine()
				return nodes, false
			case "else":
				if !inIf {
					p.throwError(tok, "unexpected %q outside of an if block", tok.text)
				}
				p.endOfLine()
				return nodes, true
			}
		}
		p.unread(tok)
		nodes = append(nodes, p.parseStatement())
	}
}

func (p *Parser) parseFunc(open token) *Function {
	name := p.parseName(open)
	p.endOfLine()
	body, _ := p.parseStatements(open, false)
	return &Function{Name: name, Body: body}
}

func (p *Parser) parseVar(head token) Node {
	name := p.parseName(head)
	_, op, initial := p.parseAssignOp()
	value := p.parseInt()
	p.endOfLine()
	if initial {
		return &NewVar{Name: name, Value: value}
	}
	return &SetVar{Name: name, Op: op, Value: value}
}

func (p *Parser) parseObj(head token) *NewObjective {
	name := p.parseName(head)
	kind := p.parseName(head)
	p.endOfLine()
	return &NewObjective{Name: name, Kind: kind}
}

func (p *Parser) parseSobj(head token) *SetObjective {
	target := p.parseName(head)
	name := p.parseName(head)
	opTok, op, initial := p.parseAssignOp()
	if initial {
		p.throwError(opTok, "`:=` invalid for objective")
	}
	value := p.parseInt()
	p.endOfLine()
	return &SetObjective{Target: target, Name: name, Op: op, Value: value}
}

func (p *Parser) parseTvar(head token) *TestVar {
	name := p.parseName(head)
	var test []string
	for _, tok := range p.restOfLine() {
		test = append(test, tok.text)
	}
	return &TestVar{Name: name, Test: strings.Join(test, " ")}
}

func (p *Parser) parseIf(open token) *IfStatement {
	cond := p.parseCondition(open)
	ifBlock, sawElse := p.parseStatements(open, true)
	var elseBlock []Node
	if sawElse {
		elseBlock, _ = p.parseStatements(open, false)
	}
	return &IfStatement{Condition: cond, IfBlock: ifBlock, ElseBlock: elseBlock}
}

func (p *Parser) parseWhile(open token) *WhileLoop {
	cond := p.parseCondition(open)
	body, _ := p.parseStatements(open, false)
	return &WhileLoop{Condition: cond, Body: body}
}

func (p *Parser) parseCondition(open token) []Node {
	cond := p.parseInlineArgs(p.restOfLine())
	if len(cond) == 0 {
		p.throwError(open, "missing condition after %q", open.text)
	}
	return cond
}

func (p *Parser) parseSbop() *MinecraftCommand {
	args := []Node{&CommandArg{Text: "players"}, &CommandArg{Text: "operation"}}
	args = append(args, p.parseInlineArgs(p.restOfLine())...)
	return &MinecraftCommand{Name: "scoreboard", Args: args}
}

func (p *Parser) parseTrustme(head token) *Passthrough {
	line := strings.TrimSpace(p.srcLine(head.line))
	text := strings.TrimSpace(strings.TrimPrefix(line, head.text))
	p.skipToLineEnd()
	return &Passthrough{Text: text}
}

var macroDefRE = regexp.MustCompile(`^def\s+([^\s(]+)\(([^)]*)\)\s*(.*)$`)

// parseDef parses a macro definition. The template is captured as raw
// source lines until the end that closes the definition; nested block
// openers inside the template are tracked so their end lines do not
// terminate it early.
func (p *Parser) parseDef(open token) *MacroDefinition {
	line := strings.TrimSpace(p.srcLine(open.line))
	m := macroDefRE.FindStringSubmatch(line)
	if m == nil {
		p.throwError(open, "malformed macro definition, expected def NAME(PARAMS)")
	}
	def := &MacroDefinition{Name: m[1]}
	for _, param := range strings.Split(m[2], ",") {
		if param = strings.TrimSpace(param); param != "" {
			def.Params = append(def.Params, param)
		}
	}

	var tmpl []string
	if m[3] != "" {
		tmpl = append(tmpl, m[3])
	}
	p.skipToLineEnd()

	depth := 0
	atHead := true
	for {
		tok := p.next()
		switch tok.typ {
		case eof:
			p.throwMissingEnd(open)
		case lineStart:
			atHead = true
			continue
		case lineEnd:
			continue
		}

		if atHead && tok.typ == word {
			switch {
			case tok.text == "end" && depth == 0:
				p.skipToLineEnd()
				def.Template = strings.Join(tmpl, "\n")
				return def
			case tok.text == "end":
				depth--
			case startsBlock(tok.text):
				depth++
			}
		}
		atHead = false
		tmpl = append(tmpl, strings.TrimRight(p.srcLine(tok.line), "\r"))
		p.skipToLineEnd()
	}
}

func startsBlock(text string) bool {
	for _, kw := range blockKeywords {
		if text == kw {
			return true
		}
	}
	return false
}

func (p *Parser) parseMacroCall(nameTok token) *MacroCall {
	call := &MacroCall{Name: nameTok.text}
	for {
		tok := p.next()
		if tok.typ == invalidToken {
			p.throwError(nameTok, "unterminated macro call")
		}
		if tok.typ != macroArg {
			p.unread(tok)
			break
		}
		call.Args = append(call.Args, p.unescapeArg(tok))
	}
	p.endOfLine()
	return call
}

// parsePlainLine handles a line that does not start with a keyword.
// Lines embedding gvar or tvar references become commands with inline
// arguments; everything else passes through verbatim.
func (p *Parser) parsePlainLine(head token) Node {
	rest := p.restOfLine()
	inline := false
	for _, tok := range rest {
		if tok.typ == word && (tok.text == "gvar" || tok.text == "tvar") {
			inline = true
			break
		}
	}
	if !inline {
		return &Passthrough{Text: strings.TrimSpace(p.srcLine(head.line))}
	}
	return &MinecraftCommand{Name: head.text, Args: p.parseInlineArgs(rest)}
}

// parseInlineArgs converts the words of a line remainder into command
// argument nodes, resolving embedded gvar and tvar references.
func (p *Parser) parseInlineArgs(toks []token) []Node {
	var args []Node
	for i := 0; i < len(toks); i++ {
		tok := toks[i]
		if tok.typ == word && (tok.text == "gvar" || tok.text == "tvar") {
			if i+1 >= len(toks) {
				p.throwError(tok, "expected variable name after %q", tok.text)
			}
			i++
			if tok.text == "gvar" {
				args = append(args, &GetVar{Name: toks[i].text})
			} else {
				args = append(args, &TestVar{Name: toks[i].text})
			}
			continue
		}
		args = append(args, &CommandArg{Text: tok.text})
	}
	return args
}

// ------------- token-level helpers -------------

// parseName reads a name operand of a statement.
func (p *Parser) parseName(head token) string {
	tok := p.next()
	if !tok.is(word, number, assign) {
		p.throwError(head, "expected name after %q", head.text)
	}
	return tok.text
}

// parseAssignOp reads an assignment operator. The initial return is
// true for the := form.
func (p *Parser) parseAssignOp() (tok token, op AssignOp, initial bool) {
	tok = p.next()
	if tok.typ != assign {
		p.throwError(tok, "invalid assignment operator %q", tok.text)
	}
	switch tok.text {
	case ":=":
		return tok, OpSet, true
	case "=":
		return tok, OpSet, false
	case "+=":
		return tok, OpAdd, false
	case "-=":
		return tok, OpSubtract, false
	default:
		panic("BUG: lexer emitted unknown assignment operator " + tok.text)
	}
}

// parseInt reads an integer operand.
func (p *Parser) parseInt() int {
	tok := p.next()
	if tok.typ != number {
		p.throwError(tok, "variables can only store integers, got %q", tok.text)
	}
	v, err := strconv.Atoi(tok.text)
	if err != nil {
		p.throwError(tok, "invalid integer literal: %v", err)
	}
	return v
}

// restOfLine reads all remaining tokens of the current line.
func (p *Parser) restOfLine() []token {
	var toks []token
	for {
		tok := p.next()
		switch tok.typ {
		case lineEnd, eof:
			p.unread(tok)
			return toks
		}
		toks = append(toks, tok)
	}
}

// skipToLineEnd discards tokens until the end of the current line.
func (p *Parser) skipToLineEnd() {
	for {
		switch tok := p.next(); tok.typ {
		case lineEnd:
			return
		case eof:
			p.unread(tok)
			return
		}
	}
}

// endOfLine asserts that the current statement's line is finished.
func (p *Parser) endOfLine() {
	tok := p.next()
	switch tok.typ {
	case lineEnd:
	case eof:
		p.unread(tok)
	default:
		p.throwError(tok, "unexpected %q after statement", tok.text)
	}
}

// unescapeArg resolves backslash escapes in a macro call argument.
func (p *Parser) unescapeArg(tok token) string {
	s := tok.text
	if !strings.Contains(s, `\`) {
		return s
	}
	var result strings.Builder
	result.Grow(len(s))
	runes := []rune(s)
	for i := 0; i < len(runes); i++ {
		if r := runes[i]; r != '\\' {
			result.WriteRune(r)
			continue
		}
		if i+1 >= len(runes) {
			p.throwError(tok, "incomplete escape sequence at end of macro argument")
		}
		switch next := runes[i+1]; next {
		case '\\', '/', '"':
			result.WriteRune(next)
		case 'n':
			result.WriteRune('\n')
		case 'r':
			result.WriteRune('\r')
		case 't':
			result.WriteRune('\t')
		default:
			p.throwError(tok, "invalid escape sequence \\%c in macro argument", next)
		}
		i++
	}
	return result.String()
}
