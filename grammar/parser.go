package grammar

import (
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var asmParser = participle.MustBuild[Program](
	participle.Lexer(AsmLexer),
	participle.Elide("Whitespace", "Comment"),
	participle.Unquote("String"),
	participle.UseLookahead(2),
)

// ParseFile reads and parses an assembly file
func ParseFile(path string) (*Program, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(path, string(source))
}

// Parse parses assembly text. The last instruction does not need a trailing
// newline.
func Parse(filename, source string) (*Program, error) {
	if !strings.HasSuffix(source, "\n") {
		source += "\n"
	}
	return asmParser.ParseString(filename, source)
}

// ErrorPosition extracts the position and message of a parse error. ok is
// false for errors that did not come from the lexer or parser.
func ErrorPosition(err error) (pos lexer.Position, message string, ok bool) {
	pe, ok := err.(participle.Error)
	if !ok {
		return lexer.Position{}, err.Error(), false
	}
	return pe.Position(), pe.Message(), true
}
