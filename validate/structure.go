package validate

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
)

// voidElements never take a closing tag; prompt artifacts that embed HTML
// snippets should not be flagged for them.
var voidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"source": true, "track": true, "wbr": true,
}

// openTag tracks an unclosed structural block.
type openTag struct {
	name string
	line int
}

// checkStructure verifies that every opening structural block has a
// matching closing block. Prompt artifacts are XML-shaped but rarely
// strict XML, so this uses a lenient HTML tokenizer rather than an XML
// parser; tag names compare case-insensitively.
func checkStructure(text string) []Finding {
	var findings []Finding
	var stack []openTag

	z := html.NewTokenizer(strings.NewReader(text))
	line := 1

	for {
		tt := z.Next()
		if tt == html.ErrorToken {
			break
		}

		switch tt {
		case html.StartTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if !voidElements[tag] {
				stack = append(stack, openTag{name: tag, line: line})
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			tag := string(name)
			if len(stack) == 0 {
				findings = append(findings, Finding{
					Severity: SeverityHigh,
					Rule:     "balanced-blocks",
					Message:  fmt.Sprintf("closing tag </%s> has no matching opening tag", tag),
					Line:     line,
				})
				break
			}
			top := stack[len(stack)-1]
			if top.name != tag {
				findings = append(findings, Finding{
					Severity: SeverityHigh,
					Rule:     "balanced-blocks",
					Message:  fmt.Sprintf("closing tag </%s> does not match open block <%s> from line %d", tag, top.name, top.line),
					Line:     line,
				})
			}
			stack = stack[:len(stack)-1]
		}

		line += bytes.Count(z.Raw(), []byte("\n"))
	}

	for _, open := range stack {
		findings = append(findings, Finding{
			Severity: SeverityHigh,
			Rule:     "balanced-blocks",
			Message:  fmt.Sprintf("block <%s> is never closed", open.name),
			Line:     open.line,
		})
	}

	return findings
}
