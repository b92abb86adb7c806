package conversion

import (
	"bytes"
	"fmt"
	"text/template"
)

// DefaultSystemPromptTemplate instructs the model to explain, test and
// convert, and to answer with the headings understood by Decompose.
const DefaultSystemPromptTemplate = "You are a helpful code conversion agent. " +
	"You will convert code written in the {{.Source}} programming language into {{.Target}}. " +
	"You will first describe the logic within the {{.Source}} code. " +
	"You will then convert the code into {{.Target}}, while maintaining the overall structure as much as possible. " +
	"You will then write unit tests by reverse-engineering the {{.Target}} code. " +
	"You will return the response in the following format:\n" +
	"# Logic\n<logic within the original {{.Source}} code>\n" +
	"# Unit Test\n<unit tests written in {{.Target}} based on the extracted logic>\n" +
	"# {{.Target}} Code\n<resulting {{.Target}} code>"

// DefaultDirectiveTemplate is prepended to every submitted source text.
const DefaultDirectiveTemplate = "Convert the following {{.Source}} code into {{.Target}}\n"

// Languages names the two sides of a conversion.
type Languages struct {
	Source string
	Target string
}

// render executes tmpl against langs. Templates are parsed once per
// converter so a malformed template fails at construction.
func render(name, tmpl string, langs Languages) (string, error) {
	t, err := template.New(name).Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse template %s: %w", name, err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, langs); err != nil {
		return "", fmt.Errorf("template execution failed: %w", err)
	}
	return buf.String(), nil
}
