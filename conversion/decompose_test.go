package conversion

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecompose(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Decomposed
	}{
		{
			name: "all three sections",
			raw:  "# Logic\nA\n# Unit Test\nB\n# Python Code\nC",
			want: Decomposed{Logic: "A", UnitTests: "B", ConvertedCode: "C"},
		},
		{
			name: "missing sections",
			raw:  "# Logic\nA",
			want: Decomposed{Logic: "A"},
		},
		{
			name: "no headings",
			raw:  "Sure, here is some code:\nprint('hi')\n",
			want: Decomposed{},
		},
		{
			name: "empty input",
			raw:  "",
			want: Decomposed{},
		},
		{
			name: "duplicate heading last wins",
			raw:  "# Logic\nA\n# Logic\nB",
			want: Decomposed{Logic: "B"},
		},
		{
			name: "text before first heading is dropped",
			raw:  "Here is the conversion.\n\n# Logic\nA\n# Python Code\nC\n",
			want: Decomposed{Logic: "A", ConvertedCode: "C"},
		},
		{
			name: "whitespace is trimmed",
			raw:  "# Logic\n\n   A   \n\n# Unit Test\n\tB\n# Python Code\n\nC\n\n",
			want: Decomposed{Logic: "A", UnitTests: "B", ConvertedCode: "C"},
		},
		{
			name: "sections in any order",
			raw:  "# Python Code\nC\n# Logic\nA\n# Unit Test\nB",
			want: Decomposed{Logic: "A", UnitTests: "B", ConvertedCode: "C"},
		},
		{
			name: "deeper heading levels, case and trailing colon",
			raw:  "## logic:\nA\n### UNIT TESTS\nB\n## Python code:\nC",
			want: Decomposed{Logic: "A", UnitTests: "B", ConvertedCode: "C"},
		},
		{
			name: "comments inside code stay in the section",
			raw:  "# Python Code\n# Greet the user\nprint(\"Hello\")\n#no space\n",
			want: Decomposed{ConvertedCode: "# Greet the user\nprint(\"Hello\")\n#no space"},
		},
		{
			name: "heading name must match exactly",
			raw:  "# Logic\nA\n# Logical overview\nstill logic",
			want: Decomposed{Logic: "A\n# Logical overview\nstill logic"},
		},
		{
			name: "text after the name opens the section",
			raw:  "# Logic\nA\n# Unit Tests\nB\n# Python Code (Python 3)\nC",
			want: Decomposed{Logic: "A", UnitTests: "B", ConvertedCode: "(Python 3)\nC"},
		},
		{
			name: "text after a colon on the heading line",
			raw:  "# Logic: the procedure prints Hello\nthen returns\n# Python Code\nprint(\"Hello\")",
			want: Decomposed{Logic: "the procedure prints Hello\nthen returns", ConvertedCode: "print(\"Hello\")"},
		},
		{
			name: "longest name wins",
			raw:  "# Unit Tests for Hello\nB",
			want: Decomposed{UnitTests: "for Hello\nB"},
		},
		{
			name: "name followed by punctuation",
			raw:  "# Python Code, ready to run\nC",
			want: Decomposed{ConvertedCode: ", ready to run\nC"},
		},
		{
			name: "windows line endings",
			raw:  "# Logic\r\nA\r\n# Python Code\r\nC\r\n",
			want: Decomposed{Logic: "A", ConvertedCode: "C"},
		},
		{
			name: "multi-line sections",
			raw:  "# Unit Test\nimport unittest\n\nclass T(unittest.TestCase):\n    pass\n# Python Code\ndef f():\n    return 1\n",
			want: Decomposed{
				UnitTests:     "import unittest\n\nclass T(unittest.TestCase):\n    pass",
				ConvertedCode: "def f():\n    return 1",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Decompose(tt.raw))
		})
	}
}

func TestConventionForOtherTarget(t *testing.T) {
	c := NewConvention("Go")

	got := c.Decompose("# Logic\nA\n# Unit Test\nB\n# Go Code\nC\n# Python Code\nD")

	// "Python Code" is not a heading for a Go conversion
	assert.Equal(t, Decomposed{Logic: "A", UnitTests: "B", ConvertedCode: "C\n# Python Code\nD"}, got)
}
