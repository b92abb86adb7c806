package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/teilomillet/codeshift/config"
	"github.com/teilomillet/codeshift/conversation"
	"github.com/teilomillet/codeshift/conversion"
)

const rule = "--------------------------------------------------"

// maxLineSize bounds a single line of terminal input.
const maxLineSize = 1 << 20

func newScanner(in io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return scanner
}

// runChat reads one message per line and prints each reply. Blank lines
// are skipped, "quit" or end of input stops the loop, and failed exchanges
// are reported without ending the session.
func runChat(ctx context.Context, in io.Reader, out io.Writer, client *conversation.Client) error {
	fmt.Fprintln(out, "AI Assistant")
	fmt.Fprintln(out, "Type 'quit' to exit.")
	fmt.Fprintln(out, rule)

	scanner := newScanner(in)
	for {
		fmt.Fprint(out, "\nYou > ")
		if !scanner.Scan() {
			break
		}
		message := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(message, "quit") {
			break
		}
		if message == "" {
			continue
		}

		reply, err := client.Exchange(ctx, message)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "\nError: %v\n", err)
			continue
		}
		fmt.Fprintf(out, "\nAssistant: %s\n", reply)
	}

	fmt.Fprintln(out, "\nGoodbye!")
	return scanner.Err()
}

// runConvert collects source lines until a line reading END, converts them
// and prints the raw reply followed by its sections. "quit" on its own
// line or end of input stops the loop.
func runConvert(ctx context.Context, in io.Reader, out io.Writer, converter *conversion.Converter, langs config.ConverterConfig) error {
	fmt.Fprintf(out, "%s to %s Converter\n", langs.SourceLanguage, langs.TargetLanguage)
	fmt.Fprintln(out, "Type 'quit' to exit.")
	fmt.Fprintln(out, "For multi-line input, type 'END' on a new line to finish.")
	fmt.Fprintln(out, rule)

	scanner := newScanner(in)

	for {
		fmt.Fprintf(out, "\nEnter %s code (type 'END' on a new line to finish):\n", langs.SourceLanguage)

		var lines []string
		for {
			if !scanner.Scan() {
				fmt.Fprintln(out, "\nGoodbye!")
				return scanner.Err()
			}
			line := scanner.Text()
			trimmed := strings.TrimSpace(line)
			if strings.EqualFold(trimmed, "END") {
				break
			}
			if strings.EqualFold(trimmed, "quit") {
				fmt.Fprintln(out, "\nGoodbye!")
				return nil
			}
			lines = append(lines, line)
		}

		source := strings.TrimSpace(strings.Join(lines, "\n"))
		if source == "" {
			continue
		}

		raw, err := converter.Convert(ctx, source)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Fprintf(out, "\nError: %v\n", err)
			continue
		}

		fmt.Fprintf(out, "\n%s Code: %s\n", langs.TargetLanguage, raw)
		printSections(out, converter.Decompose(raw))
	}
}

func printSections(out io.Writer, d conversion.Decomposed) {
	for _, section := range []struct {
		title string
		body  string
	}{
		{"Logic", d.Logic},
		{"Unit Tests", d.UnitTests},
		{"Converted Code", d.ConvertedCode},
	} {
		if section.body == "" {
			continue
		}
		fmt.Fprintf(out, "\n== %s ==\n%s\n", section.title, section.body)
	}
}
