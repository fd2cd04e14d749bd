// Command toktool is a small CLI front end for a tokenizer.json pipeline:
// "toktool encode" prints the token ids (and, with -offsets, the surface
// tokens and their original-text character ranges) for one line of input;
// "toktool decode" inverts a comma-separated id list back to text.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/clipperhouse/displaywidth"
	"github.com/pkg/errors"

	"github.com/tokenpipe/subword/tokenizer"
	"github.com/tokenpipe/subword/tokenizers/api"
	"github.com/tokenpipe/subword/tokenizers/hftokenizer"
)

var (
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Bold(true)
	tokenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	var err error
	switch cmd {
	case "encode":
		err = runEncode(args)
	case "decode":
		err = runDecode(args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "toktool:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage:
  toktool encode -vocab tokenizer.json [-special] [-offsets] [text ...]
  toktool decode -vocab tokenizer.json [-keep-special] <id,id,...>

If no text/ids are given on the command line, reads one input per line
from stdin.`)
}

func loadTokenizer(vocabPath string) (*hftokenizer.Tokenizer, error) {
	if vocabPath == "" {
		return nil, errors.New("-vocab is required")
	}
	t, err := hftokenizer.NewFromFile(&api.Config{}, vocabPath)
	if err != nil {
		return nil, errors.Wrapf(err, "loading %q", vocabPath)
	}
	return t, nil
}

func runEncode(args []string) error {
	fs := flag.NewFlagSet("encode", flag.ExitOnError)
	vocab := fs.String("vocab", "", "path to tokenizer.json")
	special := fs.Bool("special", false, "add special tokens via the post-processor")
	offsets := fs.Bool("offsets", false, "print tokens and their original-text offsets")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := loadTokenizer(*vocab)
	if err != nil {
		return err
	}

	lines := fs.Args()
	if len(lines) == 0 {
		lines, err = readStdinLines()
		if err != nil {
			return err
		}
	}

	for _, line := range lines {
		enc, err := t.Pipeline().Encode(tokenizer.EncodeInput{First: line}, *special)
		if err != nil {
			return errors.Wrapf(err, "encoding %q", line)
		}
		if *offsets {
			printWithOffsets(line, enc)
			continue
		}
		ids := make([]string, len(enc.IDs))
		for i, id := range enc.IDs {
			ids[i] = idStyle.Render(strconv.FormatUint(uint64(id), 10))
		}
		fmt.Println(strings.Join(ids, " "))
	}
	return nil
}

// printWithOffsets prints one row per token: id, surface token, and the
// original-text offset/snippet. Tokens are right-padded to the widest
// token's on-screen width (via displaywidth, which accounts for wide
// CJK/emoji glyphs the naive rune count would undercount) so the offset
// column lines up even when tokens mix narrow and wide characters.
func printWithOffsets(input string, enc *tokenizer.Encoding) {
	runes := []rune(input)

	tokenWidth := 0
	for _, tok := range enc.Tokens {
		if w := displaywidth.String(tok); w > tokenWidth {
			tokenWidth = w
		}
	}

	for i := range enc.IDs {
		off := enc.Offsets[i]
		begin, end := off.Begin, off.End
		if begin < 0 {
			begin = 0
		}
		if end > len(runes) {
			end = len(runes)
		}
		surface := ""
		if begin <= end && begin <= len(runes) {
			surface = string(runes[begin:end])
		}

		tok := enc.Tokens[i]
		pad := tokenWidth - displaywidth.String(tok)
		if pad < 0 {
			pad = 0
		}
		fmt.Printf("%s\t%s%s\t%s\n",
			idStyle.Render(strconv.FormatUint(uint64(enc.IDs[i]), 10)),
			tokenStyle.Render(tok), strings.Repeat(" ", pad),
			dimStyle.Render(fmt.Sprintf("(%d,%d) %q", off.Begin, off.End, surface)))
	}
}

func runDecode(args []string) error {
	fs := flag.NewFlagSet("decode", flag.ExitOnError)
	vocab := fs.String("vocab", "", "path to tokenizer.json")
	keepSpecial := fs.Bool("keep-special", false, "do not skip special tokens while decoding")
	if err := fs.Parse(args); err != nil {
		return err
	}

	t, err := loadTokenizer(*vocab)
	if err != nil {
		return err
	}

	lines := fs.Args()
	if len(lines) == 0 {
		lines, err = readStdinLines()
		if err != nil {
			return err
		}
	}

	for _, line := range lines {
		ids, err := parseIDs(line)
		if err != nil {
			return err
		}
		uids := make([]uint32, len(ids))
		for i, id := range ids {
			uids[i] = uint32(id)
		}
		text, err := t.Pipeline().Decode(uids, !*keepSpecial)
		if err != nil {
			return errors.Wrapf(err, "decoding %q", line)
		}
		fmt.Println(text)
	}
	return nil
}

func parseIDs(s string) ([]int, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool { return r == ',' || r == ' ' })
	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		id, err := strconv.Atoi(f)
		if err != nil {
			return nil, errors.Wrapf(err, "parsing token id %q", f)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func readStdinLines() ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(os.Stdin)
	sc.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for sc.Scan() {
		lines = append(lines, sc.Text())
	}
	return lines, sc.Err()
}
