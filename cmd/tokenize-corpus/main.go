// Command tokenize-corpus reads the text column of a Parquet corpus file and
// runs it through a tokenizer's concurrent batch-encode path, reporting
// throughput and how much of the batch's token budget went to padding. It
// exists to exercise the concurrent batch contract (spec §4.7/§4.9, §5)
// against a realistic corpus rather than a trainer, which stays out of
// scope (spec §1).
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/pkg/errors"

	"github.com/tokenpipe/subword/tokenizer"
	"github.com/tokenpipe/subword/tokenizers/api"
	"github.com/tokenpipe/subword/tokenizers/hftokenizer"
)

// row is the Parquet record shape this tool understands: a single "text"
// column.
type row struct {
	Text string `parquet:"text"`
}

func main() {
	vocab := flag.String("vocab", "", "path to tokenizer.json")
	corpus := flag.String("corpus", "", "path to the Parquet corpus file")
	batchSize := flag.Int("batch", 256, "rows per encode_batch call")
	maxRows := flag.Int("max-rows", 0, "stop after this many rows (0 = whole file)")
	addSpecial := flag.Bool("special", true, "add special tokens via the post-processor")
	flag.Parse()

	if err := run(*vocab, *corpus, *batchSize, *maxRows, *addSpecial); err != nil {
		fmt.Fprintln(os.Stderr, "tokenize-corpus:", err)
		os.Exit(1)
	}
}

func run(vocabPath, corpusPath string, batchSize, maxRows int, addSpecial bool) error {
	if vocabPath == "" || corpusPath == "" {
		return errors.New("-vocab and -corpus are required")
	}

	tok, err := hftokenizer.NewFromFile(&api.Config{}, vocabPath)
	if err != nil {
		return errors.Wrapf(err, "loading %q", vocabPath)
	}

	f, err := os.Open(corpusPath)
	if err != nil {
		return errors.Wrapf(err, "opening %q", corpusPath)
	}
	defer f.Close()

	reader := parquet.NewGenericReader[row](f)
	defer reader.Close()

	var (
		totalRows     int
		totalTokens   int
		totalPadded   int
		encodeElapsed time.Duration
	)

	buf := make([]row, batchSize)
	for {
		if maxRows > 0 && totalRows >= maxRows {
			break
		}
		n, readErr := reader.Read(buf)
		if n > 0 {
			batch := buf[:n]
			if maxRows > 0 && totalRows+n > maxRows {
				batch = batch[:maxRows-totalRows]
			}
			inputs := make([]tokenizer.EncodeInput, len(batch))
			for i, r := range batch {
				inputs[i] = tokenizer.EncodeInput{First: r.Text}
			}

			start := time.Now()
			encodings, err := tok.Pipeline().EncodeBatch(inputs, addSpecial)
			encodeElapsed += time.Since(start)
			if err != nil {
				return errors.Wrap(err, "encode_batch")
			}

			for _, e := range encodings {
				totalTokens += e.Len()
				for _, m := range e.AttentionMask {
					if m == 0 {
						totalPadded++
					}
				}
			}
			totalRows += len(batch)
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errors.Wrap(readErr, "reading corpus rows")
		}
	}

	if totalRows == 0 {
		fmt.Println("no rows read")
		return nil
	}

	tokensPerSec := float64(totalTokens) / encodeElapsed.Seconds()
	paddingWaste := 0.0
	if totalTokens > 0 {
		paddingWaste = float64(totalPadded) / float64(totalTokens) * 100
	}

	fmt.Printf("rows:           %d\n", totalRows)
	fmt.Printf("tokens:         %d\n", totalTokens)
	fmt.Printf("encode time:    %s\n", encodeElapsed)
	fmt.Printf("throughput:     %.0f tokens/sec\n", tokensPerSec)
	fmt.Printf("padding waste:  %.2f%%\n", paddingWaste)
	return nil
}
