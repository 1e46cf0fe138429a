package pubtator

import (
	"text2phenotype.com/bioner/pubannotation"
	"bufio"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"
)

// Document is one block of a PubTator stream. This service tags plain text,
// so the title line stays empty and the abstract line carries the whole text.
type Document struct {
	PMID  string
	Title string
	Text  string
}

// scanner line limit; raw documents arrive as a single line
const maxLineBytes = 16 * 1024 * 1024

// BaseName derives a document id from the text and the current time. The
// time suffix keeps concurrent requests over identical texts from colliding.
func BaseName(text string) string {
	stamp := strconv.FormatInt(time.Now().UnixNano(), 10)
	sum := sha256.Sum224([]byte(text + stamp))
	return hex.EncodeToString(sum[:])
}

// Write emits documents as PubTator blocks:
//
//	pmid|t|title
//	pmid|a|text
//
// separated by blank lines.
func Write(w io.Writer, docs []Document) error {
	for _, doc := range docs {
		if _, err := fmt.Fprintf(w, "%s|t|%s\n", doc.PMID, doc.Title); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%s|a|%s\n\n", doc.PMID, doc.Text); err != nil {
			return err
		}
	}
	return nil
}

// Read parses a PubTator stream back into documents. Annotation rows (tab
// separated) are skipped; only the title and abstract lines matter here.
func Read(r io.Reader) ([]Document, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var docs []Document
	var current *Document
	flush := func() {
		if current != nil {
			docs = append(docs, *current)
			current = nil
		}
	}

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			flush()
			continue
		}
		if strings.Contains(line, "\t") {
			continue
		}
		parts := strings.SplitN(line, "|", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("malformed pubtator line %q", line)
		}
		pmid, field, content := parts[0], parts[1], parts[2]
		if current == nil {
			current = &Document{PMID: pmid}
		} else if current.PMID != pmid {
			return nil, fmt.Errorf("pmid changed inside a block: %q then %q", current.PMID, pmid)
		}
		switch field {
		case "t":
			current.Title = content
		case "a":
			current.Text = content
		default:
			return nil, fmt.Errorf("unknown pubtator field %q", field)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return docs, nil
}

// WriteAnnotated emits an annotated document as a PubTator block with one
// tab separated annotation row per mention, in the document's annotation
// order, between the abstract line and the closing blank line.
func WriteAnnotated(w io.Writer, doc pubannotation.Document) error {
	if _, err := fmt.Fprintf(w, "%s|t|\n%s|a|%s\n", doc.PMID, doc.PMID, doc.Text); err != nil {
		return err
	}
	for _, ann := range doc.Annotations {
		_, err := fmt.Fprintf(w, "%s\t%d\t%d\t%s\t%s\t%s\n",
			doc.PMID, ann.Span.Begin, ann.Span.End, ann.Mention,
			ann.Obj, strings.Join(ann.ID, ","))
		if err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w)
	return err
}
