package split

import (
	"bytes"
	"errors"
	"regexp"
	"strings"

	"bpextract/internal/domain"
	"bpextract/internal/xmltree"
)

// optionalPrefix matches a namespace prefix and its colon, if present.
const optionalPrefix = `(?:[A-Za-z_][\w.-]*:)?`

var (
	utf8BOM    = []byte{0xEF, 0xBB, 0xBF}
	idAttrRe   = attrPattern("id")
	nameAttrRe = attrPattern("name")
)

func attrPattern(local string) *regexp.Regexp {
	return regexp.MustCompile(`\s` + optionalPrefix + local + `\s*=\s*(?:"([^"]*)"|'([^']*)')`)
}

// span is one element cut out of raw text.
type span struct {
	text string
	open string
}

// scanElements finds elements named local (any prefix) in text that is not
// well-formed. Each match runs from an opening tag to the next closing tag
// of the same name, so an element nested inside one of its own kind ends
// the outer span early.
func scanElements(data []byte, local string) []span {
	text := string(bytes.TrimPrefix(data, utf8BOM))
	name := regexp.QuoteMeta(local)
	openRe := regexp.MustCompile(`<` + optionalPrefix + name + `(?:[\s/][^>]*)?>`)
	closeRe := regexp.MustCompile(`</` + optionalPrefix + name + `\s*>`)

	var out []span
	for pos := 0; pos < len(text); {
		loc := openRe.FindStringIndex(text[pos:])
		if loc == nil {
			break
		}
		start, openEnd := pos+loc[0], pos+loc[1]
		open := text[start:openEnd]

		if strings.HasSuffix(open, "/>") {
			out = append(out, span{text: open, open: open})
			pos = openEnd
			continue
		}

		end := closeRe.FindStringIndex(text[openEnd:])
		if end == nil {
			break
		}
		stop := openEnd + end[1]
		out = append(out, span{text: text[start:stop], open: open})
		pos = stop
	}
	return out
}

func (s span) id(count int) string {
	for _, re := range []*regexp.Regexp{idAttrRe, nameAttrRe} {
		if m := re.FindStringSubmatch(s.open); m != nil {
			v := m[1] + m[2]
			if strings.TrimSpace(v) != "" {
				return v
			}
		}
	}
	return unknownID(count)
}

func splitRaw(data []byte, local string, opts Options) (*domain.SplitResult, error) {
	spans := scanElements(data, local)
	res := &domain.SplitResult{Paths: make([]string, 0, len(spans)), Fallback: true}
	var errs []error
	for i, s := range spans {
		path := outputPath(opts, local, s.id(i))
		if err := writeFile(path, func(buf *bytes.Buffer) error {
			buf.WriteString(xmltree.Declaration)
			buf.WriteByte('\n')
			buf.WriteString(s.text)
			buf.WriteByte('\n')
			return nil
		}); err != nil {
			errs = append(errs, err)
			continue
		}
		res.Paths = append(res.Paths, path)
	}
	return res, errors.Join(errs...)
}
