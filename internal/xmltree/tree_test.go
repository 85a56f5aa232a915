package xmltree

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bpextract/internal/domain"
)

const releaseDoc = `<?xml version="1.0" encoding="utf-8"?>
<bpr:release xmlns:bpr="http://www.blueprism.co.uk/product/release">
  <bpr:name>Processes</bpr:name>
  <bpr:contents count="2">
    <process id="p-1" name="Invoice Intake" xmlns="http://www.blueprism.co.uk/product/process">
      <stage stageid="s1" name="Start" type="Start"><onsuccess>s2</onsuccess></stage>
    </process>
    <bpr:calendar id="c-1"><bpr:note a="1 &amp; 2">x &lt; y</bpr:note></bpr:calendar>
  </bpr:contents>
</bpr:release>`

func TestParse_KeepsPrefixesAndStructure(t *testing.T) {
	root, err := Parse([]byte(releaseDoc))
	require.NoError(t, err)

	assert.Equal(t, Name{Prefix: "bpr", Local: "release"}, root.Name)
	contents := root.Find("contents")
	require.NotNil(t, contents)

	elems := contents.Elements()
	require.Len(t, elems, 2)
	assert.Equal(t, "process", elems[0].Name.Local)
	assert.Equal(t, "", elems[0].Name.Prefix)
	assert.Equal(t, "bpr", elems[1].Name.Prefix)

	id, ok := elems[0].Attr("id")
	assert.True(t, ok)
	assert.Equal(t, "p-1", id)

	_, ok = elems[0].Attr("xmlns")
	assert.False(t, ok, "namespace declarations are not attributes")
}

func TestParse_DecodesEntities(t *testing.T) {
	root, err := Parse([]byte(releaseDoc))
	require.NoError(t, err)

	note := root.Find("note")
	require.NotNil(t, note)
	assert.Equal(t, "x < y", note.Text())
	v, _ := note.Attr("a")
	assert.Equal(t, "1 & 2", v)
}

func TestParse_StripsBOM(t *testing.T) {
	data := append([]byte{0xEF, 0xBB, 0xBF}, []byte(`<calendar id="c"/>`)...)
	root, err := Parse(data)
	require.NoError(t, err)
	assert.Equal(t, "calendar", root.Name.Local)
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"unterminated":  `<process id="1"><stage stageid="a">`,
		"mismatched":    `<process><stage></process></stage>`,
		"truncated tag": `<process id="1"><stage stageid="a`,
		"two roots":     `<a/><b/>`,
		"empty":         ``,
		"stray text":    `<a/>junk`,
	}
	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrParseFailure)
		})
	}
}

func TestFind_FirstDescendantInDocumentOrder(t *testing.T) {
	root, err := Parse([]byte(`<r><a><x n="1"/></a><x n="2"/></r>`))
	require.NoError(t, err)

	x := root.Find("x")
	require.NotNil(t, x)
	n, _ := x.Attr("n")
	assert.Equal(t, "1", n)
	assert.Nil(t, root.Find("missing"))
}

func TestFindAll_AndFindOutermost(t *testing.T) {
	root, err := Parse([]byte(`<r><p id="1"><p id="2"/></p><q><p id="3"/></q></r>`))
	require.NoError(t, err)

	ids := func(nodes []*Node) []string {
		var out []string
		for _, n := range nodes {
			v, _ := n.Attr("id")
			out = append(out, v)
		}
		return out
	}
	assert.Equal(t, []string{"1", "2", "3"}, ids(root.FindAll("p")))
	assert.Equal(t, []string{"1", "3"}, ids(root.FindOutermost("p")))
}

func TestLookupNamespace(t *testing.T) {
	root, err := Parse([]byte(releaseDoc))
	require.NoError(t, err)

	process := root.Find("process")
	require.NotNil(t, process)
	assert.Equal(t, "http://www.blueprism.co.uk/product/process", process.NamespaceURI())

	calendar := root.Find("calendar")
	require.NotNil(t, calendar)
	assert.Equal(t, "http://www.blueprism.co.uk/product/release", calendar.NamespaceURI())

	_, ok := calendar.LookupNamespace("missing")
	assert.False(t, ok)
}

func TestWriteDocument_CarriesInheritedNamespaces(t *testing.T) {
	root, err := Parse([]byte(releaseDoc))
	require.NoError(t, err)

	calendar := root.Find("calendar")
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, calendar))

	out := buf.String()
	assert.Equal(t, Declaration+"\n"+
		`<bpr:calendar xmlns:bpr="http://www.blueprism.co.uk/product/release" id="c-1">`+
		`<bpr:note a="1 &amp; 2">x &lt; y</bpr:note></bpr:calendar>`+"\n", out)

	reparsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "http://www.blueprism.co.uk/product/release", reparsed.NamespaceURI())
}

func TestWriteDocument_OwnDefaultNamespaceNotDuplicated(t *testing.T) {
	root, err := Parse([]byte(releaseDoc))
	require.NoError(t, err)

	process := root.Find("process")
	var buf bytes.Buffer
	require.NoError(t, WriteDocument(&buf, process))

	reparsed, err := Parse(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, process.String(), reparsed.String())
}

func TestString_EscapesAttributesAndKeepsWhitespace(t *testing.T) {
	root, err := Parse([]byte("<a v=\"&quot;q&quot;\">\n  <b/>\n</a>"))
	require.NoError(t, err)
	assert.Equal(t, "<a v=\"&quot;q&quot;\">\n  <b/>\n</a>", root.String())
}
