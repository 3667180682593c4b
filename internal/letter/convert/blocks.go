package convert

import (
	"regexp"
	"strings"

	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"golang.org/x/net/html"
)

type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading1
	BlockHeading2
	BlockHeading3
	BlockListItem
	BlockTableRow
	BlockRule
	BlockSpacer
)

// Block is one laid-out unit of an HTML letter.
type Block struct {
	Kind   BlockKind
	Text   string
	Cells  []string
	Header bool
	Align  align.Type
}

var (
	spacePattern     = regexp.MustCompile(`[ \t\r\n\f]+`)
	textAlignPattern = regexp.MustCompile(`text-align\s*:\s*(left|center|right)`)
)

var blockElements = map[string]BlockKind{
	"p":          BlockParagraph,
	"div":        BlockParagraph,
	"header":     BlockParagraph,
	"footer":     BlockParagraph,
	"section":    BlockParagraph,
	"address":    BlockParagraph,
	"blockquote": BlockParagraph,
	"h1":         BlockHeading1,
	"h2":         BlockHeading2,
	"h3":         BlockHeading3,
	"h4":         BlockHeading3,
	"h5":         BlockHeading3,
	"h6":         BlockHeading3,
	"li":         BlockListItem,
}

// ParseBlocks flattens an HTML document into blocks in reading order.
func ParseBlocks(body string) ([]Block, error) {
	root, err := html.Parse(strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	p := &blockParser{}
	p.walk(root, BlockParagraph, align.Left)
	p.flush(BlockParagraph, align.Left)
	return p.blocks, nil
}

type blockParser struct {
	blocks []Block
	buf    strings.Builder
}

func (p *blockParser) walk(n *html.Node, kind BlockKind, a align.Type) {
	switch n.Type {
	case html.TextNode:
		p.buf.WriteString(n.Data)
		return
	case html.ElementNode:
		switch n.Data {
		case "head", "style", "script", "title":
			return
		case "br":
			p.flush(kind, a)
			return
		case "hr":
			p.flush(kind, a)
			p.blocks = append(p.blocks, Block{Kind: BlockRule})
			return
		case "tr":
			p.flush(kind, a)
			p.tableRow(n)
			return
		}
		if k, ok := blockElements[n.Data]; ok {
			p.flush(kind, a)
			kind = k
			a = alignOf(n, a)
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				p.walk(c, kind, a)
			}
			if !p.flush(kind, a) && n.Data == "p" {
				p.blocks = append(p.blocks, Block{Kind: BlockSpacer})
			}
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, kind, a)
	}
}

// flush emits buffered text as a block and reports whether it did.
func (p *blockParser) flush(kind BlockKind, a align.Type) bool {
	content := collapse(p.buf.String())
	p.buf.Reset()
	if content == "" {
		return false
	}
	p.blocks = append(p.blocks, Block{Kind: kind, Text: content, Align: a})
	return true
}

func (p *blockParser) tableRow(tr *html.Node) {
	b := Block{Kind: BlockTableRow}
	for c := tr.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || (c.Data != "td" && c.Data != "th") {
			continue
		}
		if c.Data == "th" {
			b.Header = true
		}
		b.Cells = append(b.Cells, collapse(textContent(c)))
	}
	if len(b.Cells) > 0 {
		p.blocks = append(p.blocks, b)
	}
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.Data == "br" {
			b.WriteString(" ")
			continue
		}
		b.WriteString(textContent(c))
	}
	return b.String()
}

func alignOf(n *html.Node, inherited align.Type) align.Type {
	for _, attr := range n.Attr {
		var value string
		switch attr.Key {
		case "align":
			value = strings.ToLower(strings.TrimSpace(attr.Val))
		case "style":
			if m := textAlignPattern.FindStringSubmatch(strings.ToLower(attr.Val)); m != nil {
				value = m[1]
			}
		}
		switch value {
		case "center":
			return align.Center
		case "right":
			return align.Right
		case "left":
			return align.Left
		}
	}
	return inherited
}

func collapse(s string) string {
	return strings.TrimSpace(spacePattern.ReplaceAllString(s, " "))
}

func fixedRow(height float64, cols ...core.Col) core.Row {
	return row.New(height).Add(cols...)
}

func autoRow(cols ...core.Col) core.Row {
	return row.New().Add(cols...)
}
