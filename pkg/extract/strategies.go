package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// strategy is one pure attempt at locating the content root of a detail
// page. Find returns an empty selection when the strategy does not apply.
type strategy struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

// rootStrategies is the ranked fallback chain for choosing a content root.
// Order matters: semantic markers first, structural heuristics last. The
// first strategy returning a non-empty selection wins.
var rootStrategies = []strategy{
	{"role-main", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`div[role="main"]`).First()
	}},
	{"body-field", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`div[class*="field--name-body"]`).First()
	}},
	{"article", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("article").First()
	}},
	{"node-content", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find(`div[class*="node__content"]`).First()
	}},
	{"densest-div", densestDiv},
	{"document-body", func(doc *goquery.Document) *goquery.Selection {
		return doc.Find("body").First()
	}},
}

// densestDiv returns the single div holding the most paragraph
// descendants. Ties go to the earliest div in the document.
func densestDiv(doc *goquery.Document) *goquery.Selection {
	var best *goquery.Selection
	bestCount := -1
	doc.Find("div").Each(func(_ int, div *goquery.Selection) {
		if n := div.Find("p").Length(); n > bestCount {
			best = div
			bestCount = n
		}
	})
	if best == nil {
		return doc.Find("div") // empty selection
	}
	return best
}

// contentRoot walks the strategy chain and returns the chosen root along
// with the name of the strategy that produced it.
func contentRoot(doc *goquery.Document) (*goquery.Selection, string) {
	for _, s := range rootStrategies {
		if sel := s.find(doc); sel != nil && sel.Length() > 0 {
			return sel, s.name
		}
	}
	return nil, ""
}

// collectText gathers heading, paragraph, and list-item text from root in
// document order, the order a reader would encounter it rather than
// grouped by tag type, and joins blocks with blank lines.
func collectText(root *goquery.Selection) string {
	var blocks []string

	root.Find("h1, h2, h3, h4, h5, h6, p, ul, ol").Each(func(_ int, el *goquery.Selection) {
		switch goquery.NodeName(el) {
		case "ul", "ol":
			// Direct children only: nested lists are matched on their own
			el.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
				if text := blockText(li); text != "" {
					blocks = append(blocks, text)
				}
			})
		default:
			if text := blockText(el); text != "" {
				blocks = append(blocks, text)
			}
		}
	})

	return strings.Join(blocks, "\n\n")
}

// blockText renders one element's text with runs of whitespace collapsed,
// approximating how a browser displays the block.
func blockText(s *goquery.Selection) string {
	return strings.Join(strings.Fields(s.Text()), " ")
}
