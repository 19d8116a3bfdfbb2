package emit

import (
	"encoding/xml"
	"strconv"

	"github.com/beevik/etree"

	"sourcepack/pkg/content"
)

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

type xmlEmitter struct {
	out  *writer
	tree bool
}

func (x *xmlEmitter) Begin(name string) error {
	x.out.WriteString(xmlHeader)
	x.out.WriteString(`<source name="`)
	if x.out.err == nil {
		// EscapeText only fails when the writer does.
		_ = xml.EscapeText(x.out, []byte(name))
	}
	x.out.WriteString("\">\n")
	return x.out.err
}

// File writes one <file> element. Each element is rendered through its own
// etree document so only the current file is held in memory.
func (x *xmlEmitter) File(doc content.Document) error {
	el := etree.NewElement("file")
	el.CreateAttr("path", doc.RelPath)
	el.CreateAttr("size", strconv.FormatInt(doc.Size, 10))
	switch {
	case doc.Kind != content.KindText:
		el.CreateAttr("kind", doc.Kind.String())
		if !x.tree {
			el.SetText(doc.Placeholder())
		}
	case !x.tree:
		el.SetText(doc.Text)
	}

	d := etree.NewDocument()
	d.WriteSettings.CanonicalText = true
	d.SetRoot(el)
	if _, err := d.WriteTo(x.out); err != nil {
		return x.out.err
	}
	x.out.WriteString("\n")
	return x.out.err
}

func (x *xmlEmitter) End() error {
	x.out.WriteString("</source>\n")
	return x.out.err
}
