package ui

import (
	"fmt"
	"strings"
)

type BlockKind string

const (
	BlockTable BlockKind = "table"
	BlockKV    BlockKind = "kv"
)

// Block is one unit of command output, either a table or a list of key/value
// pairs.
type Block struct {
	Kind  BlockKind `json:"kind"`
	Table *Table    `json:"table,omitempty"`
	KV    *KV       `json:"kv,omitempty"`
}

type Table struct {
	Title   string     `json:"title,omitempty"`
	Headers []string   `json:"headers"`
	Rows    [][]string `json:"rows"`
}

type KV struct {
	Title string   `json:"title,omitempty"`
	Items []KVItem `json:"items"`
}

type KVItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// KVBlock builds a key/value block from alternating key and value strings.
func KVBlock(title string, pairs ...string) Block {
	kv := &KV{Title: title}
	for i := 0; i+1 < len(pairs); i += 2 {
		kv.Items = append(kv.Items, KVItem{Key: pairs[i], Value: pairs[i+1]})
	}
	return Block{Kind: BlockKV, KV: kv}
}

// TableBlock builds a table block.
func TableBlock(title string, headers []string, rows [][]string) Block {
	return Block{Kind: BlockTable, Table: &Table{Title: title, Headers: headers, Rows: rows}}
}

// Render renders blocks as plain text. A width of 0 disables truncation.
func Render(width int, blocks ...Block) string {
	if len(blocks) == 0 {
		return ""
	}

	var b strings.Builder
	for i, blk := range blocks {
		if i > 0 {
			b.WriteString("\n\n")
		}
		switch blk.Kind {
		case BlockTable:
			if blk.Table != nil {
				b.WriteString(RenderTable(width, blk.Table))
			}
		case BlockKV:
			if blk.KV != nil {
				b.WriteString(RenderKV(width, blk.KV))
			}
		default:
			// Unknown block: ignore to keep rendering robust.
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderKV(width int, kv *KV) string {
	var b strings.Builder
	if kv.Title != "" {
		b.WriteString(TitleStyle.Render(kv.Title))
		b.WriteString("\n")
	}
	maxKey := 0
	for _, it := range kv.Items {
		if len(it.Key) > maxKey {
			maxKey = len(it.Key)
		}
	}
	if maxKey > 24 {
		maxKey = 24
	}

	for _, it := range kv.Items {
		key := it.Key
		if len(key) > maxKey {
			key = key[:maxKey]
		}
		line := fmt.Sprintf("%-*s  %s", maxKey, key, it.Value)
		b.WriteString(truncate(line, width))
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func RenderTable(width int, t *Table) string {
	cols := len(t.Headers)
	if cols == 0 {
		return ""
	}

	colW := make([]int, cols)
	for c := 0; c < cols; c++ {
		colW[c] = len(t.Headers[c])
	}
	for _, row := range t.Rows {
		for c := 0; c < cols && c < len(row); c++ {
			if l := len(row[c]); l > colW[c] {
				colW[c] = l
			}
		}
	}

	// Clamp to keep within width (best effort; shrink last columns first).
	sep := 3 // " | "
	if width > 0 {
		avail := width
		if avail < 20 {
			avail = 20
		}
		for totalWidth(colW, sep) > avail {
			shrunk := false
			for c := cols - 1; c >= 0; c-- {
				if colW[c] > 6 {
					colW[c]--
					shrunk = true
					break
				}
			}
			if !shrunk {
				break
			}
		}
	}

	var b strings.Builder
	if t.Title != "" {
		b.WriteString(TitleStyle.Render(t.Title))
		b.WriteString("\n")
	}

	b.WriteString(renderTableRow(t.Headers, colW))
	b.WriteString("\n")
	b.WriteString(renderTableSep(colW, sep))
	b.WriteString("\n")
	for i, row := range t.Rows {
		b.WriteString(renderTableRow(row, colW))
		if i < len(t.Rows)-1 {
			b.WriteString("\n")
		}
	}
	return b.String()
}

func totalWidth(colW []int, sep int) int {
	total := 0
	for _, w := range colW {
		total += w
	}
	total += sep * (len(colW) - 1)
	return total
}

func renderTableSep(colW []int, sep int) string {
	var b strings.Builder
	for c, w := range colW {
		if c > 0 {
			b.WriteString(strings.Repeat("-", sep))
		}
		b.WriteString(strings.Repeat("-", w))
	}
	return b.String()
}

func renderTableRow(cells []string, colW []int) string {
	var b strings.Builder
	for c, w := range colW {
		if c > 0 {
			b.WriteString(" | ")
		}
		val := ""
		if c < len(cells) {
			val = cells[c]
		}
		b.WriteString(padRight(truncate(val, w), w))
	}
	return strings.TrimRight(b.String(), " ")
}

func padRight(s string, w int) string {
	if len(s) >= w {
		return s
	}
	return s + strings.Repeat(" ", w-len(s))
}

func truncate(s string, w int) string {
	if w <= 0 || len(s) <= w {
		return s
	}
	if w <= 3 {
		return s[:w]
	}
	return s[:w-3] + "..."
}
