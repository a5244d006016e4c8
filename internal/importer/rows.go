package importer

import (
	"archive/zip"
	"bytes"
	"encoding/csv"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
)

var (
	ErrEmptyFeed      = errors.New("feed is empty")
	ErrNoRowsInFeed   = errors.New("feed contained no parseable rows")
	ErrNoDataInZip    = errors.New("zip contained no csv or xml file")
	errNotZip         = errors.New("not a zip payload")
	zipSignature      = []byte{'P', 'K', 0x03, 0x04}
	zipEmptySignature = []byte{'P', 'K', 0x05, 0x06}
)

// extraction is the result of turning feed bytes into raw rows. Shapes is
// non-fatal telemetry: the distinct field-name signatures seen, which is the
// only way to notice a feed quietly changing its schema.
type extraction struct {
	rows   []rawRow
	files  []string
	shapes map[string]int
}

// extractRows sniffs the payload format and picks the first strategy that
// yields rows: ZIP entries (.csv before .xml), otherwise raw CSV text.
func extractRows(payload []byte, filename string) (extraction, error) {
	if len(bytes.TrimSpace(payload)) == 0 {
		return extraction{}, ErrEmptyFeed
	}

	if looksLikeZip(payload) {
		return extractFromZip(payload)
	}
	if strings.HasSuffix(strings.ToLower(filename), ".xml") || looksLikeXML(payload) {
		rows, shapes, err := extractFromXML(payload)
		if err != nil {
			return extraction{}, err
		}
		return extraction{rows: rows, shapes: shapes}, nil
	}

	rows, err := extractFromCSV(payload)
	if err != nil {
		return extraction{}, err
	}
	return extraction{rows: rows, shapes: shapeCounts(rows)}, nil
}

func looksLikeZip(payload []byte) bool {
	return bytes.HasPrefix(payload, zipSignature) || bytes.HasPrefix(payload, zipEmptySignature)
}

func looksLikeXML(payload []byte) bool {
	trimmed := bytes.TrimLeft(payload, " \t\r\n\xef\xbb\xbf")
	return bytes.HasPrefix(trimmed, []byte("<"))
}

func extractFromZip(payload []byte) (extraction, error) {
	reader, err := zip.NewReader(bytes.NewReader(payload), int64(len(payload)))
	if err != nil {
		return extraction{}, fmt.Errorf("open zip: %w", err)
	}

	out := extraction{shapes: map[string]int{}}

	// Every data-bearing entry is reported, in archive order, even though
	// only one supplies the rows.
	for _, entry := range reader.File {
		name := strings.ToLower(entry.Name)
		if entry.FileInfo().IsDir() {
			continue
		}
		if strings.HasSuffix(name, ".csv") || strings.HasSuffix(name, ".xml") {
			out.files = append(out.files, entry.Name)
		}
	}

	// CSV entries first, XML second; the first non-empty entry wins.
	for _, want := range []string{".csv", ".xml"} {
		for _, entry := range reader.File {
			name := strings.ToLower(entry.Name)
			if !strings.HasSuffix(name, want) || entry.FileInfo().IsDir() {
				continue
			}
			content, err := readZipEntry(entry)
			if err != nil {
				return extraction{}, fmt.Errorf("read zip entry %s: %w", entry.Name, err)
			}
			var rows []rawRow
			var shapes map[string]int
			if want == ".csv" {
				rows, err = extractFromCSV(content)
				shapes = shapeCounts(rows)
			} else {
				rows, shapes, err = extractFromXML(content)
			}
			if err != nil || len(rows) == 0 {
				continue
			}
			out.rows = rows
			out.shapes = shapes
			return out, nil
		}
	}
	return extraction{}, ErrNoDataInZip
}

func readZipEntry(entry *zip.File) ([]byte, error) {
	rc, err := entry.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return io.ReadAll(io.LimitReader(rc, 64<<20))
}

// extractFromCSV parses header-first CSV; header names are lowercased and
// trimmed so alias lookup is case-insensitive.
func extractFromCSV(payload []byte) ([]rawRow, error) {
	reader := csv.NewReader(bytes.NewReader(payload))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrNoRowsInFeed
		}
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, name := range header {
		columns[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
	}

	var rows []rawRow
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv row: %w", err)
		}
		row := make(rawRow, len(record))
		empty := true
		for i, value := range record {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			value = strings.TrimSpace(value)
			if value == "" {
				continue
			}
			row[columns[i]] = value
			empty = false
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	if len(rows) == 0 {
		return nil, ErrNoRowsInFeed
	}
	return rows, nil
}

// xmlNode is a schema-free XML element tree. Feeds disagree on container
// names (<SongList><Song>, <Songs><Song>, lowercase variants), so rows are
// found by walking every element and keeping the ones that expose artist-like
// and title-like children, rather than by addressing a fixed path.
type xmlNode struct {
	name     string
	text     string
	children []*xmlNode
}

func extractFromXML(payload []byte) ([]rawRow, map[string]int, error) {
	root, err := parseXMLTree(payload)
	if err != nil {
		return nil, nil, fmt.Errorf("parse xml: %w", err)
	}

	var rows []rawRow
	shapes := map[string]int{}
	var walk func(node *xmlNode)
	walk = func(node *xmlNode) {
		if row, ok := nodeToRow(node); ok {
			rows = append(rows, row)
			shapes[rowShape(row)]++
			return
		}
		for _, child := range node.children {
			walk(child)
		}
	}
	walk(root)

	if len(rows) == 0 {
		return nil, nil, ErrNoRowsInFeed
	}
	return rows, shapes, nil
}

func parseXMLTree(payload []byte) (*xmlNode, error) {
	decoder := xml.NewDecoder(bytes.NewReader(payload))
	decoder.Strict = false
	root := &xmlNode{name: ""}
	stack := []*xmlNode{root}

	for {
		token, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := token.(type) {
		case xml.StartElement:
			node := &xmlNode{name: strings.ToLower(t.Name.Local)}
			parent := stack[len(stack)-1]
			parent.children = append(parent.children, node)
			stack = append(stack, node)
		case xml.EndElement:
			if len(stack) > 1 {
				stack = stack[:len(stack)-1]
			}
		case xml.CharData:
			current := stack[len(stack)-1]
			current.text += string(t)
		}
	}
	return root, nil
}

// nodeToRow treats an element as a row when its direct children include a
// non-empty artist-like and title-like field.
func nodeToRow(node *xmlNode) (rawRow, bool) {
	if len(node.children) == 0 {
		return nil, false
	}
	row := make(rawRow, len(node.children))
	for _, child := range node.children {
		value := strings.TrimSpace(child.text)
		if value == "" || child.name == "" {
			continue
		}
		if _, exists := row[child.name]; !exists {
			row[child.name] = value
		}
	}
	if row.pick(artistAliases) == "" || row.pick(titleAliases) == "" {
		return nil, false
	}
	return row, true
}

func rowShape(row rawRow) string {
	keys := make([]string, 0, len(row))
	for key := range row {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return strings.Join(keys, ",")
}

func shapeCounts(rows []rawRow) map[string]int {
	shapes := make(map[string]int, 4)
	for _, row := range rows {
		shapes[rowShape(row)]++
	}
	return shapes
}
