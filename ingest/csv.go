// Package ingest parses uploaded inventory files into normalized product
// records. The conversation core only consumes the result; parsing lives
// behind the core.FileParser contract so other formats can be added
// without touching the flow handlers.
package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/AdonayRH/wahisper-sub000/core"
)

// CSVParser reads files shaped as: code,description,price,stock with an
// optional header row. Prices are normalized through core.NormalizePrice,
// so malformed prices become zero; malformed stock values are rejected
// because silently inventing stock would corrupt the catalog.
type CSVParser struct{}

// NewCSVParser constructs the parser.
func NewCSVParser() *CSVParser { return &CSVParser{} }

// Interface compliance (compile-time assertion)
var _ core.FileParser = (*CSVParser)(nil)

// Parse implements core.FileParser.
func (p *CSVParser) Parse(data []byte) ([]core.Product, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	var products []core.Product
	lineNo := 0
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", lineNo+1, err)
		}
		lineNo++
		if lineNo == 1 && looksLikeHeader(record) {
			continue
		}
		if len(record) < 4 {
			return nil, &core.ValidationError{
				Field:  "file",
				Reason: fmt.Sprintf("line %d has %d columns, want 4 (code,description,price,stock)", lineNo, len(record)),
			}
		}
		code := strings.TrimSpace(record[0])
		if code == "" {
			return nil, &core.ValidationError{Field: "file", Reason: fmt.Sprintf("line %d has an empty product code", lineNo)}
		}
		stock, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil || stock < 0 {
			return nil, &core.ValidationError{Field: "file", Reason: fmt.Sprintf("line %d has invalid stock %q", lineNo, record[3])}
		}
		products = append(products, core.Product{
			Code:        code,
			Description: strings.TrimSpace(record[1]),
			Price:       core.NormalizePrice(record[2]),
			Stock:       stock,
		})
	}
	if len(products) == 0 {
		return nil, &core.ValidationError{Field: "file", Reason: "no product rows found"}
	}
	return products, nil
}

func looksLikeHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(record[0]))
	return first == "code" || first == "sku" || first == "product"
}
