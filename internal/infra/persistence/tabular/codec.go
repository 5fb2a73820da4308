// Package tabular converts between typed items and the untyped text rows every
// backend stores. It is the single seam where untyped cells enter the system:
// numeric cells are coerced (unparseable becomes zero), text cells are
// normalized, dates that do not parse are kept verbatim and the header is
// checked for the expected columns.
package tabular

import (
	"crypto/sha256"
	"encoding/csv"
	"encoding/hex"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"studiostock/pkg/domain"
)

// Column names in positional order. Some deployments write positional rows,
// so this order is part of the external contract.
const (
	ColID               = "ID"
	ColName             = "Nome do Item"
	ColBrand            = "Marca/Modelo"
	ColSpec             = "Tipo/Especificação"
	ColCategory         = "Categoria"
	ColSupplier         = "Fornecedor Principal"
	ColQuantityOnHand   = "Quantidade em Estoque"
	ColMinimumQuantity  = "Estoque Mínimo"
	ColUnit             = "Unidade de Medida"
	ColUnitCost         = "Preço de Custo"
	ColSKU              = "Código/SKU"
	ColNotes            = "Observações"
	ColLastPurchaseDate = "Data da Última Compra"
)

// Header returns a fresh copy of the column header.
func Header() []string {
	return []string{
		ColID, ColName, ColBrand, ColSpec, ColCategory, ColSupplier,
		ColQuantityOnHand, ColMinimumQuantity, ColUnit, ColUnitCost,
		ColSKU, ColNotes, ColLastPurchaseDate,
	}
}

// EncodeRow renders one item in header order.
func EncodeRow(it domain.Item) []string {
	return []string{
		strconv.FormatInt(it.ID, 10),
		it.Name,
		it.Brand,
		it.Spec,
		it.Category,
		it.Supplier,
		it.QuantityOnHand.String(),
		it.MinimumQuantity.String(),
		it.Unit,
		it.UnitCost.String(),
		it.SKU,
		it.Notes,
		it.LastPurchaseDate.String(),
	}
}

// Encode renders the header followed by one row per item in collection order.
func Encode(items domain.Collection) [][]string {
	out := make([][]string, 0, len(items)+1)
	out = append(out, Header())
	for _, it := range items {
		out = append(out, EncodeRow(it))
	}
	return out
}

// Decode parses rows whose first row is the header. Columns are located by
// name; extra columns are ignored. Rows whose cells are all blank are skipped.
// Blank or unparseable ids decode as 0 and are left to the repository to assign.
func Decode(rows [][]string) (domain.Collection, error) {
	rows = dropBlankRows(rows)
	if len(rows) == 0 {
		return domain.Collection{}, nil
	}
	positions := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		name = strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))
		if _, dup := positions[name]; !dup {
			positions[name] = i
		}
	}
	var missing []string
	for _, col := range Header() {
		if _, ok := positions[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, &domain.SchemaError{Missing: missing}
	}

	items := make(domain.Collection, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cell := func(col string) string {
			i := positions[col]
			if i >= len(row) {
				return ""
			}
			return domain.NormalizeText(row[i])
		}
		items = append(items, domain.Item{
			ID:               coerceID(cell(ColID)),
			Name:             cell(ColName),
			Brand:            cell(ColBrand),
			Spec:             cell(ColSpec),
			Category:         cell(ColCategory),
			Supplier:         cell(ColSupplier),
			QuantityOnHand:   coerceDecimal(cell(ColQuantityOnHand)),
			MinimumQuantity:  coerceDecimal(cell(ColMinimumQuantity)),
			Unit:             cell(ColUnit),
			UnitCost:         coerceDecimal(cell(ColUnitCost)),
			SKU:              cell(ColSKU),
			Notes:            cell(ColNotes),
			LastPurchaseDate: domain.DecodeDate(cell(ColLastPurchaseDate)),
		})
	}
	return items, nil
}

// WriteCSV writes the encoded collection as CSV.
func WriteCSV(w io.Writer, items domain.Collection) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(Encode(items)); err != nil {
		return err
	}
	return cw.Error()
}

// ReadCSV decodes a CSV document. An empty document yields an empty collection.
func ReadCSV(r io.Reader) (domain.Collection, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	rows, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	return Decode(rows)
}

// Fingerprint hashes the canonical CSV encoding of items.
func Fingerprint(items domain.Collection) string {
	h := sha256.New()
	_ = WriteCSV(h, items)
	return hex.EncodeToString(h.Sum(nil))
}

func coerceDecimal(s string) decimal.Decimal {
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

func coerceID(s string) int64 {
	d := coerceDecimal(s)
	if !d.IsInteger() || !d.IsPositive() {
		return 0
	}
	return d.IntPart()
}

func dropBlankRows(rows [][]string) [][]string {
	out := rows[:0:0]
	for _, row := range rows {
		for _, c := range row {
			if strings.TrimSpace(c) != "" {
				out = append(out, row)
				break
			}
		}
	}
	return out
}
