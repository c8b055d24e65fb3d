package documents

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/joseph-ayodele/tradedoc-extract/constants"
	"github.com/joseph-ayodele/tradedoc-extract/internal/common"
)

// Parse dispatches on the document type.
func Parse(docType constants.DocType, raw map[string]any) (Record, error) {
	switch docType {
	case constants.DocTypeBL:
		return ParseBillOfLading(raw)
	case constants.DocTypeImportInvoice:
		return ParseImportInvoice(raw)
	default:
		return nil, fmt.Errorf("%w: unsupported document type %q", common.ErrInvalidInput, docType)
	}
}

// ParseBillOfLading builds a BillOfLading field by field. Unknown keys are
// ignored and missing keys stay nil. The first mistyped field aborts the parse.
func ParseBillOfLading(raw map[string]any) (BillOfLading, error) {
	r := &fieldReader{raw: raw}
	bl := BillOfLading{
		Carrier:         r.str("carrier"),
		BLNo:            r.str("bl_no"),
		BLType:          r.str("bl_type"),
		PortOfLoading:   r.str("port_of_loading"),
		PortOfDischarge: r.str("port_of_discharge"),
		OnboardDate:     r.str("onboard_date"),
		IssueDate:       r.str("issue_date"),
		ShipmentDate:    r.str("shipment_date"),
	}
	if obj, ok := r.object("packing"); ok && obj != nil {
		p := r.child(obj, "packing")
		bl.Packing = &PackingInfo{
			ContainersOfPkgs: p.str("containers_of_pkgs"),
			GrossWeight:      p.str("gross_weight"),
			Measurement:      p.str("measurement"),
			PackageCount:     p.num("package_count"),
			ContainerCount:   p.num("container_count"),
			GrossWeightKG:    p.num("gross_weight_kg"),
			MeasurementCBM:   p.num("measurement_cbm"),
		}
		r.adopt(p)
	}
	if r.err != nil {
		return BillOfLading{}, r.err
	}
	return bl, nil
}

// ParseImportInvoice builds an ImportInvoice. A malformed item fails the
// whole document.
func ParseImportInvoice(raw map[string]any) (ImportInvoice, error) {
	r := &fieldReader{raw: raw}
	inv := ImportInvoice{
		InvoiceNo:       r.str("invoice_no"),
		InvoiceDate:     r.str("invoice_date"),
		SellerName:      r.str("seller_name"),
		BuyerName:       r.str("buyer_name"),
		Currency:        r.str("currency"),
		TotalAmount:     r.num("total_amount"),
		Incoterms:       r.str("incoterms"),
		PaymentTerms:    r.str("payment_terms"),
		CountryOfOrigin: r.str("country_of_origin"),
		Items:           []ImportInvoiceItem{},
	}
	for i, obj := range r.objects("items") {
		it := r.child(obj, fmt.Sprintf("items[%d]", i))
		inv.Items = append(inv.Items, ImportInvoiceItem{
			LineNo:       it.integer("line_no"),
			Description:  it.str("description"),
			MaterialCode: it.str("material_code"),
			TIPartNumber: it.str("ti_part_number"),
			CustomerPO:   it.str("customer_po"),
			HSCode:       it.str("hs_code"),
			Quantity:     it.num("quantity"),
			UOM:          it.str("uom"),
			UnitPrice:    it.num("unit_price"),
			Amount:       it.num("amount"),
		})
		r.adopt(it)
	}
	if r.err != nil {
		return ImportInvoice{}, r.err
	}
	return inv, nil
}

// fieldReader reads typed optional fields out of a decoded JSON object and
// keeps the first failure.
type fieldReader struct {
	raw    map[string]any
	prefix string
	err    error
}

func (r *fieldReader) path(key string) string {
	if r.prefix == "" {
		return key
	}
	return r.prefix + "." + key
}

func (r *fieldReader) child(obj map[string]any, prefix string) *fieldReader {
	return &fieldReader{raw: obj, prefix: prefix}
}

func (r *fieldReader) adopt(c *fieldReader) {
	if r.err == nil {
		r.err = c.err
	}
}

func (r *fieldReader) fail(key string, v any, want string) {
	if r.err == nil {
		r.err = common.ExpectedType(r.path(key), v, want)
	}
}

func (r *fieldReader) str(key string) *string {
	switch v := r.raw[key].(type) {
	case nil:
		return nil
	case string:
		return &v
	case json.Number:
		s := v.String()
		return &s
	case float64:
		s := strconv.FormatFloat(v, 'f', -1, 64)
		return &s
	default:
		r.fail(key, v, "string")
		return nil
	}
}

func (r *fieldReader) num(key string) *float64 {
	switch v := r.raw[key].(type) {
	case nil:
		return nil
	case float64:
		return &v
	case json.Number:
		f, err := v.Float64()
		if err != nil || math.IsInf(f, 0) {
			r.fail(key, v, "number")
			return nil
		}
		return &f
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			r.fail(key, v, "number")
			return nil
		}
		return &f
	default:
		r.fail(key, v, "number")
		return nil
	}
}

func (r *fieldReader) integer(key string) *int {
	switch v := r.raw[key].(type) {
	case nil:
		return nil
	case float64:
		n, ok := exactInt(v)
		if !ok {
			r.fail(key, v, "integer")
			return nil
		}
		return &n
	case json.Number:
		n, ok := parseInt(v.String())
		if !ok {
			r.fail(key, v, "integer")
			return nil
		}
		return &n
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return nil
		}
		n, ok := parseInt(s)
		if !ok {
			r.fail(key, v, "integer")
			return nil
		}
		return &n
	default:
		r.fail(key, v, "integer")
		return nil
	}
}

// maxExactInt is the largest magnitude a float64 holds without rounding.
const maxExactInt = 1 << 53

func exactInt(f float64) (int, bool) {
	if f != math.Trunc(f) || math.Abs(f) > maxExactInt {
		return 0, false
	}
	return int(f), true
}

// parseInt accepts integer literals of any int size, and integral decimal or
// exponent forms such as 3.0 or 1e3.
func parseInt(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return exactInt(f)
}

// object returns the nested object at key; a JSON null yields (nil, true).
func (r *fieldReader) object(key string) (map[string]any, bool) {
	switch v := r.raw[key].(type) {
	case nil:
		return nil, true
	case map[string]any:
		return v, true
	default:
		r.fail(key, v, "object")
		return nil, false
	}
}

// objects returns the array of objects at key; missing or null is empty.
func (r *fieldReader) objects(key string) []map[string]any {
	switch v := r.raw[key].(type) {
	case nil:
		return nil
	case []any:
		out := make([]map[string]any, 0, len(v))
		for i, el := range v {
			obj, ok := el.(map[string]any)
			if !ok {
				if r.err == nil {
					r.err = common.ExpectedType(fmt.Sprintf("%s[%d]", r.path(key), i), el, "object")
				}
				return nil
			}
			out = append(out, obj)
		}
		return out
	default:
		r.fail(key, v, "array")
		return nil
	}
}
