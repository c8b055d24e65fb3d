package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var universalRules = []string{
	"Output exactly one JSON object and nothing else.",
	"Never create keys that are not defined in the JSON Schema.",
	"Any value not explicitly stated in the document must be null.",
	"Never guess or infer values that are not printed.",
	"Fields typed as number must be JSON numbers whenever the value can be determined.",
	"Write dates as ISO-8601 YYYY-MM-DD whenever the printed date can be converted.",
}

// Order matters: earlier rules take precedence when they conflict.
var billOfLadingRules = []string{
	"port_of_loading / port_of_discharge: if the document prints a shipping-code triplet (e.g. KRPUS / CNSHA / USLAX), prefer the codes from that triplet over the labeled Port of Loading / Port of Discharge fields.",
	"bl_no: strip every letter (carrier prefixes such as MAEU, HDMU, SCAC codes) from the B/L or tracking number and keep the digits only.",
	"bl_type: use ORIGINAL, SEAWAY BILL, SURRENDERED or TELEX RELEASE only when the document states it.",
	"onboard_date: take it from the Shipped on Board / Laden on Board stamp or clause.",
	"shipment_date: use only a date explicitly labeled as shipment date; otherwise null.",
	"packing.containers_of_pkgs, packing.gross_weight, packing.measurement: copy as printed including units (e.g. 2 X 40HC / 1,200 CTNS, 12,345.000 KGS, 56.789 CBM).",
	"packing.package_count, packing.container_count, packing.gross_weight_kg, packing.measurement_cbm: numbers without thousands separators or units; null when the unit is not KG / CBM.",
}

var importInvoiceRules = []string{
	"material_code: must consist of digits only. If the candidate code contains letters (e.g. AB-1234X), reject it and search the same line again for a digits-only material or part number. If none exists, use null.",
	"customer_po: strip labels such as PO, P/O, PO No., Order No. and any letters, keep the digits only.",
	"ti_part_number: the secondary part number printed on the line (customer or TI part no.), copied as printed; null when absent.",
	"items: one entry per invoice line in the order printed; never merge or split lines and never include subtotal, freight or total rows.",
	"line_no: the printed line or item number; null when the document does not number its lines.",
	"quantity, unit_price, amount, total_amount: numbers without thousands separators or currency symbols.",
	"uom: the packing or counting unit exactly as printed (e.g. PCS, EA, KG, SET).",
	"currency: ISO 4217 code (e.g. USD, KRW, JPY).",
	"hs_code: digits only, keep it as a string.",
}

var reStandaloneBL = regexp.MustCompile(`\bbl\b`)

// IsBillOfLading reports whether a document-type label denotes a Bill of Lading.
// Matching is case-insensitive; everything else takes the invoice rules.
func IsBillOfLading(label string) bool {
	l := strings.ToLower(label)
	return strings.Contains(l, "bill of lading") ||
		strings.Contains(l, "b/l") ||
		reStandaloneBL.MatchString(l)
}

// BuildPrompt composes the single user message sent with the page images:
// role line, document label, universal rules, the type-specific rule block
// and the compacted schema. It only fails when schema is not valid JSON.
func BuildPrompt(docLabel string, schema json.RawMessage) (string, error) {
	var compact bytes.Buffer
	if err := json.Compact(&compact, schema); err != nil {
		return "", fmt.Errorf("prompt schema: %w", err)
	}

	var b strings.Builder
	b.WriteString("You are an engine that extracts fields from trade and logistics documents.\n")
	b.WriteString("Document type: ")
	b.WriteString(docLabel)
	b.WriteString("\nRules:\n")
	writeRules(&b, universalRules)

	if IsBillOfLading(docLabel) {
		b.WriteString("Bill of Lading rules:\n")
		writeRules(&b, billOfLadingRules)
	} else {
		b.WriteString("Invoice rules:\n")
		writeRules(&b, importInvoiceRules)
	}

	b.WriteString("Output JSON that satisfies the following JSON Schema:\n")
	b.Write(compact.Bytes())
	return b.String(), nil
}

func writeRules(b *strings.Builder, rules []string) {
	for _, r := range rules {
		b.WriteString("- ")
		b.WriteString(r)
		b.WriteString("\n")
	}
}
