// Package sap projects parsed trade documents onto the flat ERP payload contract.
package sap

import (
	"bytes"
	"encoding/json"
	"sort"

	"github.com/joseph-ayodele/tradedoc-extract/internal/documents"
)

// Payload is a flat mapping of upper-case SAP field names to primitive values
// or nil. ITEMS on invoice payloads is the only nested value.
type Payload map[string]any

// Key sets, in contract order.
var (
	BillOfLadingKeys = []string{
		"BL_NO", "CARRIER", "POL", "POD", "SHIPMENT_DATE",
		"PACKING_CONTAINERS", "PACKING_GROSS_WEIGHT", "PACKING_MEASUREMENT",
	}
	ImportInvoiceKeys = []string{
		"INVOICE_NO", "INVOICE_DATE", "SELLER_NAME", "BUYER_NAME", "CURRENCY",
		"TOTAL_AMOUNT", "INCOTERMS", "PAYMENT_TERMS", "COUNTRY_OF_ORIGIN", "ITEMS",
	}
	InvoiceItemKeys = []string{
		"LINE_NO", "MATERIAL_CODE", "TI_PART_NUMBER", "CUSTOMER_PO", "DESCRIPTION",
		"HS_CODE", "QTY", "UOM", "UNIT_PRICE", "AMOUNT",
	}
)

func MapBillOfLading(bl documents.BillOfLading) Payload {
	var packing documents.PackingInfo
	if bl.Packing != nil {
		packing = *bl.Packing
	}
	return Payload{
		"BL_NO":                val(bl.BLNo),
		"CARRIER":              val(bl.Carrier),
		"POL":                  val(bl.PortOfLoading),
		"POD":                  val(bl.PortOfDischarge),
		"SHIPMENT_DATE":        val(bl.ShipmentDate),
		"PACKING_CONTAINERS":   val(packing.ContainersOfPkgs),
		"PACKING_GROSS_WEIGHT": val(packing.GrossWeight),
		"PACKING_MEASUREMENT":  val(packing.Measurement),
	}
}

func MapImportInvoice(inv documents.ImportInvoice) Payload {
	items := make([]Payload, 0, len(inv.Items))
	for _, it := range inv.Items {
		items = append(items, Payload{
			"LINE_NO":        val(it.LineNo),
			"MATERIAL_CODE":  val(it.MaterialCode),
			"TI_PART_NUMBER": val(it.TIPartNumber),
			"CUSTOMER_PO":    val(it.CustomerPO),
			"DESCRIPTION":    val(it.Description),
			"HS_CODE":        val(it.HSCode),
			"QTY":            val(it.Quantity),
			"UOM":            val(it.UOM),
			"UNIT_PRICE":     val(it.UnitPrice),
			"AMOUNT":         val(it.Amount),
		})
	}
	return Payload{
		"INVOICE_NO":        val(inv.InvoiceNo),
		"INVOICE_DATE":      val(inv.InvoiceDate),
		"SELLER_NAME":       val(inv.SellerName),
		"BUYER_NAME":        val(inv.BuyerName),
		"CURRENCY":          val(inv.Currency),
		"TOTAL_AMOUNT":      val(inv.TotalAmount),
		"INCOTERMS":         val(inv.Incoterms),
		"PAYMENT_TERMS":     val(inv.PaymentTerms),
		"COUNTRY_OF_ORIGIN": val(inv.CountryOfOrigin),
		"ITEMS":             items,
	}
}

// Map dispatches on the concrete record type.
func Map(rec documents.Record) Payload {
	switch r := rec.(type) {
	case documents.BillOfLading:
		return MapBillOfLading(r)
	case documents.ImportInvoice:
		return MapImportInvoice(r)
	default:
		return nil
	}
}

// Items returns the line-item payloads of an invoice payload.
func (p Payload) Items() []Payload {
	items, _ := p["ITEMS"].([]Payload)
	return items
}

// contractOrder ranks every known key; the three key sets do not overlap.
var contractOrder = func() map[string]int {
	rank := map[string]int{}
	for _, keys := range [][]string{BillOfLadingKeys, ImportInvoiceKeys, InvoiceItemKeys} {
		for _, k := range keys {
			rank[k] = len(rank)
		}
	}
	return rank
}()

// MarshalJSON writes keys in contract order. Unknown keys follow, sorted.
func (p Payload) MarshalJSON() ([]byte, error) {
	if p == nil {
		return []byte("null"), nil
	}
	keys := make([]string, 0, len(p))
	for k := range p {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		ri, iok := contractOrder[keys[i]]
		rj, jok := contractOrder[keys[j]]
		switch {
		case iok && jok:
			return ri < rj
		case iok != jok:
			return iok
		default:
			return keys[i] < keys[j]
		}
	})

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	buf.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1) // Encode appends a newline
		buf.WriteByte(':')
		if err := enc.Encode(p[k]); err != nil {
			return nil, err
		}
		buf.Truncate(buf.Len() - 1)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// val dereferences an optional field, keeping absence as an untyped nil.
func val[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
