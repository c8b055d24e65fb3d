// Package documents holds the normalized trade-document records and the parser
// that builds them from decoded model output.
package documents

import "github.com/joseph-ayodele/tradedoc-extract/constants"

// Record is a parsed document of either supported type.
type Record interface {
	DocType() constants.DocType
}

// Every field is independently optional. JSON tags carry no omitempty so the
// normalized artifact always lists every field, absent ones as null.

type PackingInfo struct {
	ContainersOfPkgs *string  `json:"containers_of_pkgs"`
	GrossWeight      *string  `json:"gross_weight"`
	Measurement      *string  `json:"measurement"`
	PackageCount     *float64 `json:"package_count"`
	ContainerCount   *float64 `json:"container_count"`
	GrossWeightKG    *float64 `json:"gross_weight_kg"`
	MeasurementCBM   *float64 `json:"measurement_cbm"`
}

type BillOfLading struct {
	Carrier         *string      `json:"carrier"`
	BLNo            *string      `json:"bl_no"`
	BLType          *string      `json:"bl_type"`
	PortOfLoading   *string      `json:"port_of_loading"`
	PortOfDischarge *string      `json:"port_of_discharge"`
	Packing         *PackingInfo `json:"packing"`
	OnboardDate     *string      `json:"onboard_date"`
	IssueDate       *string      `json:"issue_date"`
	ShipmentDate    *string      `json:"shipment_date"`
}

func (BillOfLading) DocType() constants.DocType { return constants.DocTypeBL }

type ImportInvoiceItem struct {
	LineNo       *int     `json:"line_no"`
	Description  *string  `json:"description"`
	MaterialCode *string  `json:"material_code"`
	TIPartNumber *string  `json:"ti_part_number"`
	CustomerPO   *string  `json:"customer_po"`
	HSCode       *string  `json:"hs_code"`
	Quantity     *float64 `json:"quantity"`
	UOM          *string  `json:"uom"`
	UnitPrice    *float64 `json:"unit_price"`
	Amount       *float64 `json:"amount"`
}

type ImportInvoice struct {
	InvoiceNo       *string             `json:"invoice_no"`
	InvoiceDate     *string             `json:"invoice_date"`
	SellerName      *string             `json:"seller_name"`
	BuyerName       *string             `json:"buyer_name"`
	Currency        *string             `json:"currency"`
	TotalAmount     *float64            `json:"total_amount"`
	Incoterms       *string             `json:"incoterms"`
	PaymentTerms    *string             `json:"payment_terms"`
	CountryOfOrigin *string             `json:"country_of_origin"`
	Items           []ImportInvoiceItem `json:"items"` // never nil
}

func (ImportInvoice) DocType() constants.DocType { return constants.DocTypeImportInvoice }
