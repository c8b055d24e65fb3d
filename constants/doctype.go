package constants

import (
	"fmt"
	"strings"
)

// DocType identifies which trade document a PDF carries.
type DocType string

const (
	DocTypeBL            DocType = "bl"
	DocTypeImportInvoice DocType = "import_invoice"
)

// DocTypes lists the supported values in CLI order.
var DocTypes = []DocType{DocTypeBL, DocTypeImportInvoice}

// ParseDocType accepts the CLI spelling of a document type.
func ParseDocType(s string) (DocType, error) {
	switch DocType(strings.ToLower(strings.TrimSpace(s))) {
	case DocTypeBL:
		return DocTypeBL, nil
	case DocTypeImportInvoice:
		return DocTypeImportInvoice, nil
	default:
		return "", fmt.Errorf("unsupported document type %q (want bl|import_invoice)", s)
	}
}

// Label is the human-readable type label embedded in the prompt.
func (d DocType) Label() string {
	switch d {
	case DocTypeBL:
		return "Bill of Lading (B/L)"
	case DocTypeImportInvoice:
		return "Import Invoice (수입 인보이스)"
	default:
		return string(d)
	}
}

// SchemaFile is the schema file name under the config directory.
func (d DocType) SchemaFile() string {
	return string(d) + "_schema.json"
}
