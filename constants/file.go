package constants

// PDFGlobs are the patterns the batch runner matches inside an input folder.
var PDFGlobs = []string{"*.pdf", "*.PDF"}
