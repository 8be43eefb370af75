package excel

// ExcelConfig holds configuration for the spreadsheet launch source
type ExcelConfig struct {
	FilePath string `json:"file_path"`
	Sheet    string `json:"sheet"`
}

// DefaultExcelConfig returns sensible defaults for spreadsheet processing
func DefaultExcelConfig() ExcelConfig {
	return ExcelConfig{
		Sheet: "Sheet1",
	}
}
