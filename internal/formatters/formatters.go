package formatters

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"cvsync/internal/schema"
	"cvsync/internal/types"
)

// Formatter interface for different output formats
type Formatter interface {
	Format(data any) (string, error)
	SupportedType() string
}

// FormatterRegistry manages all available formatters
type FormatterRegistry struct {
	formatters map[string]map[string]Formatter // format -> type -> formatter
}

// NewFormatterRegistry creates a new formatter registry with default formatters
func NewFormatterRegistry() *FormatterRegistry {
	registry := &FormatterRegistry{
		formatters: make(map[string]map[string]Formatter),
	}

	// Register default formatters
	registry.RegisterFormatter("json", "any", &JSONFormatter{})
	registry.RegisterFormatter("text", "MappingResult", &MappingTextFormatter{})
	registry.RegisterFormatter("markdown", "MappingResult", &MappingMarkdownFormatter{})
	registry.RegisterFormatter("text", "ImportSummary", &ImportSummaryTextFormatter{})
	registry.RegisterFormatter("markdown", "ImportSummary", &ImportSummaryMarkdownFormatter{})
	registry.RegisterFormatter("text", "CandidateProfile", &ProfileTextFormatter{})

	return registry
}

// RegisterFormatter registers a new formatter for a specific format and data type
func (fr *FormatterRegistry) RegisterFormatter(format, dataType string, formatter Formatter) {
	if fr.formatters[format] == nil {
		fr.formatters[format] = make(map[string]Formatter)
	}
	fr.formatters[format][dataType] = formatter
}

// Format formats data using the appropriate formatter
func (fr *FormatterRegistry) Format(data any, format string) (string, error) {
	dataType := getDataType(data)

	// Try specific formatter first
	if formatters, exists := fr.formatters[format]; exists {
		if formatter, exists := formatters[dataType]; exists {
			return formatter.Format(data)
		}
		// Fall back to generic formatter
		if formatter, exists := formatters["any"]; exists {
			return formatter.Format(data)
		}
	}

	return "", fmt.Errorf("no formatter found for format '%s' and type '%s'", format, dataType)
}

// GetSupportedFormats returns all supported formats
func (fr *FormatterRegistry) GetSupportedFormats() []string {
	formats := make([]string, 0, len(fr.formatters))
	for format := range fr.formatters {
		formats = append(formats, format)
	}
	return formats
}

func getDataType(data any) string {
	switch data.(type) {
	case schema.Result:
		return "MappingResult"
	case types.ImportSummary:
		return "ImportSummary"
	case types.CandidateProfile:
		return "CandidateProfile"
	default:
		return "any"
	}
}

// JSONFormatter handles JSON formatting for any data type
type JSONFormatter struct{}

func (jf *JSONFormatter) Format(data any) (string, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return "", err
	}
	return string(jsonData), nil
}

func (jf *JSONFormatter) SupportedType() string {
	return "any"
}

// MappingTextFormatter handles text formatting for mapping results
type MappingTextFormatter struct{}

func (mtf *MappingTextFormatter) Format(data any) (string, error) {
	result, ok := data.(schema.Result)
	if !ok {
		return "", fmt.Errorf("expected schema.Result, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== SCHEMA MAPPING SUGGESTIONS ===\n\n")
	for _, key := range result.Keys {
		match := result.Suggestions[key]
		if match.Field == "" {
			output.WriteString(fmt.Sprintf("%-20s -> (no match)", key))
			if match.Method == schema.MethodConflict {
				output.WriteString(" [conflict]")
			}
			output.WriteString("\n")
			continue
		}
		output.WriteString(fmt.Sprintf("%-20s -> %-24s score=%.3f method=%s\n",
			key, match.Field, match.Score, match.Method))
	}
	output.WriteString("\n")

	output.WriteString("=== FINAL MAPPING ===\n")
	if len(result.FinalMapping) == 0 {
		output.WriteString("(empty)\n")
	} else {
		keys := make([]string, 0, len(result.FinalMapping))
		for key := range result.FinalMapping {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			output.WriteString(fmt.Sprintf("%-20s -> %s\n", key, result.FinalMapping[key]))
		}
	}
	output.WriteString("\n")

	output.WriteString("=== SUMMARY ===\n")
	output.WriteString(fmt.Sprintf("Min score : %.3f\n", result.Summary.MinScore))
	output.WriteString(fmt.Sprintf("Avg score : %.3f\n", result.Summary.AvgScore))
	output.WriteString(fmt.Sprintf("All mapped: %t\n", result.Summary.AllMapped))

	return output.String(), nil
}

func (mtf *MappingTextFormatter) SupportedType() string {
	return "MappingResult"
}

// MappingMarkdownFormatter handles markdown formatting for mapping results
type MappingMarkdownFormatter struct{}

func (mmf *MappingMarkdownFormatter) Format(data any) (string, error) {
	result, ok := data.(schema.Result)
	if !ok {
		return "", fmt.Errorf("expected schema.Result, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Schema Mapping\n\n")
	output.WriteString("## Suggestions\n\n")
	output.WriteString("| Internal Key | Remote Field | Score | Method |\n")
	output.WriteString("|---|---|---|---|\n")
	for _, key := range result.Keys {
		match := result.Suggestions[key]
		field := match.Field
		if field == "" {
			field = "*(no match)*"
		}
		method := match.Method
		if method == "" {
			method = "-"
		}
		output.WriteString(fmt.Sprintf("| %s | %s | %.3f | %s |\n", key, field, match.Score, method))
	}
	output.WriteString("\n")

	output.WriteString("## Summary\n\n")
	output.WriteString(fmt.Sprintf("- **Min score:** %.3f\n", result.Summary.MinScore))
	output.WriteString(fmt.Sprintf("- **Avg score:** %.3f\n", result.Summary.AvgScore))
	output.WriteString(fmt.Sprintf("- **All mapped:** %t\n", result.Summary.AllMapped))

	return output.String(), nil
}

func (mmf *MappingMarkdownFormatter) SupportedType() string {
	return "MappingResult"
}

// ImportSummaryTextFormatter handles text formatting for import run summaries
type ImportSummaryTextFormatter struct{}

func (istf *ImportSummaryTextFormatter) Format(data any) (string, error) {
	summary, ok := data.(types.ImportSummary)
	if !ok {
		return "", fmt.Errorf("expected ImportSummary, got %T", data)
	}

	var output strings.Builder

	output.WriteString("===== Import Summary =====\n")
	output.WriteString(fmt.Sprintf("Total files processed : %d\n", summary.Processed))
	output.WriteString(fmt.Sprintf("Inserted              : %d\n", summary.Inserted))
	output.WriteString(fmt.Sprintf("Skipped (exists)      : %d\n", summary.SkippedExists))
	output.WriteString(fmt.Sprintf("Errors                : %d\n", summary.Errors))
	output.WriteString("==========================\n\n")

	for _, detail := range summary.Details {
		switch detail.Status {
		case types.ImportInserted:
			output.WriteString(fmt.Sprintf("[INSERTED] %s -> %s (id=%s)\n", detail.File, detail.Key, detail.RecordID))
		case types.ImportSkippedExists:
			output.WriteString(fmt.Sprintf("[SKIP:EXISTS] %s -> %s\n", detail.File, detail.Key))
		case types.ImportDryRun:
			output.WriteString(fmt.Sprintf("[DRY RUN] %s -> %s\n", detail.File, detail.Key))
			if detail.Payload != nil {
				payload, err := json.MarshalIndent(detail.Payload, "", "  ")
				if err == nil {
					output.Write(payload)
					output.WriteString("\n")
				}
			}
		default:
			output.WriteString(fmt.Sprintf("[ERROR] %s -> %s\n", detail.File, detail.Error))
		}
	}

	return output.String(), nil
}

func (istf *ImportSummaryTextFormatter) SupportedType() string {
	return "ImportSummary"
}

// ImportSummaryMarkdownFormatter handles markdown formatting for import run summaries
type ImportSummaryMarkdownFormatter struct{}

func (ismf *ImportSummaryMarkdownFormatter) Format(data any) (string, error) {
	summary, ok := data.(types.ImportSummary)
	if !ok {
		return "", fmt.Errorf("expected ImportSummary, got %T", data)
	}

	var output strings.Builder

	output.WriteString("# Import Summary\n\n")
	output.WriteString(fmt.Sprintf("- **Processed:** %d\n", summary.Processed))
	output.WriteString(fmt.Sprintf("- **Inserted:** %d\n", summary.Inserted))
	output.WriteString(fmt.Sprintf("- **Skipped (exists):** %d\n", summary.SkippedExists))
	output.WriteString(fmt.Sprintf("- **Errors:** %d\n\n", summary.Errors))

	if len(summary.Details) > 0 {
		output.WriteString("## Details\n\n")
		output.WriteString("| File | Status | Key | Record |\n")
		output.WriteString("|---|---|---|---|\n")
		for _, detail := range summary.Details {
			note := detail.RecordID
			if detail.Status == types.ImportError {
				note = detail.Error
			}
			output.WriteString(fmt.Sprintf("| %s | %s | %s | %s |\n",
				detail.File, detail.Status, detail.Key, note))
		}
	}

	return output.String(), nil
}

func (ismf *ImportSummaryMarkdownFormatter) SupportedType() string {
	return "ImportSummary"
}

// ProfileTextFormatter handles text formatting for extracted candidate profiles
type ProfileTextFormatter struct{}

func (ptf *ProfileTextFormatter) Format(data any) (string, error) {
	profile, ok := data.(types.CandidateProfile)
	if !ok {
		return "", fmt.Errorf("expected CandidateProfile, got %T", data)
	}

	var output strings.Builder

	output.WriteString("=== EXTRACTED PROFILE ===\n")
	output.WriteString(fmt.Sprintf("Name            : %s\n", profile.CandidateName))
	output.WriteString(fmt.Sprintf("Email           : %s\n", profile.Email))
	output.WriteString(fmt.Sprintf("Phone           : %s\n", profile.Phone))
	output.WriteString(fmt.Sprintf("Skills          : %s\n", profile.Skills))
	output.WriteString(fmt.Sprintf("Experience (yrs): %d\n", profile.ExpYears))
	output.WriteString(fmt.Sprintf("Job Role        : %s\n", profile.JobRole))
	output.WriteString(fmt.Sprintf("Location        : %s\n", profile.CurrentLocation))
	output.WriteString(fmt.Sprintf("Salary          : %s\n", profile.Salary))
	output.WriteString(fmt.Sprintf("Notice Period   : %s\n", profile.NoticePeriod))
	output.WriteString(fmt.Sprintf("Source          : %s\n", profile.Source))
	output.WriteString(fmt.Sprintf("Status          : %s\n", profile.Status))

	return output.String(), nil
}

func (ptf *ProfileTextFormatter) SupportedType() string {
	return "CandidateProfile"
}

// Global formatter registry
var GlobalRegistry = NewFormatterRegistry()
