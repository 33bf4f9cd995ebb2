package aggregate

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/goccy/go-json"
)

// EncodeJSON writes the summary as indented JSON. Enum fields serialize as
// their string values and the analysis timestamp as RFC 3339.
func EncodeJSON(w io.Writer, s ComprehensiveCostSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("encoding cost summary: %w", err)
	}
	return nil
}

// WriteCSV writes one row per resource with the classification and cost
// columns reporting tools expect.
func WriteCSV(w io.Writer, s ComprehensiveCostSummary) error {
	cw := csv.NewWriter(w)
	header := []string{
		"Resource ID", "Resource Name", "Resource Type", "Service", "Region",
		"Cost Category", "Cost Priority", "Monthly Cost", "Is Estimated", "Pricing Source",
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}
	for _, r := range s.ResourceSummaries {
		row := []string{
			r.ResourceID,
			r.ResourceName,
			string(r.ResourceType),
			r.Service,
			r.Region,
			string(r.CostCategory),
			string(r.CostPriority),
			strconv.FormatFloat(r.TotalCost, 'f', 2, 64),
			strconv.FormatBool(r.IsEstimated),
			r.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", r.ResourceID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flushing csv: %w", err)
	}
	return nil
}
