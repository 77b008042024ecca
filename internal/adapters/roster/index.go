package roster

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/liendesk/collections-tracker/internal/core"
)

// Header aliases the office spreadsheets have used over the years, all
// lowercased with spaces and underscores squeezed out.
var columnAliases = map[string]string{
	"pv":            "pv",
	"pvnumber":      "pv",
	"pv#":           "pv",
	"cms":           "cms",
	"cmsnumber":     "cms",
	"name":          "name",
	"patientname":   "name",
	"patient":       "name",
	"attorneyemail": "attorney_email",
	"email":         "attorney_email",
	"attorney":      "attorney_email",
	"lawfirm":       "law_firm",
	"firm":          "law_firm",
	"doi":           "doi",
	"dateofinjury":  "doi",
	"status":        "status",
	"casestatus":    "status",
}

// Index is the read-only case roster loaded from the office CSV export.
// Normalization happens once here; the rest of the system sees clean
// CaseRecord values only.
type Index struct {
	cases []core.CaseRecord
	byPV  map[string]*core.CaseRecord
}

// LoadIndex reads the roster CSV at path. Rows without a PV are dropped
// with a warning; a duplicate PV keeps the first row.
func LoadIndex(path string, logger *zap.Logger) (*Index, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open roster: %w", err)
	}
	defer f.Close()

	idx, err := parse(f, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to parse roster %s: %w", path, err)
	}
	logger.Info("Roster loaded", zap.String("path", path), zap.Int("cases", len(idx.cases)))
	return idx, nil
}

func parse(r io.Reader, logger *zap.Logger) (*Index, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("missing header row: %w", err)
	}
	cols := make(map[string]int)
	for i, h := range header {
		key := strings.ToLower(h)
		key = strings.NewReplacer(" ", "", "_", "", "\ufeff", "").Replace(key)
		if canonical, ok := columnAliases[key]; ok {
			if _, dup := cols[canonical]; !dup {
				cols[canonical] = i
			}
		}
	}
	if _, ok := cols["pv"]; !ok {
		return nil, fmt.Errorf("roster has no PV column")
	}

	field := func(row []string, name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	idx := &Index{}
	seen := make(map[string]bool)
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			logger.Warn("Skipping malformed roster row", zap.Int("line", line), zap.Error(err))
			continue
		}
		pv := field(row, "pv")
		if pv == "" {
			logger.Warn("Skipping roster row without PV", zap.Int("line", line))
			continue
		}
		if seen[pv] {
			logger.Warn("Duplicate PV in roster, keeping first",
				zap.Int("line", line), zap.String("pv", pv))
			continue
		}
		seen[pv] = true
		rec := core.CaseRecord{
			PV:            pv,
			CMS:           field(row, "cms"),
			Name:          field(row, "name"),
			AttorneyEmail: field(row, "attorney_email"),
			LawFirm:       field(row, "law_firm"),
			DOI:           field(row, "doi"),
			Status:        field(row, "status"),
		}
		idx.cases = append(idx.cases, rec)
	}

	idx.byPV = make(map[string]*core.CaseRecord, len(idx.cases))
	for i := range idx.cases {
		idx.byPV[idx.cases[i].PV] = &idx.cases[i]
	}
	return idx, nil
}

// LookupByPV returns the case record for a PV number.
func (i *Index) LookupByPV(pv string) (*core.CaseRecord, bool) {
	rec, ok := i.byPV[strings.TrimSpace(pv)]
	return rec, ok
}

// AllCases returns a copy of every roster record.
func (i *Index) AllCases() []core.CaseRecord {
	out := make([]core.CaseRecord, len(i.cases))
	copy(out, i.cases)
	return out
}
