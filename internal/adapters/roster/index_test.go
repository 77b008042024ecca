package roster

import (
	"strings"
	"testing"

	"go.uber.org/zap"
)

func parseCSV(t *testing.T, csv string) *Index {
	t.Helper()
	idx, err := parse(strings.NewReader(csv), zap.NewNop())
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return idx
}

func TestParseRoster(t *testing.T) {
	idx := parseCSV(t, `PV,CMS,Patient Name,Attorney Email,Law Firm,DOI,Status
1001,CMS-777,"SMITH, JOHN",attorney@firm.example,Firm LLP,2022-03-15,active
1002,,"JONES, MARY",other@firm.example,Other LLP,,negotiating
`)

	cases := idx.AllCases()
	if len(cases) != 2 {
		t.Fatalf("loaded %d cases, want 2", len(cases))
	}

	cs, ok := idx.LookupByPV("1001")
	if !ok {
		t.Fatalf("PV 1001 missing")
	}
	if cs.Name != "SMITH, JOHN" || cs.CMS != "CMS-777" || cs.LawFirm != "Firm LLP" {
		t.Errorf("case = %+v", cs)
	}
	if cs.AttorneyEmail != "attorney@firm.example" || cs.DOI != "2022-03-15" {
		t.Errorf("case = %+v", cs)
	}
}

func TestHeaderAliases(t *testing.T) {
	idx := parseCSV(t, `pv number,name,email,date of injury
1001,"DOE, JANE",a@b.example,03/15/2022
`)
	cs, ok := idx.LookupByPV("1001")
	if !ok {
		t.Fatalf("PV 1001 missing")
	}
	if cs.AttorneyEmail != "a@b.example" || cs.DOI != "03/15/2022" {
		t.Errorf("aliased columns not mapped: %+v", cs)
	}
}

func TestRowsWithoutPVAreSkipped(t *testing.T) {
	idx := parseCSV(t, `PV,Name
1001,"SMITH, JOHN"
,"NO, PV"
  ,"BLANK, PV"
1002,"JONES, MARY"
`)
	if got := len(idx.AllCases()); got != 2 {
		t.Errorf("loaded %d cases, want 2", got)
	}
}

func TestDuplicatePVKeepsFirst(t *testing.T) {
	idx := parseCSV(t, `PV,Name
1001,"FIRST, ROW"
1001,"SECOND, ROW"
`)
	cs, _ := idx.LookupByPV("1001")
	if cs == nil || cs.Name != "FIRST, ROW" {
		t.Errorf("duplicate handling wrong: %+v", cs)
	}
	if got := len(idx.AllCases()); got != 1 {
		t.Errorf("loaded %d cases, want 1", got)
	}
}

func TestMissingPVColumn(t *testing.T) {
	if _, err := parse(strings.NewReader("Name,Email\na,b\n"), zap.NewNop()); err == nil {
		t.Errorf("roster without a PV column must be rejected")
	}
}

func TestLookupTrimsWhitespace(t *testing.T) {
	idx := parseCSV(t, "PV,Name\n1001,\"SMITH, JOHN\"\n")
	if _, ok := idx.LookupByPV("  1001 "); !ok {
		t.Errorf("lookup must trim the PV")
	}
}
