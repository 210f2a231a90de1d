package catalog

import "testing"

func TestListIndustries_OrderedAndNonEmpty(t *testing.T) {
    got := ListIndustries()
    if len(got) < 5 {
        t.Fatalf("only %d industries", len(got))
    }
    if got[0].Name != "银行" || got[0].Code != "BK_BANK" {
        t.Fatalf("first industry = %+v", got[0])
    }
    for _, ind := range got {
        if len(ind.Stocks) == 0 {
            t.Fatalf("industry %s has no stocks", ind.Name)
        }
    }
}

func TestDuplicateSymbolsAcrossIndustriesTolerated(t *testing.T) {
    count := 0
    for _, ind := range ListIndustries() {
        for _, e := range ind.Stocks {
            if e.Code == "002594.SZ" { count++ }
        }
    }
    if count < 2 {
        t.Fatalf("002594.SZ appears %d times, want it under multiple industries", count)
    }
}

func TestFind(t *testing.T) {
    e, ok := Find("600036.SH")
    if !ok || e.Name != "招商银行" {
        t.Fatalf("Find = %+v %v", e, ok)
    }
    if _, ok := Find("999999.SH"); ok {
        t.Fatal("unknown code found")
    }
}

func TestCodes_Distinct(t *testing.T) {
    codes := Codes()
    seen := make(map[string]bool)
    for _, c := range codes {
        if seen[c] {
            t.Fatalf("duplicate code %s in Codes()", c)
        }
        seen[c] = true
    }
    if len(codes) < 40 {
        t.Fatalf("catalog unexpectedly small: %d codes", len(codes))
    }
}
