package testutil

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Fixture CSV bodies keyed by dataset name. The numbers are chosen so that the
// dashboard statistics are easy to check by hand:
//
//	full range 2019-2021: avg Close 14, avg Growth 1, avg Volume 2500,
//	loss totals 400 / 200 / 120 / 30, grand total 750
//	range 2020-2020: avg Close 14, avg Growth -0.5, avg Volume 2000,
//	loss totals 0 / 200 / 0 / 20, grand total 220
var FixtureCSV = map[string]string{
	"loss": `Year,institutional_loan,pp,bond_value,common_stock
2019,100,-,50,10
2020,-,200,-,20
2021,300,-,70,-
`,
	"price": `Date,Close,Growth,Volume,Year
2019-03-01,10,0.5,1000,2019
2019-06-03,12,1.5,3000,2019
2020-01-02,14,-0.5,2000,2020
2021-02-01,20,2.5,4000,2021
`,
	"timeline": `Start Date,REMARK
2019-06-03,Capacity expansion
2021-02-01,Debt restructuring
2021-02-01,Second remark for the same day
`,
	"stark_sh": `name,type,sh
Alpha Holdings,institution,35.5
Beta Fund,institution,20
Retail investors,individual,n/a
Founder,individual,44.5
`,
	"incomecom": `Year,Value,type
2019,500,revenue
2019,120,profit
2020,650,revenue
2020,150,profit
`,
	"income": `year,value,type
2019,400,sales
2019,100,service
2020,450,sales
2020,120,service
`,
	"financial": `year,value,type
2019,1000,asset
2019,600,liability
2020,1100,asset
2020,650,liability
`,
	"capacity": `year,value,type
2019,1200,capacity
2019,0.75,percapacity
2020,1500,capacity
2020,0.82,percapacity
`,
}

// FixtureServer serves every fixture at /<name>.csv and answers 404 otherwise
func FixtureServer(t *testing.T) *httptest.Server {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		name := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/"), ".csv")
		body, ok := FixtureCSV[name]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// FixtureURLs maps each dataset name to its URL on srv
func FixtureURLs(srv *httptest.Server) map[string]string {
	urls := make(map[string]string, len(FixtureCSV))
	for name := range FixtureCSV {
		urls[name] = srv.URL + "/" + name + ".csv"
	}
	return urls
}

// WriteFixtures writes every fixture to <dir>/<name>.csv and returns the paths
func WriteFixtures(t *testing.T, dir string) map[string]string {
	t.Helper()

	paths := make(map[string]string, len(FixtureCSV))
	for name, body := range FixtureCSV {
		p := filepath.Join(dir, name+".csv")
		if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
		paths[name] = p
	}
	return paths
}
