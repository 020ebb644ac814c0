package api

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"trade-eda/internal/domain"
	"trade-eda/internal/filter"
	"trade-eda/internal/pipeline"
)

const dateLayout = "2006-01-02"

// dashboardQuery holds the parsed dashboard query string.
type dashboardQuery struct {
	params  *filter.Params // nil when no filter parameter was given
	preview *int           // nil means the dashboard default
}

// parseDashboardQuery reads start, end, repeated contract and preview.
// Parameters left out keep their default value for ds.
func parseDashboardQuery(r *http.Request, d *pipeline.Dashboard, ds *domain.Dataset) (dashboardQuery, error) {
	var q dashboardQuery
	values := r.URL.Query()

	start, end := values.Get("start"), values.Get("end")
	contracts := values["contract"]

	if start != "" || end != "" || len(contracts) > 0 {
		p := d.DefaultParams(ds)
		if start != "" {
			t, err := time.Parse(dateLayout, start)
			if err != nil {
				return q, fmt.Errorf("%w: start must be YYYY-MM-DD, got %q", errBadParam, start)
			}
			p.Start = t
		}
		if end != "" {
			t, err := time.Parse(dateLayout, end)
			if err != nil {
				return q, fmt.Errorf("%w: end must be YYYY-MM-DD, got %q", errBadParam, end)
			}
			p.End = t
		}
		if p.End.Before(p.Start) {
			return q, fmt.Errorf("%w: end %s is before start %s", errBadParam,
				p.End.Format(dateLayout), p.Start.Format(dateLayout))
		}
		p.Contracts = contracts
		q.params = &p
	}

	if v := values.Get("preview"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return q, fmt.Errorf("%w: preview must be a non-negative integer, got %q", errBadParam, v)
		}
		q.preview = &n
	}

	return q, nil
}
