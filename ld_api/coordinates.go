package ld_api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// The NCBI E-utilities esummary endpoint
const DefaultNcbiEndpoint = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils/esummary.fcgi"

// Assembly names of the positions in a VariantQuery
const (
	AssemblyGRCh37 = "grch37"
	AssemblyGRCh38 = "grch38"
)

// CoordinateResolver maps variant identifiers to genomic coordinates
type CoordinateResolver interface {
	Resolve(ctx context.Context, ids []string) ([]VariantQuery, error)
}

// NormalizeIds strips the rs prefix and drops identifiers that are empty or
// not numeric afterwards. Duplicates are kept.
func NormalizeIds(raw []string) []string {
	ids := []string{}
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if len(id) >= 2 && strings.EqualFold(id[:2], "rs") {
			id = id[2:]
		}
		if id == "" {
			continue
		}
		if _, err := strconv.ParseUint(id, 10, 64); err != nil {
			logger.Printf("Ignoring invalid variant identifier '%s'", id)
			continue
		}
		ids = append(ids, id)
	}
	return ids
}

// NCBIResolver resolves rsids with one batch request to NCBI dbSNP
type NCBIResolver struct {
	// The esummary endpoint, DefaultNcbiEndpoint when empty
	Endpoint string

	// Optional API key
	ApiKey string

	// The client used for the request, http.DefaultClient when nil
	Client *http.Client
}

// The parts of an esummary response that are used
type esummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type esummaryRecord struct {
	Chr            string `json:"chr"`
	Chrpos         string `json:"chrpos"`
	ChrposPrevAssm string `json:"chrpos_prev_assm"`
	Error          string `json:"error"`
}

func (r *NCBIResolver) Resolve(ctx context.Context, raw []string) ([]VariantQuery, error) {
	ids := NormalizeIds(raw)
	if len(ids) == 0 {
		return []VariantQuery{}, nil
	}

	endpoint := r.Endpoint
	if endpoint == "" {
		endpoint = DefaultNcbiEndpoint
	}
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	form := url.Values{}
	form.Set("db", "snp")
	form.Set("retmode", "json")
	form.Set("id", strings.Join(ids, ","))
	if r.ApiKey != "" {
		form.Set("api_key", r.ApiKey)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &LookupError{Reason: "cannot create request", Err: err}
	}
	request.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := client.Do(request)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &LookupError{Reason: "request failed", Err: err}
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode > 299 {
		return nil, &LookupError{Reason: fmt.Sprintf("unexpected status %s", response.Status)}
	}

	body, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, &LookupError{Reason: "cannot read response", Err: err}
	}

	return parseEsummary(body, ids)
}

// parseEsummary maps every uid of an esummary response to a VariantQuery.
// Every requested id must be among the uids.
func parseEsummary(body []byte, ids []string) ([]VariantQuery, error) {
	var data esummaryResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, &LookupError{Reason: "malformed response", Err: err}
	}

	rawUids, ok := data.Result["uids"]
	if !ok {
		return nil, &LookupError{Reason: "response has no result.uids"}
	}
	var uids []string
	if err := json.Unmarshal(rawUids, &uids); err != nil {
		return nil, &LookupError{Reason: "malformed result.uids", Err: err}
	}

	returned := map[string]struct{}{}
	for _, uid := range uids {
		returned[uid] = struct{}{}
	}
	for _, id := range ids {
		if _, ok := returned[id]; !ok {
			return nil, &LookupError{Id: "rs" + id, Reason: "missing from response"}
		}
	}

	queries := make([]VariantQuery, 0, len(uids))
	for _, uid := range uids {
		id := "rs" + uid

		rawRecord, ok := data.Result[uid]
		if !ok {
			return nil, &LookupError{Id: id, Reason: "missing from response"}
		}
		var record esummaryRecord
		if err := json.Unmarshal(rawRecord, &record); err != nil {
			return nil, &LookupError{Id: id, Reason: "malformed record", Err: err}
		}
		if record.Error != "" {
			return nil, &LookupError{Id: id, Reason: record.Error}
		}
		if record.Chr == "" {
			return nil, &LookupError{Id: id, Reason: "missing chr"}
		}

		grch37, err := parseChrpos(record.ChrposPrevAssm)
		if err != nil {
			return nil, &LookupError{Id: id, Reason: "invalid chrpos_prev_assm", Err: err}
		}
		grch38, err := parseChrpos(record.Chrpos)
		if err != nil {
			return nil, &LookupError{Id: id, Reason: "invalid chrpos", Err: err}
		}

		queries = append(queries, VariantQuery{
			Id:         id,
			Chromosome: record.Chr,
			PositionByAssembly: map[string]int64{
				AssemblyGRCh37: grch37,
				AssemblyGRCh38: grch38,
			},
		})
	}

	return queries, nil
}

// parseChrpos reads the position of a "chromosome:position" value
func parseChrpos(chrpos string) (int64, error) {
	_, position, ok := strings.Cut(chrpos, ":")
	if !ok {
		return 0, fmt.Errorf("expected chromosome:position, got '%s'", chrpos)
	}
	return strconv.ParseInt(position, 10, 64)
}
