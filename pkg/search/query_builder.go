package search

import (
	"strings"

	"github.com/blevesearch/bleve/v2"
	q "github.com/blevesearch/bleve/v2/search/query"
)

func buildQuery(req SearchRequest, defaultFields []string) q.Query {
	var must []q.Query

	// keyword: match on any of the text fields
	if kw := strings.TrimSpace(req.Keyword); kw != "" {
		fields := req.SearchFields
		if len(fields) == 0 {
			fields = defaultFields
		}
		if len(fields) == 0 {
			must = append(must, bleve.NewMatchQuery(kw))
		} else {
			perField := make([]q.Query, 0, len(fields))
			for _, f := range fields {
				mq := bleve.NewMatchQuery(kw)
				mq.SetField(f)
				perField = append(perField, mq)
			}
			must = append(must, bleve.NewDisjunctionQuery(perField...))
		}
	}

	for f, vs := range req.MustTerms {
		switch len(vs) {
		case 0:
		case 1:
			tq := bleve.NewTermQuery(vs[0])
			tq.SetField(f)
			must = append(must, tq)
		default:
			alts := make([]q.Query, 0, len(vs))
			for _, v := range vs {
				tq := bleve.NewTermQuery(v)
				tq.SetField(f)
				alts = append(alts, tq)
			}
			must = append(must, bleve.NewDisjunctionQuery(alts...))
		}
	}

	if len(must) == 0 {
		return bleve.NewMatchAllQuery()
	}
	return bleve.NewConjunctionQuery(must...)
}
