package search

import (
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/mapping"
)

// CollectionType is the document type used for voice collections.
const CollectionType = "collection"

// CollectionSearchFields are the analysed fields a keyword query runs against.
var CollectionSearchFields = []string{"title", "text", "series"}

func BuildIndexMapping() *mapping.IndexMappingImpl {
	idx := mapping.NewIndexMapping()
	idx.DefaultAnalyzer = standard.Name
	idx.TypeField = "type"

	// 文本
	text := mapping.NewTextFieldMapping()
	text.Store = true
	text.Index = true
	text.Analyzer = standard.Name

	// the body is searchable but not worth storing twice
	body := mapping.NewTextFieldMapping()
	body.Store = false
	body.Index = true
	body.Analyzer = standard.Name

	// 关键词
	kw := mapping.NewTextFieldMapping()
	kw.Store = true
	kw.Index = true
	kw.Analyzer = keyword.Name

	dt := mapping.NewDateTimeFieldMapping()
	dt.Store = true
	dt.Index = true

	collection := mapping.NewDocumentMapping()
	collection.Dynamic = false
	collection.AddFieldMappingsAt("title", text)
	collection.AddFieldMappingsAt("series", text)
	collection.AddFieldMappingsAt("text", body)
	collection.AddFieldMappingsAt("category", kw)
	collection.AddFieldMappingsAt("user_id", kw)
	collection.AddFieldMappingsAt("created_at", dt)
	idx.AddDocumentMapping(CollectionType, collection)

	def := mapping.NewDocumentMapping()
	def.Dynamic = false
	idx.DefaultMapping = def
	return idx
}
