package model

// PageRecord is one row of a crawl's output. Shared by the agent and
// the savers for serialization (json, csv, parquet).
type PageRecord struct {
	URL         string `json:"url" parquet:"url"`
	Status      int    `json:"status" parquet:"status"`
	ContentType string `json:"content_type,omitempty" parquet:"content_type,optional"`
	Size        int64  `json:"size" parquet:"size"`
	Depth       int    `json:"depth" parquet:"depth"`
	Links       int    `json:"links" parquet:"links"`
	FetchedAt   int64  `json:"fetched_at" parquet:"fetched_at"` // Unix timestamp in milliseconds
}
