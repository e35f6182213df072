package market

// StockRecord is the unit exchanged with the news-rating service.
//
// Name carries the ticker symbol, not the company name. The field label is
// historical and is kept for wire compatibility with the rating service.
type StockRecord struct {
	Name   string `json:"name"`
	Date   int64  `json:"date"`
	Rating int    `json:"rating"`
	Sale   int    `json:"sale"`
}

// Batch is an ordered set of records sharing one creation timestamp, tagged
// with the run that produced it. A batch is created fresh each pipeline run
// and never merged across runs.
type Batch struct {
	RunID   string
	Date    int64
	Records []StockRecord
}
