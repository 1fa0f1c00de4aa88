package model

type Asset struct {
	Hash        string           `json:"hash"`
	Width       int              `json:"width"`
	Height      int              `json:"height"`
	Size        int64            `json:"size"`
	Channel     int              `json:"channel"`
	Timestamp   string           `json:"timestamp"`
	URL         string           `json:"url"`
	Annotations []map[string]any `json:"annotations"`
	Metadata    map[string]any   `json:"metadata"`
	Keywords    []string         `json:"keywords"`
}

type AssetCollection struct {
	Items []Asset `json:"items"`
	Total int     `json:"total"`
}

type AssetQuery struct {
	DatasetID int
	Keyword   string
	Offset    int
	Limit     int
}
