// Package model holds the read models exchanged with the dataset API and
// kept in the store.
package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// State is the lifecycle stage of a dataset. Larger values are further
// along; the named values exist for readability only.
type State int

const (
	StatePending State = 1
	StateRunning State = 2
	StateValid   State = 3
	StateInvalid State = 4
)

type Dataset struct {
	ID          int       `json:"id"`
	GroupID     int       `json:"group_id,omitempty"`
	ProjectID   int       `json:"project_id,omitempty"`
	Name        string    `json:"name,omitempty"`
	VersionNum  int       `json:"version_num,omitempty"`
	Hash        string    `json:"hash,omitempty"`
	State       State     `json:"state,omitempty"`
	Progress    int       `json:"progress,omitempty"`
	AssetCount  int       `json:"asset_count,omitempty"`
	Keywords    []string  `json:"keywords,omitempty"`
	Description string    `json:"description,omitempty"`
	TaskID      int       `json:"task_id,omitempty"`
	CreateTime  time.Time `json:"create_datetime,omitzero"`

	// ForceUpdate asks the UI to redraw the row at once instead of
	// interpolating the progress bar.
	ForceUpdate bool `json:"forceUpdate,omitempty"`
}

// DatasetCollection is one page of datasets. Total is the logical count
// and may exceed len(Items).
type DatasetCollection struct {
	Items []Dataset `json:"items"`
	Total int       `json:"total"`
}

// RankedPair is a dataset id with its reference count, encoded as [id, count].
type RankedPair struct {
	ID    int
	Count int
}

func (p RankedPair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]int{p.ID, p.Count})
}

func (p *RankedPair) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("ranked pair: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("ranked pair: expected [id, count], got %d elements", len(pair))
	}
	p.ID, p.Count = pair[0], pair[1]
	return nil
}

// HotRankingEntry is a dataset detail record carrying its ranking count.
type HotRankingEntry struct {
	Dataset
	Count int `json:"count"`
}

type DatasetQuery struct {
	ProjectID int
	GroupID   int
	Name      string
	State     State
	IsPublic  bool
	Offset    int
	Limit     int
}

type CreateDatasetParams struct {
	ProjectID   int    `json:"project_id"`
	GroupID     int    `json:"group_id,omitempty"`
	Name        string `json:"name"`
	Type        int    `json:"type,omitempty"`
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
}

type UpdateDatasetParams struct {
	ID          int    `json:"-"`
	Name        string `json:"name,omitempty"`
	Description string `json:"description,omitempty"`
}
