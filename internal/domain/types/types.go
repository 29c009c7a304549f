// Package types contains request and response shapes shared by the service
// and the HTTP API.
package types

import "github.com/okian/trackcast/internal/domain/model"

// PredictRequest is the body of POST /predict.
type PredictRequest struct {
	// BatchID is optional; the service assigns one when empty.
	BatchID   string       `json:"batch_id,omitempty"`
	Test      *model.Batch `json:"test"`
	TestInput *model.Batch `json:"test_input,omitempty"`
}

// PredictResponse carries one prediction per input row, in row order.
type PredictResponse struct {
	BatchID     string        `json:"batch_id"`
	Predictions []model.Point `json:"predictions"`
}

// StateView is the stored state of one entity.
type StateView struct {
	Key   string      `json:"key"`
	ID    model.Key   `json:"id"`
	State model.State `json:"state"`
}

// Stats summarises the running service.
type Stats struct {
	Started      bool    `json:"started"`
	Ready        bool    `json:"ready"`
	Entities     int     `json:"entities"`
	Batches      int64   `json:"batches"`
	Rows         int64   `json:"rows"`
	LastBatchID  string  `json:"last_batch_id,omitempty"`
	Partitions   int     `json:"partitions"`
	MaxEntities  int     `json:"max_entities"`
	MaxBatchRows int     `json:"max_batch_rows"`
	Alpha        float64 `json:"smoothing_alpha"`
	DTFloor      float64 `json:"dt_floor"`
}
