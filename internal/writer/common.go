package writer

import (
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/rickgao/iex-recon/internal/book"
	"github.com/rickgao/iex-recon/internal/model"
)

// DefaultOutputPath names the JSON-lines output for an instrument filter:
// "<instrument>_events.txt", or "all_events.txt" when instrument is empty.
func DefaultOutputPath(instrument string) string {
	if instrument == "" {
		return "all_events.txt"
	}
	return instrument + "_events.txt"
}

// pgUUID converts a uuid to its pgtype form. A nil pointer is NULL.
func pgUUID(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgtype.UUID{Bytes: *id, Valid: true}
}

// priceLevelJSON represents a price level in JSONB format.
type priceLevelJSON struct {
	Price int64 `json:"price"`
	Size  int64 `json:"size"`
}

// levelsToJSONB converts book levels to JSONB bytes.
func levelsToJSONB(levels []book.Level) []byte {
	result := make([]priceLevelJSON, len(levels))
	for i, level := range levels {
		result[i] = priceLevelJSON{
			Price: int64(level.Price),
			Size:  level.Size,
		}
	}
	data, _ := json.Marshal(result)
	return data
}

// optionalPrice returns a pointer to p when ok, for nullable columns.
func optionalPrice(p model.Price, ok bool) *int64 {
	if !ok {
		return nil
	}
	v := int64(p)
	return &v
}
