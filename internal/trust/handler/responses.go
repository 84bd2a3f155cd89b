package handler

import (
	"time"

	"trustdash/internal/trust/models"
)

// RowResponse is one dashboard row.
type RowResponse struct {
	Date     time.Time `json:"date"`
	Relation string    `json:"relation"`
	Address  string    `json:"address"`
	Action   string    `json:"action"`
}

// TrustsResponse is the trust table for an account.
type TrustsResponse struct {
	Account  string        `json:"account"`
	Rows     []RowResponse `json:"rows"`
	Pending  int           `json:"pending"`
	LoadedAt *time.Time    `json:"loaded_at,omitempty"`
}

func toTrustsResponse(account string, view models.View) TrustsResponse {
	rows := view.Rows()
	resp := TrustsResponse{
		Account: account,
		Rows:    make([]RowResponse, 0, len(rows)),
		Pending: len(view.Pending),
	}
	for _, row := range rows {
		resp.Rows = append(resp.Rows, RowResponse{
			Date:     row.Date,
			Relation: row.Relation,
			Address:  row.Address,
			Action:   row.Action,
		})
	}
	if view.Loaded() {
		loadedAt := view.LoadedAt
		resp.LoadedAt = &loadedAt
	}
	return resp
}
