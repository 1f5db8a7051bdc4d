package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/efreitasn/matchd/internal/engine"
)

const maxBookDepth = 50

// DepthSource supplies aggregated views of the book.
type DepthSource interface {
	Depth(n int) engine.Depth
}

// BookHandler serves the top of the order book.
type BookHandler struct {
	book         DepthSource
	defaultDepth int
}

// NewBookHandler creates a new BookHandler.
func NewBookHandler(book DepthSource, defaultDepth int) *BookHandler {
	if defaultDepth < 1 || defaultDepth > maxBookDepth {
		defaultDepth = 5
	}
	return &BookHandler{book: book, defaultDepth: defaultDepth}
}

// bookResponse is the JSON response for GET /book.
type bookResponse struct {
	Bids       []engine.PriceLevel `json:"bids"`
	Asks       []engine.PriceLevel `json:"asks"`
	BidCount   int                 `json:"bid_count"`
	AskCount   int                 `json:"ask_count"`
	BestBid    *float64            `json:"best_bid"`
	BestAsk    *float64            `json:"best_ask"`
	Spread     *float64            `json:"spread"`
	SnapshotAt string              `json:"snapshot_at"`
}

// GetBook handles GET /book.
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	depth := h.defaultDepth
	if d := r.URL.Query().Get("depth"); d != "" {
		var err error
		depth, err = strconv.Atoi(d)
		if err != nil {
			WriteError(w, http.StatusBadRequest, "validation_error", "depth must be a valid integer")
			return
		}
	}
	if depth < 1 || depth > maxBookDepth {
		WriteError(w, http.StatusBadRequest, "validation_error", "depth must be between 1 and 50")
		return
	}

	d := h.book.Depth(depth)
	WriteJSON(w, http.StatusOK, bookResponse{
		Bids:       emptyIfNil(d.Bids),
		Asks:       emptyIfNil(d.Asks),
		BidCount:   d.BidCount,
		AskCount:   d.AskCount,
		BestBid:    d.BestBid,
		BestAsk:    d.BestAsk,
		Spread:     d.Spread,
		SnapshotAt: time.Now().UTC().Format("2006-01-02T15:04:05Z"),
	})
}
