package pbs

// BidStatus is the standardized per-slot outcome reported back to the caller.
type BidStatus int

const (
	StatusGood  BidStatus = 1
	StatusNoBid BidStatus = 2
)

type PBSBid struct {
	BidID      string    `json:"bid_id"`
	AdUnitCode string    `json:"code"`
	BidderCode string    `json:"bidder"`
	StatusCode BidStatus `json:"status_code"`
	// Price is the CPM in decimal currency units.
	Price        float64 `json:"price"`
	Adm          string  `json:"adm,omitempty"`
	Width        uint64  `json:"width,omitempty"`
	Height       uint64  `json:"height,omitempty"`
	ResponseTime int     `json:"response_time_ms,omitempty"`

	// Network-specific passthrough, set by adapters that echo demand-side
	// identifiers alongside the standardized fields.
	NetworkTag         string `json:"network_tag,omitempty"`
	NetworkBidID       string `json:"network_bid_id,omitempty"`
	NetworkFormat      string `json:"network_format,omitempty"`
	NetworkPlacementID string `json:"network_placement_id,omitempty"`
}

type PBSBidSlice []*PBSBid

func (bids PBSBidSlice) Len() int {
	return len(bids)
}

func (bids PBSBidSlice) Less(i, j int) bool {
	bid1 := bids[i]
	bid2 := bids[j]
	if bid1.Price == bid2.Price {
		return bid1.ResponseTime < bid2.ResponseTime
	}
	return bid1.Price > bid2.Price
}

func (bids PBSBidSlice) Swap(i, j int) {
	bids[i], bids[j] = bids[j], bids[i]
}

type BidderDebug struct {
	RequestURI   string `json:"request_uri,omitempty"`
	RequestBody  string `json:"request_body,omitempty"`
	ResponseBody string `json:"response_body,omitempty"`
	StatusCode   int    `json:"status_code,omitempty"`
}

type UsersyncInfo struct {
	URL         string `json:"url,omitempty"`
	Type        string `json:"type,omitempty"`
	SupportCORS bool   `json:"supportCORS,omitempty"`
}

type PBSResponse struct {
	TID          string       `json:"tid,omitempty"`
	Status       string       `json:"status,omitempty"`
	BidderStatus []*PBSBidder `json:"bidder_status,omitempty"`
	Bids         PBSBidSlice  `json:"bids,omitempty"`
}
