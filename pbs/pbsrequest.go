package pbs

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/golang/glog"
	"github.com/mxmCherry/openrtb"
	"github.com/spf13/viper"
)

const MAX_BIDDERS = 8

// SizeToken is one entry of an ad unit's "sizes" list. Header bidding clients
// send a mix of shapes in the same array: [w,h] integer pairs, "WxH" strings,
// and the special tokens "native" and "fullwidth". Entries are kept raw and
// interpreted by each adapter.
type SizeToken = json.RawMessage

type Bids struct {
	BidderCode string          `json:"bidder"`
	BidID      string          `json:"bid_id"`
	Params     json.RawMessage `json:"params"`
}

type AdUnit struct {
	Code     string      `json:"code"`
	TopFrame int8        `json:"is_top_frame"`
	Sizes    []SizeToken `json:"sizes"`
	Bids     []Bids      `json:"bids"`
}

type PBSAdUnit struct {
	Sizes    []SizeToken
	TopFrame int8
	Code     string
	BidID    string
	Params   json.RawMessage
}

type PBSBidder struct {
	BidderCode   string         `json:"bidder"`
	ResponseTime int            `json:"response_time_ms,omitempty"`
	NumBids      int            `json:"num_bids,omitempty"`
	Error        string         `json:"error,omitempty"`
	NoCookie     bool           `json:"no_cookie,omitempty"`
	NoBid        bool           `json:"no_bid,omitempty"`
	UsersyncInfo *UsersyncInfo  `json:"usersync,omitempty"`
	Debug        []*BidderDebug `json:"debug,omitempty"`

	AdUnits []PBSAdUnit `json:"-"`
}

func (bidder *PBSBidder) LookupBidID(Code string) string {
	for _, unit := range bidder.AdUnits {
		if unit.Code == Code {
			return unit.BidID
		}
	}
	return ""
}

type PBSRequest struct {
	AccountID     string          `json:"account_id"`
	Tid           string          `json:"tid"`
	SortBids      int8            `json:"sort_bids"`
	TimeoutMillis uint64          `json:"timeout_millis"`
	AdUnits       []AdUnit        `json:"ad_units"`
	IsDebug       bool            `json:"is_debug"`
	App           *openrtb.App    `json:"app"`
	Device        *openrtb.Device `json:"device"`
	User          *openrtb.User   `json:"user"`

	// internal
	Bidders []*PBSBidder `json:"-"`
	Start   time.Time    `json:"-"`
}

func ParsePBSRequest(r *http.Request) (*PBSRequest, error) {
	defer r.Body.Close()

	pbsReq := &PBSRequest{}
	err := json.NewDecoder(r.Body).Decode(&pbsReq)
	if err != nil {
		return nil, err
	}
	pbsReq.Start = time.Now()

	if len(pbsReq.AdUnits) == 0 {
		return nil, fmt.Errorf("No ad units specified")
	}

	if pbsReq.TimeoutMillis == 0 || pbsReq.TimeoutMillis > 2000 {
		pbsReq.TimeoutMillis = uint64(viper.GetInt("default_timeout_ms"))
	}

	if pbsReq.Device == nil {
		pbsReq.Device = &openrtb.Device{}
	}
	if pbsReq.User == nil {
		pbsReq.User = &openrtb.User{}
	}
	pbsReq.Device.UA = r.Header.Get("User-Agent")

	if r.FormValue("debug") == "1" {
		pbsReq.IsDebug = true
	}

	pbsReq.Bidders = make([]*PBSBidder, 0, MAX_BIDDERS)

	for _, unit := range pbsReq.AdUnits {
		if glog.V(2) {
			glog.Infof("Ad unit %s has %d bidders for %d sizes", unit.Code, len(unit.Bids), len(unit.Sizes))
		}

		for _, b := range unit.Bids {
			var bidder *PBSBidder
			for _, pb := range pbsReq.Bidders {
				if pb.BidderCode == b.BidderCode {
					bidder = pb
				}
			}
			if bidder == nil {
				bidder = &PBSBidder{BidderCode: b.BidderCode}
				pbsReq.Bidders = append(pbsReq.Bidders, bidder)
			}
			if b.BidID == "" {
				b.BidID = fmt.Sprintf("%d", rand.Int63())
			}

			pau := PBSAdUnit{
				Sizes:    unit.Sizes,
				TopFrame: unit.TopFrame,
				Code:     unit.Code,
				Params:   b.Params,
				BidID:    b.BidID,
			}

			bidder.AdUnits = append(bidder.AdUnits, pau)
		}
	}

	return pbsReq, nil
}

func (req PBSRequest) Elapsed() int {
	return int(time.Since(req.Start) / 1000000)
}

func (p PBSRequest) String() string {
	b, _ := json.MarshalIndent(p, "", "    ")
	return string(b)
}
