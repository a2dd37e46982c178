package audiencenetwork

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"net/http"
	"net/url"

	"github.com/buger/jsonparser"
	"github.com/golang/glog"
	"golang.org/x/net/context/ctxhttp"

	"github.com/headerbid/fan-bidder/adapters"
	"github.com/headerbid/fan-bidder/errortypes"
	"github.com/headerbid/fan-bidder/pbs"
)

// bidderTag is echoed on every bid so ad server line items can key off the
// demand source.
const bidderTag = "fb"

type AudienceNetworkAdapter struct {
	http *adapters.HTTPAdapter
	URI  string

	// report receives one message per dropped ad unit and per network-level
	// error string. Overridable so hosts (and tests) can capture them.
	report func(msg string)
}

// adapter name
func (a *AudienceNetworkAdapter) Name() string {
	return "audienceNetwork"
}

// used for cookies and such
func (a *AudienceNetworkAdapter) FamilyName() string {
	return "audienceNetwork"
}

func (a *AudienceNetworkAdapter) SkipNoCookies() bool {
	return false
}

func (a *AudienceNetworkAdapter) GetUsersyncInfo() *pbs.UsersyncInfo {
	return nil
}

// parameters for the audience network adapter.
type audienceNetworkParams struct {
	PlacementId string `json:"placementId"`
}

// Ad formats the placementbid endpoint accepts.
var recognizedAdFormats = map[string]bool{
	"300x250":   true,
	"320x50":    true,
	"300x50":    true,
	"728x90":    true,
	"native":    true,
	"fullwidth": true,
}

// validatedUnit is one ad unit that survived validation: its network
// placement plus the recognized formats, in size-list order with duplicates
// kept. One query pair is sent per format occurrence.
type validatedUnit struct {
	unit        *pbs.PBSAdUnit
	placementID string
	formats     []string
}

type anBid struct {
	PlacementID      string `json:"placement_id"`
	BidID            string `json:"bid_id"`
	BidPriceCents    int64  `json:"bid_price_cents"`
	BidPriceCurrency string `json:"bid_price_currency"`
	BidPriceModel    string `json:"bid_price_model"`
}

type anResponse struct {
	Errors []string           `json:"errors"`
	Bids   map[string][]anBid `json:"bids"`
}

// canonicalFormat maps one raw size entry to a recognized ad format token.
// Strings are matched against the format table directly, [w,h] pairs are
// rendered as "WxH" first. Anything else yields no token.
func canonicalFormat(token pbs.SizeToken) (string, bool) {
	var s string
	if err := json.Unmarshal(token, &s); err == nil {
		return s, recognizedAdFormats[s]
	}

	var pair []int64
	if err := json.Unmarshal(token, &pair); err == nil && len(pair) == 2 && pair[0] > 0 && pair[1] > 0 {
		f := fmt.Sprintf("%dx%d", pair[0], pair[1])
		return f, recognizedAdFormats[f]
	}

	return "", false
}

func (a *AudienceNetworkAdapter) validateAdUnits(bidder *pbs.PBSBidder) []validatedUnit {
	units := make([]validatedUnit, 0, len(bidder.AdUnits))
	for i := range bidder.AdUnits {
		unit := &bidder.AdUnits[i]

		var params audienceNetworkParams
		if err := json.Unmarshal(unit.Params, &params); err != nil || params.PlacementId == "" {
			a.report(fmt.Sprintf("Missing placementId param for ad unit %s", unit.Code))
			continue
		}

		var formats []string
		for _, token := range unit.Sizes {
			if f, ok := canonicalFormat(token); ok {
				formats = append(formats, f)
			}
		}
		if len(formats) == 0 {
			a.report(fmt.Sprintf("Invalid size parameter for ad unit %s", unit.Code))
			continue
		}

		units = append(units, validatedUnit{
			unit:        unit,
			placementID: params.PlacementId,
			formats:     formats,
		})
	}
	return units
}

// makeEndpointURL builds the single batched GET: one placementids[] and one
// adformats[] entry per validated (placement, format) pair, in lockstep order.
func (a *AudienceNetworkAdapter) makeEndpointURL(units []validatedUnit) (string, error) {
	uri, err := url.Parse(a.URI)
	if err != nil {
		return "", fmt.Errorf("failed to parse audience network endpoint: %v", err)
	}

	q := uri.Query()
	for _, vu := range units {
		for _, format := range vu.formats {
			q.Add("placementids[]", vu.placementID)
			q.Add("adformats[]", format)
		}
	}
	uri.RawQuery = q.Encode()

	return uri.String(), nil
}

func (a *AudienceNetworkAdapter) Call(ctx context.Context, req *pbs.PBSRequest, bidder *pbs.PBSBidder) (pbs.PBSBidSlice, error) {
	if len(bidder.AdUnits) == 0 {
		return nil, &errortypes.BadInput{
			Message: "No ad units provided",
		}
	}

	units := a.validateAdUnits(bidder)
	if len(units) == 0 {
		return nil, nil
	}

	uri, err := a.makeEndpointURL(units)
	if err != nil {
		return nil, err
	}

	debug := &pbs.BidderDebug{
		RequestURI: uri,
	}
	if req.IsDebug {
		bidder.Debug = append(bidder.Debug, debug)
	}

	httpReq, err := http.NewRequest("GET", uri, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Add("Accept", "application/json")

	anResp, err := ctxhttp.Do(ctx, a.http.Client, httpReq)
	if err != nil {
		return nil, err
	}
	defer anResp.Body.Close()

	debug.StatusCode = anResp.StatusCode

	if anResp.StatusCode == http.StatusNoContent {
		return nil, nil
	}
	if anResp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP status: %d", anResp.StatusCode)
	}

	body, err := ioutil.ReadAll(anResp.Body)
	if err != nil {
		return nil, err
	}
	if req.IsDebug {
		debug.ResponseBody = string(body)
	}

	return a.interpretResponse(body, bidder, units)
}

func (a *AudienceNetworkAdapter) interpretResponse(body []byte, bidder *pbs.PBSBidder, units []validatedUnit) (pbs.PBSBidSlice, error) {
	// Network-level error strings are reported even when the bid payload
	// itself does not decode.
	jsonparser.ArrayEach(body, func(value []byte, dataType jsonparser.ValueType, offset int, err error) {
		if dataType != jsonparser.String {
			return
		}
		if msg, err := jsonparser.ParseString(value); err == nil {
			a.report(msg)
		}
	}, "errors")

	var resp anResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, &errortypes.BadServerResponse{
			Message: fmt.Sprintf("Invalid placementbid response: %v", err),
		}
	}

	bids := make(pbs.PBSBidSlice, 0, len(units))
	for _, vu := range units {
		placementBids := resp.Bids[vu.placementID]
		if len(placementBids) == 0 {
			bids = append(bids, &pbs.PBSBid{
				BidID:      vu.unit.BidID,
				AdUnitCode: vu.unit.Code,
				BidderCode: bidder.BidderCode,
				StatusCode: pbs.StatusNoBid,
			})
			continue
		}

		// First bid wins. Units sharing a placement ID re-match the same
		// entry, the list is never advanced.
		matched := placementBids[0]
		format := vu.formats[0]
		width, height := formatDimensions(format)

		bids = append(bids, &pbs.PBSBid{
			BidID:              vu.unit.BidID,
			AdUnitCode:         vu.unit.Code,
			BidderCode:         bidder.BidderCode,
			StatusCode:         pbs.StatusGood,
			Price:              priceFromCents(matched.BidPriceCents),
			Width:              width,
			Height:             height,
			Adm:                createAdMarkup(vu.placementID, format, matched.BidID),
			NetworkTag:         bidderTag,
			NetworkBidID:       matched.BidID,
			NetworkFormat:      format,
			NetworkPlacementID: vu.placementID,
		})
	}

	return bids, nil
}

func NewAudienceNetworkAdapter(config *adapters.HTTPAdapterConfig, endpoint string) *AudienceNetworkAdapter {
	return &AudienceNetworkAdapter{
		http: adapters.NewHTTPAdapter(config),
		URI:  endpoint,
		report: func(msg string) {
			glog.Warningf("audienceNetwork: %s", msg)
		},
	}
}
