package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"sort"
	"time"

	"github.com/golang/glog"
	"github.com/julienschmidt/httprouter"
	metrics "github.com/rcrowley/go-metrics"

	"github.com/headerbid/fan-bidder/adapters"
	"github.com/headerbid/fan-bidder/adapters/audiencenetwork"
	"github.com/headerbid/fan-bidder/config"
	"github.com/headerbid/fan-bidder/pbs"
	"github.com/headerbid/fan-bidder/pbsmetrics"
)

var exchanges map[string]pbs.Adapter
var metricsRegistry metrics.Registry
var adapterMetrics map[string]*pbsmetrics.AdapterMetrics

type bidResult struct {
	bidder  *pbs.PBSBidder
	bidList pbs.PBSBidSlice
}

func writeAuctionError(w http.ResponseWriter, s string, err error) {
	var resp pbs.PBSResponse
	if err != nil {
		resp.Status = fmt.Sprintf("%s: %v", s, err)
	} else {
		resp.Status = s
	}
	b, err := json.Marshal(&resp)
	if err != nil {
		glog.Errorf("Failed to marshal auction error JSON: %s", err)
	} else {
		w.Write(b)
	}
}

func auction(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Add("Content-Type", "application/json")

	pbsReq, err := pbs.ParsePBSRequest(r)
	if err != nil {
		if glog.V(1) {
			glog.Infof("Failed to parse /auction request: %v", err)
		}
		writeAuctionError(w, "Error parsing request", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond*time.Duration(pbsReq.TimeoutMillis))
	defer cancel()

	pbsResp := pbs.PBSResponse{
		Status:       "OK",
		TID:          pbsReq.Tid,
		BidderStatus: pbsReq.Bidders,
	}

	ch := make(chan bidResult)
	sentBids := 0
	for _, bidder := range pbsReq.Bidders {
		ex, ok := exchanges[bidder.BidderCode]
		if !ok {
			bidder.Error = "Unsupported bidder"
			continue
		}

		ametrics := adapterMetrics[bidder.BidderCode]
		ametrics.RequestMeter.Mark(1)
		sentBids++

		go func(bidder *pbs.PBSBidder) {
			start := time.Now()
			bidList, err := ex.Call(ctx, pbsReq, bidder)
			bidder.ResponseTime = int(time.Since(start) / time.Millisecond)
			ametrics.RequestTimer.UpdateSince(start)
			if err != nil {
				switch err {
				case context.DeadlineExceeded:
					ametrics.TimeoutMeter.Mark(1)
					bidder.Error = "Timed out"
				default:
					ametrics.ErrorMeter.Mark(1)
					bidder.Error = err.Error()
					glog.Warningf("Error from bidder %v. Ignoring all bids: %v", bidder.BidderCode, err)
				}
			} else if len(bidList) > 0 {
				bidder.NumBids = len(bidList)
				ametrics.BidsReceivedMeter.Mark(int64(bidder.NumBids))
				for _, bid := range bidList {
					ametrics.PriceHistogram.Update(int64(bid.Price * 1000))
					bid.ResponseTime = bidder.ResponseTime
				}
			} else {
				bidder.NoBid = true
				ametrics.NoBidMeter.Mark(1)
			}

			ch <- bidResult{
				bidder:  bidder,
				bidList: bidList,
			}
		}(bidder)
	}

	for i := 0; i < sentBids; i++ {
		result := <-ch
		pbsResp.Bids = append(pbsResp.Bids, result.bidList...)
	}
	if pbsReq.SortBids == 1 {
		sort.Sort(pbsResp.Bids)
	}

	if glog.V(2) {
		glog.Infof("Request for %d ad units returned %d bids", len(pbsReq.AdUnits), len(pbsResp.Bids))
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.Encode(pbsResp)
}

func status(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	// could add more logic here, but doing nothing means 200 OK
}

func setupExchanges(cfg *config.Configuration) {
	exchanges = map[string]pbs.Adapter{
		"audienceNetwork": audiencenetwork.NewAudienceNetworkAdapter(adapters.DefaultHTTPAdapterConfig, cfg.Adapters["audiencenetwork"].Endpoint),
	}

	metricsRegistry = metrics.NewPrefixedRegistry("fanbidder.")
	adapterMetrics = make(map[string]*pbsmetrics.AdapterMetrics, len(exchanges))
	for exchange := range exchanges {
		adapterMetrics[exchange] = pbsmetrics.NewAdapterMetrics(metricsRegistry, exchange)
	}
}

func init() {
	config.SetupViper("fanbidder")
	flag.Parse() // read glog settings from cmd line
}

func main() {
	cfg, err := config.New()
	if err != nil {
		glog.Fatalf("Viper was unable to read configurations: %v", err)
	}

	setupExchanges(cfg)

	router := httprouter.New()
	router.POST("/auction", auction)
	router.GET("/status", status)

	glog.Infof("Server running on port %d", cfg.Port)
	glog.Fatal(http.ListenAndServe(fmt.Sprintf("%s:%d", cfg.Host, cfg.Port), router))
}
