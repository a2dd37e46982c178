package audiencenetwork

import (
	"fmt"
	"strconv"
	"strings"
)

// priceFromCents converts the network's integer CPM in cents to decimal
// currency units, ignoring bid_price_currency/bid_price_model which are
// passed through unvalidated.
func priceFromCents(cents int64) float64 {
	return float64(cents) / 100
}

// formatDimensions returns the creative dimensions for a recognized format.
// native and fullwidth creatives size themselves, so they report 0x0.
// The format always comes from the recognized table, so the WxH parse
// cannot fail.
func formatDimensions(format string) (uint64, uint64) {
	if format == "native" || format == "fullwidth" {
		return 0, 0
	}
	size := strings.SplitN(format, "x", 2)
	width, _ := strconv.ParseUint(size[0], 10, 64)
	height, _ := strconv.ParseUint(size[1], 10, 64)
	return width, height
}

// Native creatives are rendered into the publisher's own template, so the
// frame clones the parent document's stylesheets and provides the container
// skeleton the SDK fills in. Fixed-size banners need neither.
const nativeStyleInjection = `<script>window.onload=function(){if(parent){var oHead=document.getElementsByTagName("head")[0];var arrStyleSheets=parent.document.getElementsByTagName("style");for(var i=0;i<arrStyleSheets.length;i++)oHead.appendChild(arrStyleSheets[i].cloneNode(true));}}</script>`

const nativeContainer = `<div class="thirdPartyRoot"><a class="fbAdLink"><div class="fbAdMedia thirdPartyMediaClass"></div><div class="fbAdSubtitle thirdPartySubtitleClass"></div><div class="fbDefaultNativeAdWrapper"><div class="fbAdCallToAction thirdPartyCallToActionClass"></div><div class="fbAdTitle thirdPartyTitleClass"></div></div></a></div>`

// createAdMarkup produces the renderable fragment for one matched bid. The
// structure is fixed; only placementid/format/bidid vary, plus the native
// additions when the matched format is native.
func createAdMarkup(placementID, format, bidID string) string {
	nativeStyle := ""
	container := ""
	if format == "native" {
		nativeStyle = nativeStyleInjection
		container = nativeContainer
	}

	return fmt.Sprintf(`<html><head>%s</head><body><div style="display:none;position:relative;">`+
		`<script type="text/javascript">var data={placementid:'%s',format:'%s',bidid:'%s',`+
		`onAdLoaded:function(element){element.style.display='block';},`+
		`onAdError:function(errorCode,errorMessage){}};</script>`+
		`<script src="https://connect.facebook.net/en_US/fbadnw.js"></script>`+
		`%s</div></body></html>`,
		nativeStyle, placementID, format, bidID, container)
}
