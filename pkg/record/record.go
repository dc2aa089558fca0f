// Package record holds the normalized keyword metric and trend types and the single
// projection of volumes to comparable integers.
package record

// MetricRecord is one related keyword returned by the keyword tool. JSON field names
// follow the upstream payload so records pass through the HTTP surface unchanged.
type MetricRecord struct {
	Keyword      string      `json:"relKeyword"`
	PCVolume     Volume      `json:"monthlyPcQcCnt"`
	MobileVolume Volume      `json:"monthlyMobileQcCnt"`
	Competition  Competition `json:"compIdx"`

	// Detail fields sent with showDetail=1. Informational only.
	PCClicks     *float64 `json:"monthlyAvePcClkCnt,omitempty"`
	MobileClicks *float64 `json:"monthlyAveMobileClkCnt,omitempty"`
	PCCtr        *float64 `json:"monthlyAvePcCtr,omitempty"`
	MobileCtr    *float64 `json:"monthlyAveMobileCtr,omitempty"`
	AdDepth      *float64 `json:"plAvgDepth,omitempty"`
}

// TrendPoint is one month of relative search interest.
type TrendPoint struct {
	Period string  `json:"period"`
	Ratio  float64 `json:"ratio"`
}
